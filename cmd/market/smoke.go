package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/timada/market/internal/bridge"
	"github.com/timada/market/internal/config"
	"github.com/timada/market/internal/smoke"
)

func NewSmokeCmd() *cobra.Command {
	def := smoke.DefaultScenario()
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Search the market from a real browser and check the result",
		Long: `Open the market page in Chrome, type a query in the search box, press
Enter and check that the main region shows the query.

Chrome is started locally unless CDP_URL points at a running browser.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := def
			var err error
			if s.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
				return err
			}
			if s.Path, err = cmd.Flags().GetString("path"); err != nil {
				return err
			}
			if s.Query, err = cmd.Flags().GetString("query"); err != nil {
				return err
			}
			if s.ExpectTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
				return err
			}

			cfg := config.Load()
			if cmd.Flags().Changed("headless") {
				if cfg.Headless, err = cmd.Flags().GetBool("headless"); err != nil {
					return err
				}
			}
			if err := runSmoke(cmd.Context(), cfg, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s shows %q\n", s.URL(), s.Query)
			return nil
		},
	}
	cmd.Flags().String("base-url", def.BaseURL, "Market base URL")
	cmd.Flags().String("path", def.Path, "Path of the search page")
	cmd.Flags().String("query", def.Query, "Search query to type")
	cmd.Flags().Duration("timeout", def.ExpectTimeout, "How long main may take to show the query")
	cmd.Flags().Bool("headless", true, "Run Chrome without a window")
	return cmd
}

func runSmoke(ctx context.Context, cfg *config.RuntimeConfig, s smoke.Scenario) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout+4*cfg.ActionTimeout+s.ExpectTimeout+10*time.Second)
	defer cancel()

	browser, err := bridge.Launch(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.NewPage()
	if err != nil {
		return err
	}
	defer page.Close()

	return s.Run(ctx, page)
}
