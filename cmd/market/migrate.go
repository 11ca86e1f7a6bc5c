package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply event store and read model migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			deps, err := openMarket(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			deps.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s and %s\n", cfg.EventDSN(), cfg.QueryDBPath())
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the YAML config file")
	return cmd
}
