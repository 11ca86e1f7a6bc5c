package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/timada/market/internal/config"
	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/handlers"
	"github.com/timada/market/internal/market"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server and the product subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			return serve(ctx, cfg, ln)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to the YAML config file")
	return cmd
}

type marketDeps struct {
	svc     *market.Service
	events  *eventstore.Store
	queryDB *sql.DB
}

func (d *marketDeps) Close() {
	_ = d.queryDB.Close()
	_ = d.events.Close()
}

// openMarket opens both databases, applying their migrations.
func openMarket(ctx context.Context, cfg *config.RuntimeConfig) (*marketDeps, error) {
	events, err := eventstore.Open(ctx, cfg.EventDSN())
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	queryDB, err := market.OpenQueryDB(ctx, cfg.QueryDBPath())
	if err != nil {
		_ = events.Close()
		return nil, fmt.Errorf("open query db: %w", err)
	}
	svc := market.NewService(events, queryDB, cfg.Region)
	svc.SetPollDelay(cfg.PollDelay)
	return &marketDeps{svc: svc, events: events, queryDB: queryDB}, nil
}

// serve runs the HTTP server and every subscription until ctx is done or
// one of them fails.
func serve(ctx context.Context, cfg *config.RuntimeConfig, ln net.Listener) error {
	deps, err := openMarket(ctx, cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer deps.Close()

	h, err := handlers.New(cfg, deps.svc, deps.events)
	if err != nil {
		_ = ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, sub := range deps.svc.Subscriptions() {
		g.Go(func() error { return sub.Run(gctx, deps.events) })
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		h.Shutdown()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	slog.Info("market listening", "addr", ln.Addr().String(), "region", cfg.Region, "dev", cfg.Dev)
	return g.Wait()
}
