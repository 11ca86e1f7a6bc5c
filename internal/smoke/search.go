// Package smoke holds the browser check run against a live market: search
// for a product from the market page and see the query echoed in main.
package smoke

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/timada/market/internal/bridge"
)

// Page is the part of a browser tab the scenario drives.
type Page interface {
	Goto(ctx context.Context, url string) error
	Click(ctx context.Context, sel bridge.RoleSelector) error
	Fill(ctx context.Context, sel bridge.RoleSelector, value string) error
	Press(ctx context.Context, sel bridge.RoleSelector, key string) error
	InnerText(ctx context.Context, sel bridge.RoleSelector) (string, error)
}

type Scenario struct {
	BaseURL       string
	Path          string
	Query         string
	ExpectTimeout time.Duration
}

func DefaultScenario() Scenario {
	return Scenario{
		BaseURL:       "http://localhost:3000",
		Path:          "/market",
		Query:         "mouse 345",
		ExpectTimeout: 5 * time.Second,
	}
}

func (s Scenario) URL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(s.Path, "/")
}

// Run searches for s.Query and checks main shows it. Steps run in order
// and the first failure ends the run.
func (s Scenario) Run(ctx context.Context, page Page) error {
	search := bridge.ByRole("textbox")
	main := bridge.ByRole("main")

	steps := []struct {
		name string
		do   func(context.Context) error
	}{
		{"goto", func(ctx context.Context) error { return page.Goto(ctx, s.URL()) }},
		{"click", func(ctx context.Context) error { return page.Click(ctx, search) }},
		{"fill", func(ctx context.Context) error { return page.Fill(ctx, search, s.Query) }},
		{"press", func(ctx context.Context) error { return page.Press(ctx, search, "Enter") }},
		{"expect", func(ctx context.Context) error {
			return bridge.ExpectText(ctx, page, main, s.Query, bridge.ExpectOptions{Timeout: s.ExpectTimeout})
		}},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.do(ctx); err != nil {
			slog.Error("smoke step failed", "step", step.name, "err", err)
			return fmt.Errorf("%s: %w", step.name, err)
		}
		slog.Debug("smoke step", "step", step.name, "ms", time.Since(start).Milliseconds())
	}
	return nil
}
