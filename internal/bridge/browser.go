package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/timada/market/internal/config"
)

// Browser owns one Chrome process, local or remote.
type Browser struct {
	cfg           *config.RuntimeConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Launch starts Chrome, or attaches to cfg.CdpURL when set. The browser
// lives until Close is called or ctx is done.
func Launch(ctx context.Context, cfg *config.RuntimeConfig) (*Browser, error) {
	slog.Info("starting chrome", "headless", cfg.Headless, "binary", cfg.ChromeBinary, "cdp", cfg.CdpURL)

	allocCtx, allocCancel := setupAllocator(ctx, cfg)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// the first Run allocates the browser and must not carry a timeout
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	slog.Debug("chrome started")
	return &Browser{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func setupAllocator(ctx context.Context, cfg *config.RuntimeConfig) (context.Context, context.CancelFunc) {
	if cfg.CdpURL != "" {
		return chromedp.NewRemoteAllocator(ctx, cfg.CdpURL)
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	opts = append(opts,
		chromedp.WindowSize(1280, 800),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	for name, value := range ParseFlags(cfg.ChromeExtraFlags) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

// ParseFlags turns "--a --b=c" into chromedp flag values.
func ParseFlags(s string) map[string]any {
	flags := make(map[string]any)
	for _, f := range strings.Fields(s) {
		f = strings.TrimLeft(f, "-")
		if f == "" {
			continue
		}
		if name, value, ok := strings.Cut(f, "="); ok {
			flags[name] = value
		} else {
			flags[f] = true
		}
	}
	return flags
}

// NewPage opens a fresh tab.
func (b *Browser) NewPage() (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("new tab: %w", err)
	}
	if b.cfg.NoAnimations {
		if err := InjectNoAnimations(tabCtx); err != nil {
			slog.Warn("disable animations failed", "err", err)
		}
	}
	return &Page{
		ctx:             tabCtx,
		cancel:          cancel,
		actionTimeout:   b.cfg.ActionTimeout,
		navigateTimeout: b.cfg.NavigateTimeout,
	}, nil
}

// Close shuts the browser down. Remote browsers are only disconnected.
func (b *Browser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	if b.cfg.CdpURL == "" {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(b.browserCtx) }()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	b.browserCancel()
	b.allocCancel()
	return err
}

var chromeNames = []string{
	"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell",
}

// Available reports whether Launch can be expected to find a browser.
func Available(cfg *config.RuntimeConfig) bool {
	if cfg.CdpURL != "" {
		return true
	}
	if cfg.ChromeBinary != "" {
		_, err := exec.LookPath(cfg.ChromeBinary)
		return err == nil
	}
	for _, name := range chromeNames {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}
