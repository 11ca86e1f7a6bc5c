package bridge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/timada/market/internal/config"
)

func TestNavigatePage_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NavigatePage(ctx, "http://localhost:3000/market"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNodeActionsNeedBrowserContext(t *testing.T) {
	ctx := context.Background()
	if err := FocusByNodeID(ctx, 1); err == nil {
		t.Error("FocusByNodeID without a tab should fail")
	}
	if _, err := InnerTextByNodeID(ctx, 1); err == nil {
		t.Error("InnerTextByNodeID without a tab should fail")
	}
	if _, err := fetchAXTree(ctx); err == nil {
		t.Error("fetchAXTree without a tab should fail")
	}
}

func TestParseFlags(t *testing.T) {
	got := ParseFlags("--no-sandbox  --lang=fr-FR -x ")
	if got["no-sandbox"] != true {
		t.Errorf("no-sandbox = %v", got["no-sandbox"])
	}
	if got["lang"] != "fr-FR" {
		t.Errorf("lang = %v", got["lang"])
	}
	if got["x"] != true {
		t.Errorf("x = %v", got["x"])
	}
	if len(ParseFlags("")) != 0 {
		t.Error("empty input should give no flags")
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	cfg := &config.RuntimeConfig{
		Headless:     true,
		ChromeBinary: filepath.Join(t.TempDir(), "no-such-chrome"),
	}
	if Available(cfg) {
		t.Error("Available should be false for a missing binary")
	}
	if _, err := Launch(context.Background(), cfg); err == nil {
		t.Error("Launch should fail for a missing binary")
	}
}

func TestAvailableWithRemote(t *testing.T) {
	if !Available(&config.RuntimeConfig{CdpURL: "ws://127.0.0.1:9222"}) {
		t.Error("a CDP url should count as available")
	}
}
