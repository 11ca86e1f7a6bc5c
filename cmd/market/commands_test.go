package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timada/market/internal/config"
)

func clearMarketEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MARKET_ADDR", "MARKET_REGION", "MARKET_DATA_DIR", "MARKET_MARKET_DSN", "MARKET_DEV", "MARKET_ASSETS_BASE_URL"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	clearMarketEnv(t)
	path := filepath.Join(t.TempDir(), "etc", "market.yml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-3", cfg.Region)

	_, err = run(t, "config", "init", "-o", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "config", "init", "-o", path, "-f")
	require.NoError(t, err)
}

func TestMigrateCmd(t *testing.T) {
	clearMarketEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "market.yml")
	body := "addr: 127.0.0.1:0\nregion: eu-west-3\ndata_dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, "migrate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
	assert.FileExists(t, filepath.Join(dir, "market_event.db"))
	assert.FileExists(t, filepath.Join(dir, "market_query.db"))

	// a second run finds nothing to do
	_, err = run(t, "migrate", "-c", path)
	require.NoError(t, err)
}

func TestMigrateRejectsUnsupportedDSN(t *testing.T) {
	clearMarketEnv(t)
	t.Setenv("MARKET_MARKET_DSN", "postgres://localhost/market")
	t.Setenv("MARKET_DATA_DIR", t.TempDir())
	_, err := run(t, "migrate")
	require.Error(t, err)
}

func TestServeUntilCancelled(t *testing.T) {
	clearMarketEnv(t)
	cfg := config.Load()
	cfg.DataDir = t.TempDir()
	cfg.PollDelay = 20 * time.Millisecond

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, ln) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == 200
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.PostForm(base+"/market/-/create", map[string][]string{"name": {"mouse 345"}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 201, resp.StatusCode)

	// subscriptions run inside serve, so the product reaches the read model
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/market?q=mouse")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return strings.Contains(buf.String(), "product--ready")
	}, 5*time.Second, 50*time.Millisecond)

	client.CloseIdleConnections()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestSmokeFailsWithoutBrowser(t *testing.T) {
	t.Setenv("CDP_URL", "")
	t.Setenv("CHROME_BINARY", filepath.Join(t.TempDir(), "no-chrome"))
	_, err := run(t, "smoke", "--base-url", "http://127.0.0.1:1", "--timeout", "100ms")
	require.Error(t, err)
}
