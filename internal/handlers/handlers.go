// Package handlers provides the HTTP handlers of the market server.
package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/timada/market/internal/assets"
	"github.com/timada/market/internal/config"
	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/market"
)

// MarketService is the part of market.Service the pages need.
type MarketService interface {
	Create(ctx context.Context, in market.CreateInput, md market.Metadata) (string, error)
	Load(ctx context.Context, id string) (*market.Product, error)
	Search(ctx context.Context, query string, args eventstore.Args) (eventstore.ReadResult[market.QueryProduct], error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Config *config.RuntimeConfig
	Market MarketService
	DB     Pinger

	pages  map[string]*template.Template
	static fs.FS
	reload *liveReload
}

func New(cfg *config.RuntimeConfig, m MarketService, db Pinger) (*Handlers, error) {
	base := strings.TrimRight(cfg.AssetsBaseURL, "/")
	pages, err := assets.Templates(template.FuncMap{
		"asset": func(name string) string { return base + "/" + name },
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Handlers{
		Config: cfg,
		Market: m,
		DB:     db,
		pages:  pages,
		static: assets.Static(),
		reload: newLiveReload(),
	}, nil
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /metrics", h.HandleMetrics)
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /market", h.HandleMarket)
	mux.HandleFunc("GET /market/-/create", h.HandleCreateForm)
	mux.HandleFunc("POST /market/-/create", h.HandleCreate)
	mux.HandleFunc("GET /market/-/create-status/{id}", h.HandleCreateStatus)
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(h.static)))
	if h.Config.Dev {
		mux.HandleFunc("GET /-/livereload", h.HandleLiveReload)
	}
}

// Handler returns the routed mux wrapped in the standard middleware chain.
func (h *Handlers) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return RequestIDMiddleware(LoggingMiddleware(RecoveryMiddleware(mux)))
}

// Shutdown closes open livereload sockets so browsers notice the restart.
func (h *Handlers) Shutdown() {
	h.reload.closeAll()
}
