package handlers

import (
	"net/http"
	"strings"

	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/i18n"
	"github.com/timada/market/internal/market"
	"github.com/timada/market/internal/web"
)

type pageData struct {
	T   *i18n.Translator
	Dev bool

	Status int
	Error  string

	Query    string
	Products []market.QueryProduct
	PageInfo eventstore.PageInfo

	Name    string
	Product *market.Product
}

func (h *Handlers) newPage(r *http.Request) *pageData {
	return &pageData{
		T:   i18n.New(i18n.FromRequest(r)),
		Dev: h.Config.Dev,
	}
}

func (h *Handlers) render(w http.ResponseWriter, code int, page string, data *pageData) {
	tmpl, ok := h.pages[page]
	if !ok {
		web.ErrorCode(w, 500, "internal", "unknown page "+page, false, nil)
		return
	}
	web.HTML(w, code, tmpl, "layout", data)
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, code int, key string) {
	data := h.newPage(r)
	data.Status = code
	data.Error = data.T.T(key)
	h.render(w, code, "error.html", data)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
