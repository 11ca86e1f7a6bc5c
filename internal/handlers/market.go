package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/market"
	"github.com/timada/market/internal/web"
)

func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, 200, "index.html", h.newPage(r))
}

// HandleMarket renders the search page. The query is echoed in main even
// when nothing matches.
func (h *Handlers) HandleMarket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := h.newPage(r)
	data.Query = strings.TrimSpace(q.Get("q"))

	args := eventstore.Args{
		First:  queryInt(q.Get("first")),
		After:  q.Get("after"),
		Last:   queryInt(q.Get("last")),
		Before: q.Get("before"),
	}
	res, err := h.Market.Search(r.Context(), data.Query, args)
	if errors.Is(err, eventstore.ErrInvalidCursor) {
		h.renderError(w, r, 400, "error.bad_request")
		return
	}
	if err != nil {
		slog.Error("search products", "requestId", RequestID(r.Context()), "err", err)
		h.renderError(w, r, 500, "error.internal")
		return
	}
	data.Products = res.Nodes()
	data.PageInfo = res.PageInfo
	h.render(w, 200, "market/index.html", data)
}

func (h *Handlers) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, 200, "market/create.html", h.newPage(r))
}

func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, 400, "error.bad_request")
		return
	}
	data := h.newPage(r)
	data.Name = r.PostForm.Get("name")

	md := market.Metadata{RequestID: RequestID(r.Context())}
	id, err := h.Market.Create(r.Context(), market.CreateInput{Name: data.Name}, md)

	var verr *market.ValidationError
	if errors.As(err, &verr) {
		data.Error = data.T.T("error.validation." + verr.Field)
		h.render(w, 422, "market/create.html", data)
		return
	}
	if err != nil {
		slog.Error("create product", "requestId", md.RequestID, "err", err)
		h.renderError(w, r, 500, "error.internal")
		return
	}
	atomic.AddUint64(&metricProductsCreated, 1)

	p, err := h.Market.Load(r.Context(), id)
	if err != nil {
		slog.Error("load created product", "id", id, "err", err)
		h.renderError(w, r, 500, "error.internal")
		return
	}
	w.Header().Set("Location", "/market/-/create-status/"+id)
	data.Product = p
	h.render(w, 201, "market/status.html", data)
}

// HandleCreateStatus reports the state of a product while it is checked.
// JSON clients get the product itself.
func (h *Handlers) HandleCreateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.Market.Load(r.Context(), id)
	if errors.Is(err, market.ErrNotFound) {
		if wantsJSON(r) {
			web.ErrorCode(w, 404, "not_found", "product not found", false, map[string]any{"id": id})
			return
		}
		h.renderError(w, r, 404, "error.not_found")
		return
	}
	if err != nil {
		slog.Error("load product", "id", id, "err", err)
		if wantsJSON(r) {
			web.Error(w, 500, err)
			return
		}
		h.renderError(w, r, 500, "error.internal")
		return
	}

	if wantsJSON(r) {
		web.JSON(w, 200, p)
		return
	}
	data := h.newPage(r)
	data.Product = p
	h.render(w, 200, "market/status.html", data)
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
