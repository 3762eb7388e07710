package httppresentation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appStorefront "github.com/Zhima-Mochi/minishop-storefront/internal/application/storefront"
	httptransport "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/http"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-storefront/internal/presentation/dom"
	"github.com/gorilla/mux"
)

const (
	componentHTTPHandler = "storefront_http"
	defaultSettleTimeout = 5 * time.Second
)

// Dispatcher is the part of the coordinator the HTTP surface drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dom.Event) error
	Settle(ctx context.Context) error
}

// Renderer produces the current page and its list fragments.
type Renderer interface {
	Page(w io.Writer) error
	Fragment(c dom.Container) (string, error)
}

// Handler serves the storefront page: clicks arrive as form posts, are
// dispatched to the coordinator, and the browser is redirected to a page
// rendered once the resulting remote calls settled.
type Handler struct {
	coordinator   Dispatcher
	view          Renderer
	tel           observability.Observability
	log           observability.Logger
	settleTimeout time.Duration
}

type Option func(*Handler)

// WithSettleTimeout bounds how long a click waits for in-flight calls.
func WithSettleTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.settleTimeout = d
		}
	}
}

func NewHandler(coordinator Dispatcher, view Renderer, tel observability.Observability, opts ...Option) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	h := &Handler{
		coordinator:   coordinator,
		view:          view,
		tel:           tel,
		log:           tel.Logger().With(observability.F("component", componentHTTPHandler)),
		settleTimeout: defaultSettleTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(httptransport.Instrument(componentHTTPHandler, h.tel))

	r.HandleFunc("/", h.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/click", h.handleClick).Methods(http.MethodPost)
	r.HandleFunc("/fragments/{container}", h.handleFragment).Methods(http.MethodGet)
	r.HandleFunc("/health", httptransport.HandleHealth).Methods(http.MethodGet)
	return r
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.Page(w); err != nil {
		logctx.FromOr(r.Context(), h.log).Error("page_render_failed", observability.F("error", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ev := dom.Event{
		Container: dom.Container(r.PostForm.Get("container")),
		Class:     r.PostForm.Get("class"),
		RowID:     r.PostForm.Get("id"),
	}
	if ev.Container == "" || ev.Class == "" {
		http.Error(w, "container and class are required", http.StatusBadRequest)
		return
	}

	logger := logctx.FromOr(r.Context(), h.log)
	if err := h.coordinator.Dispatch(r.Context(), ev); err != nil {
		logger.Warn("click_dispatch_failed", observability.F("event", ev.String()), observability.F("error", err))
		switch {
		case errors.Is(err, dom.ErrUnknownContainer):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, appStorefront.ErrNotStarted), errors.Is(err, appStorefront.ErrStopped):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	settleCtx, cancel := context.WithTimeout(r.Context(), h.settleTimeout)
	defer cancel()
	if err := h.coordinator.Settle(settleCtx); err != nil {
		// The page is still served; it shows whatever state has landed.
		logger.Warn("click_settle_timeout", observability.F("event", ev.String()), observability.F("error", err))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleFragment(w http.ResponseWriter, r *http.Request) {
	c := dom.Container(mux.Vars(r)["container"])
	html, err := h.view.Fragment(c)
	if err != nil {
		if errors.Is(err, dom.ErrUnknownContainer) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logctx.FromOr(r.Context(), h.log).Error("fragment_render_failed", observability.F("container", string(c)), observability.F("error", err))
		http.Error(w, fmt.Sprintf("render %s failed", c), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}
