package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/store"
	domainCart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domainInventory "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/gorilla/mux"
)

const (
	componentCartStore = "cart_store_http"
	maxBodyBytes       = 1 << 20
)

// Handler serves the cart REST API the storefront client talks to.
type Handler struct {
	store *store.Service
	tel   observability.Observability
}

func NewHandler(svc *store.Service, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{store: svc, tel: tel}
}

// Router returns the instrumented API routes. Callers may mount extra
// routes, such as /metrics, on the returned router.
func (h *Handler) Router() *mux.Router {
	instrument := Instrument(componentCartStore, h.tel)
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/inventory", h.handleListInventory).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.handleListCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.handleAddLine).Methods(http.MethodPost)
	r.HandleFunc("/cart/{id}", h.handleUpdateLine).Methods(http.MethodPatch)
	r.HandleFunc("/cart/{id}", h.handleRemoveLine).Methods(http.MethodDelete)
	r.HandleFunc("/health", HandleHealth).Methods(http.MethodGet)

	// mux only runs r.Use middleware on matched routes.
	r.MethodNotAllowedHandler = instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}))
	r.NotFoundHandler = instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, errors.New("not found"))
	}))
	return r
}

func (h *Handler) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInventory(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []domainInventory.Item{}
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleListCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.store.ListCart(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if lines == nil {
		lines = []domainCart.Line{}
	}
	WriteJSON(w, http.StatusOK, lines)
}

type addLineRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Amount  int    `json:"amount"`
}

func (h *Handler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.store.AddLine(r.Context(), store.AddLineInput{
		ID:      req.ID,
		Content: req.Content,
		Amount:  req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, line)
}

type updateLineRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.store.UpdateLine(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, line)
}

func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	line, err := h.store.RemoveLine(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, line)
}

// HandleHealth answers liveness probes.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainCart.ErrNotFound),
		errors.Is(err, domainInventory.ErrNotFound):
		WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, domainCart.ErrConflict):
		WriteError(w, http.StatusConflict, err)
	case errors.Is(err, domainCart.ErrInvalidAmount),
		errors.Is(err, domainCart.ErrInvalidID),
		errors.Is(err, domainInventory.ErrInvalidID):
		WriteError(w, http.StatusBadRequest, err)
	default:
		WriteError(w, http.StatusInternalServerError, err)
	}
}
