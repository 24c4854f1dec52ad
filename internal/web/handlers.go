package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/batuhanyalcin/storefront/internal/api"
	cartapp "github.com/batuhanyalcin/storefront/internal/cart/app"
	checkoutapp "github.com/batuhanyalcin/storefront/internal/checkout/app"
	checkoutdomain "github.com/batuhanyalcin/storefront/internal/checkout/domain"
	"github.com/batuhanyalcin/storefront/internal/metrics"
	"github.com/batuhanyalcin/storefront/internal/session"
	"github.com/go-chi/chi/v5"
)

type handlers struct {
	cart     *cartapp.Service
	checkout *checkoutapp.Service
	gate     *session.Gate
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func (h *handlers) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Get(r.Context()))
}

func (h *handlers) cartCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": h.cart.ItemCount(r.Context())})
}

type itemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (h *handlers) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}

	cart, err := h.cart.Add(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.countOp("add")
	writeJSON(w, http.StatusOK, cart)
}

func (h *handlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}

	cart, err := h.cart.SetQuantity(r.Context(), productID, req.Quantity)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.countOp("set_quantity")
	writeJSON(w, http.StatusOK, cart)
}

func (h *handlers) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.Remove(r.Context(), productID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.countOp("remove")
	writeJSON(w, http.StatusOK, cart)
}

func (h *handlers) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.countOp("clear")
	writeJSON(w, http.StatusOK, h.cart.Get(r.Context()))
}

func (h *handlers) submitCheckout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.checkout.Submit(r.Context())
	if err != nil {
		h.countCheckout(resultLabel(err))
		h.writeFailure(w, r, err)
		return
	}
	h.countCheckout("success")
	writeJSON(w, http.StatusCreated, receipt)
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}

	if err := h.gate.Login(r.Context(), req.Username, req.Password); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.sessionState(w, r)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(r.Context())
	h.sessionState(w, r)
}

func (h *handlers) sessionState(w http.ResponseWriter, r *http.Request) {
	state := map[string]any{"authenticated": h.gate.IsAuthenticated()}
	if exp, ok := h.gate.ExpiresAt(); ok {
		state["expiresAt"] = exp
	}
	writeJSON(w, http.StatusOK, state)
}

// writeFailure maps the engine's error taxonomy onto HTTP statuses.
func (h *handlers) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *checkoutdomain.StockConflictError
	var netErr *api.NetworkError

	switch {
	case errors.Is(err, cartapp.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, checkoutapp.ErrEmptyCart):
		writeError(w, http.StatusConflict, "EMPTY_CART", err.Error(), nil)
	case errors.Is(err, checkoutapp.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", err.Error(), nil)
	case errors.Is(err, api.ErrAuthExpired):
		writeError(w, http.StatusUnauthorized, "AUTH_EXPIRED", err.Error(), nil)
	case errors.Is(err, session.ErrLoginFailed):
		writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", err.Error(), nil)
	case errors.Is(err, checkoutapp.ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "SUBMIT_IN_FLIGHT", err.Error(), nil)
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "STOCK_CONFLICT", stockErr.Error(), conflictDetails(stockErr))
	case errors.As(err, &netErr):
		writeError(w, http.StatusBadGateway, "NETWORK_ERROR", netErr.Error(), map[string]any{"retryable": true})
	default:
		h.log.Error("unhandled failure", slog.String("path", r.URL.Path), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func conflictDetails(err *checkoutdomain.StockConflictError) map[string]any {
	lines := make([]map[string]any, len(err.Conflicts))
	for i, c := range err.Conflicts {
		lines[i] = map[string]any{
			"productId": c.ProductID,
			"name":      c.Name,
			"requested": c.Requested,
			"available": c.Available,
		}
	}
	return map[string]any{"conflicts": lines}
}

func resultLabel(err error) string {
	var stockErr *checkoutdomain.StockConflictError
	var netErr *api.NetworkError
	switch {
	case errors.Is(err, checkoutapp.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, checkoutapp.ErrAuthRequired):
		return "auth_required"
	case errors.Is(err, api.ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, checkoutapp.ErrSubmitInFlight):
		return "in_flight"
	case errors.As(err, &stockErr):
		return "stock_conflict"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}

func (h *handlers) countOp(op string) {
	if h.metrics != nil {
		h.metrics.CartOps.WithLabelValues(op).Inc()
	}
}

func (h *handlers) countCheckout(result string) {
	if h.metrics != nil {
		h.metrics.CheckoutResults.WithLabelValues(result).Inc()
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "productID must be an integer", nil)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorBody{Code: code, Message: message, Details: details})
}
