package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

type restaurantHandler struct {
	ordering OrderingService
	logger   log.Logger
}

func (h *restaurantHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := queryInt64(r, "limit", 100)
	skip := queryInt64(r, "skip", 0)

	list, err := h.ordering.ListRestaurants(r.Context(), limit, skip)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list, h.logger)
}

func (h *restaurantHandler) menu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.ordering.Menu(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, menu, h.logger)
}

func (h *restaurantHandler) item(w http.ResponseWriter, r *http.Request) {
	item, err := h.ordering.Item(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item, h.logger)
}

func (h *restaurantHandler) buildCart(w http.ResponseWriter, r *http.Request) {
	var req ordering.CartRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	cart, err := h.ordering.BuildCart(r.Context(), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart, h.logger)
}

func (h *restaurantHandler) costEstimate(w http.ResponseWriter, r *http.Request) {
	var req ordering.CartRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	estimate, err := h.ordering.CostEstimate(r.Context(), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, estimate, h.logger)
}

func (h *restaurantHandler) createReceipt(w http.ResponseWriter, r *http.Request) {
	var req ordering.ReceiptRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	receipt, err := h.ordering.CreateReceipt(r.Context(), req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, receipt, h.logger)
}

func (h *restaurantHandler) receipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.ordering.ReceiptByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, receipt, h.logger)
}

// decodeBody parses a JSON request body. On failure it writes a 400
// and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, out any, logger log.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body: "+err.Error(), logger)
		return false
	}
	return true
}

func queryInt64(r *http.Request, key string, def int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
