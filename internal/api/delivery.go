package api

import (
	"net/http"

	"github.com/nomnoms/nomnoms/internal/doordash"
	"github.com/nomnoms/nomnoms/internal/log"
)

type deliveryHandler struct {
	delivery DeliveryService
	logger   log.Logger
}

func (h *deliveryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req doordash.DeliveryRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.ExternalDeliveryID == "" || req.PickupAddress == "" || req.PickupBusinessName == "" ||
		req.PickupPhoneNumber == "" || req.DropoffAddress == "" || req.DropoffPhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "validation_error",
			"external_delivery_id, pickup_address, pickup_business_name, pickup_phone_number, "+
				"dropoff_address and dropoff_phone_number are required", h.logger)
		return
	}

	delivery, err := h.delivery.CreateDelivery(r.Context(), &req)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, delivery, h.logger)
}

func (h *deliveryHandler) track(w http.ResponseWriter, r *http.Request) {
	delivery, err := h.delivery.TrackDelivery(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, delivery, h.logger)
}
