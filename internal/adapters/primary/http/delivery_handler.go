package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quickbite/order-hub/internal/adapters/primary/validation"
	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// DeliveryHandler handles HTTP requests from drivers looking for work.
type DeliveryHandler struct {
	deliveryService ports.DeliveryService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(
	deliveryService ports.DeliveryService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "delivery"),
	}
}

// Router sets up a new chi Router for the delivery routes.
func (h *DeliveryHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for the delivery endpoints.
func (h *DeliveryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/nearby", h.HandleNearby)
}

// HandleNearby handles GET /deliveries/nearby?lat=..&lng=..
func (h *DeliveryHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	v := validation.NewValidator()

	lat, ok := validation.ParseFloatQueryParam(r, "lat")
	v.Custom("lat", ok, "Must be a valid latitude")

	lng, ok := validation.ParseFloatQueryParam(r, "lng")
	v.Custom("lng", ok, "Must be a valid longitude")

	if !v.HasErrors() {
		v.FloatRange("lat", lat, -90, 90).
			FloatRange("lng", lng, -180, 180)
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	offers, err := h.deliveryService.NearbyDeliveries(r.Context(), domain.Coordinate{
		Latitude:  lat,
		Longitude: lng,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, offers)
}
