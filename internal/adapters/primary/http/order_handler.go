package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/quickbite/order-hub/internal/adapters/primary/http/middleware"
	"github.com/quickbite/order-hub/internal/adapters/primary/validation"
	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
	"github.com/quickbite/order-hub/internal/core/ports"
)

const maxChatMessageLength = 2000

// OrderHandler handles HTTP requests for order snapshots and updates.
// The snapshot reads back the polling fallback: clients that lose their
// socket poll these endpoints until the socket is back.
type OrderHandler struct {
	orderService ports.OrderService
	writeLimiter *mw.RateLimiter
	chatLimiter  *mw.RateLimitByKey
	pollInterval time.Duration
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler. Both limiters may be nil, in
// which case writes run unthrottled.
func NewOrderHandler(
	orderService ports.OrderService,
	writeLimiter *mw.RateLimiter,
	chatLimiter *mw.RateLimitByKey,
	pollInterval time.Duration,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		writeLimiter: writeLimiter,
		chatLimiter:  chatLimiter,
		pollInterval: pollInterval,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "order"),
	}
}

// Router sets up a new chi Router for all order-related routes.
func (h *OrderHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/{orderID}", func(r chi.Router) {
		// Snapshot reads stay unthrottled beyond the global limit; polling
		// clients hit them every few seconds.
		r.Get("/status", h.HandleGetStatus)
		r.Get("/location", h.HandleGetLocation)

		r.Group(func(r chi.Router) {
			if h.writeLimiter != nil {
				r.Use(h.writeLimiter.Middleware)
			}
			r.Patch("/status", h.HandleUpdateStatus)
			r.Post("/chat", h.HandlePostChat)
		})
	})
}

// RegisterRestaurantRoutes sets up the restaurant-facing order routes.
func (h *OrderHandler) RegisterRestaurantRoutes(r chi.Router) {
	r.Get("/{restaurantID}/orders", h.HandleListRestaurantOrders)
}

// --- Request/Response DTOs ---

// UpdateStatusRequest defines the expected JSON body for status updates.
// ActorID identifies who is making the change when no token is presented;
// a validated token overrides it.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actorId,omitempty"`
}

// Validate validates the update status request
func (r *UpdateStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{
			string(domain.StatusPending),
			string(domain.StatusConfirmed),
			string(domain.StatusPreparing),
			string(domain.StatusReady),
			string(domain.StatusPickedUp),
			string(domain.StatusDelivering),
			string(domain.StatusDelivered),
			string(domain.StatusCancelled),
		})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// PostChatRequest defines the expected JSON body for chat messages
type PostChatRequest struct {
	SenderID string `json:"senderId,omitempty"`
	Message  string `json:"message"`
}

// Validate validates the chat request
func (r *PostChatRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("message", r.Message).
		MaxLength("message", r.Message, maxChatMessageLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// OrderStatusDTO defines the JSON response for status snapshots.
type OrderStatusDTO struct {
	OrderID      string  `json:"orderId"`
	RestaurantID string  `json:"restaurantId"`
	Status       string  `json:"status"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt"`
}

func toOrderStatusDTO(order *domain.Order) OrderStatusDTO {
	var updatedAt *string
	if order.UpdatedAt != nil {
		value := order.UpdatedAt.Format(time.RFC3339)
		updatedAt = &value
	}

	return OrderStatusDTO{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Status:       string(order.Status),
		Active:       order.Active(),
		CreatedAt:    order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    updatedAt,
	}
}

// DriverPositionDTO defines the JSON response for location snapshots.
type DriverPositionDTO struct {
	OrderID    string  `json:"orderId"`
	DriverID   string  `json:"driverId,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CapturedAt string  `json:"capturedAt"`
}

func toDriverPositionDTO(pos *domain.DriverPosition) DriverPositionDTO {
	return DriverPositionDTO{
		OrderID:    pos.OrderID,
		DriverID:   pos.DriverID,
		Latitude:   pos.Location.Latitude,
		Longitude:  pos.Location.Longitude,
		CapturedAt: pos.CapturedAt.Format(time.RFC3339),
	}
}

// --- Handlers ---

// HandleGetStatus handles GET /orders/{orderID}/status
func (h *OrderHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSONWithHeaders(w, http.StatusOK, SuccessResponse{Data: toOrderStatusDTO(order)}, h.pollHeaders())
}

// HandleGetLocation handles GET /orders/{orderID}/location
func (h *OrderHandler) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	pos, err := h.orderService.GetDeliveryLocation(r.Context(), orderID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSONWithHeaders(w, http.StatusOK, SuccessResponse{Data: toDriverPositionDTO(pos)}, h.pollHeaders())
}

// HandleListRestaurantOrders handles GET /restaurants/{restaurantID}/orders
func (h *OrderHandler) HandleListRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")
	activeOnly := validation.ParseBoolQueryParam(r, "active", true)

	orders, err := h.orderService.ListRestaurantOrders(r.Context(), restaurantID, activeOnly)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	dtos := make([]OrderStatusDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, toOrderStatusDTO(order))
	}

	WriteJSONWithHeaders(w, http.StatusOK, ListResponse[OrderStatusDTO]{
		Data:  dtos,
		Count: len(dtos),
	}, h.pollHeaders())
}

// HandleUpdateStatus handles PATCH /orders/{orderID}/status
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	req, err := validation.DecodeAndValidate[UpdateStatusRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), ports.UpdateOrderStatusParams{
		OrderID: orderID,
		Status:  domain.OrderStatus(req.Status),
		ActorID: h.actorID(r, req.ActorID),
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, toOrderStatusDTO(order))
}

// HandlePostChat handles POST /orders/{orderID}/chat
func (h *OrderHandler) HandlePostChat(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	req, err := validation.DecodeAndValidate[PostChatRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	sender := h.actorID(r, req.SenderID)

	// Per-sender limit so one chatty participant cannot flood a room.
	// Anonymous senders are keyed by IP; sharing one bucket across all of
	// them would let a single participant starve the rest.
	limiterKey := sender
	if limiterKey == "" {
		limiterKey = "ip:" + mw.ClientIP(r)
	}
	if h.chatLimiter != nil && !h.chatLimiter.Allow(limiterKey) {
		h.errorHandler.Handle(w, r, apperrors.ErrRateLimited)
		return
	}

	err = h.orderService.PostChatMessage(r.Context(), ports.PostChatMessageParams{
		OrderID:  orderID,
		SenderID: sender,
		Message:  req.Message,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteNoContent(w)
}

// actorID resolves the acting user: token claims win over the declared id.
func (h *OrderHandler) actorID(r *http.Request, declared string) string {
	if claims := mw.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return declared
}

// pollHeaders advertises the snapshot polling cadence to clients.
func (h *OrderHandler) pollHeaders() map[string]string {
	seconds := int(h.pollInterval / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return map[string]string{
		"Cache-Control": "no-store, max-age=0",
		"X-Poll-After":  strconv.Itoa(seconds),
	}
}
