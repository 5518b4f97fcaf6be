package domain

import (
	"errors"
	"time"
)

// Pre-defined errors for domain-specific validation.
var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidCoordinates      = errors.New("coordinates are missing or out of range")
	ErrOrderIDRequired         = errors.New("order ID is required")
)

// OrderStatus represents the possible states of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusPreparing  OrderStatus = "PREPARING"
	StatusReady      OrderStatus = "READY"
	StatusPickedUp   OrderStatus = "PICKED_UP"
	StatusDelivering OrderStatus = "DELIVERING"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether s is a known status value.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusPickedUp, StatusDelivering, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is the hub's view of an order: enough to serve snapshot reads and
// route events. The persistent store remains the system of record.
type Order struct {
	ID           string
	RestaurantID string
	CustomerID   string
	DriverID     *string
	Status       OrderStatus
	Pickup       *Coordinate
	Dropoff      *Coordinate
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// UpdateStatus changes the order's status, enforcing the delivery lifecycle.
// Orders are cancellable until the driver picks them up.
func (o *Order) UpdateStatus(newStatus OrderStatus) error {
	validTransitions := map[OrderStatus][]OrderStatus{
		StatusPending:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusPreparing, StatusCancelled},
		StatusPreparing:  {StatusReady, StatusCancelled},
		StatusReady:      {StatusPickedUp, StatusCancelled},
		StatusPickedUp:   {StatusDelivering},
		StatusDelivering: {StatusDelivered},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	allowed, ok := validTransitions[o.Status]
	if !ok {
		return ErrInvalidStatusTransition
	}

	for _, s := range allowed {
		if s == newStatus {
			o.Status = newStatus
			now := time.Now().UTC()
			o.UpdatedAt = &now
			return nil
		}
	}

	return ErrInvalidStatusTransition
}

// Active reports whether the order still needs live coordination.
func (o *Order) Active() bool {
	return o.Status != StatusDelivered && o.Status != StatusCancelled
}

// LocationSample is a raw driver position report. Latitude and longitude are
// pointers so a field the sender never set is distinguishable from an
// explicit zero; a sample missing either never passes Validate. CapturedAt
// may be zero, in which case the pipeline stamps it with the server receive
// time.
type LocationSample struct {
	OrderID    string    `json:"orderId"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt,omitempty"`
}

// Coordinate returns the sample's position. Only meaningful for samples that
// passed Validate.
func (s LocationSample) Coordinate() Coordinate {
	var c Coordinate
	if s.Latitude != nil {
		c.Latitude = *s.Latitude
	}
	if s.Longitude != nil {
		c.Longitude = *s.Longitude
	}
	return c
}

// Validate rejects samples without an order and samples whose coordinates
// are absent or out of range.
func (s LocationSample) Validate() error {
	if s.OrderID == "" {
		return ErrOrderIDRequired
	}
	if s.Latitude == nil || s.Longitude == nil {
		return ErrInvalidCoordinates
	}
	if !s.Coordinate().Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// DriverPosition is the last known driver position for an order, as persisted
// by the external store hand-off.
type DriverPosition struct {
	OrderID    string
	DriverID   string
	Location   Coordinate
	CapturedAt time.Time
}
