package models

import (
	"errors"
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderServed, OrderCancelled}

// ErrInvalidTransition is returned for an edge outside the order state machine.
var ErrInvalidTransition = errors.New("invalid order status transition")

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderServed},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is an allowed edge.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates s -> next and returns next.
func (s OrderStatus) Transition(next OrderStatus) (OrderStatus, error) {
	if !next.Valid() {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// Order is a diner order placed from a table.
type Order struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64  `gorm:"not null;index"`   // Owning restaurant ID.
	TableID      *uint64 `gorm:"index"`            // Resolved table ID.
	TableNumber  string  `gorm:"type:varchar(64)"` // Table label at order time.

	CustomerName string      `gorm:"type:text"`                             // Optional diner name.
	Notes        string      `gorm:"type:text"`                             // Optional order notes.
	TotalAmount  float64     `gorm:"type:decimal(10,2);not null;default:0"` // Sum of item snapshots, fixed at creation.
	Status       OrderStatus `gorm:"type:varchar(16);not null;index"`       // Lifecycle state.

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"` // Ordered lines.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// OrderItem is one line of an order with the price captured at order time.
type OrderItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OrderID    uint64 `gorm:"not null;index"` // Parent order ID.
	MenuItemID uint64 `gorm:"not null;index"` // Ordered menu item ID.

	Name     string  `gorm:"type:text"`                  // Item name snapshot.
	Quantity int     `gorm:"not null"`                   // Units ordered (>= 1).
	Price    float64 `gorm:"type:decimal(10,2);not null"` // Unit price snapshot.
	Notes    string  `gorm:"type:text"`                  // Per-line notes.
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}
