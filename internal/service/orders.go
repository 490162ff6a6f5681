package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/menuqr/menuqr/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxOrderQuantity = 99

// OrderService implements orders.*.
type OrderService struct{ *base }

// OrderLineInput is one requested line.
type OrderLineInput struct {
	MenuItemID uint64 `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Notes      string `json:"notes"`
}

// CreateOrderInput is a diner order placed from a table.
type CreateOrderInput struct {
	TableNumber  string           `json:"tableNumber" binding:"required"`
	CustomerName string           `json:"customerName"`
	Notes        string           `json:"notes"`
	Items        []OrderLineInput `json:"items" binding:"required"`
}

// Validate normalizes and checks the input.
func (in *CreateOrderInput) Validate() error {
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.TableNumber == "" {
		return validationError("table number is required")
	}
	if len(in.Items) == 0 {
		return validationError("an order needs at least one item")
	}
	for i, line := range in.Items {
		if line.MenuItemID == 0 {
			return validationError("item %d: menuItemId is required", i+1)
		}
		if line.Quantity < 1 || line.Quantity > maxOrderQuantity {
			return validationError("item %d: quantity must be between 1 and %d", i+1, maxOrderQuantity)
		}
	}
	return nil
}

// Create places an order. Prices are copied from the menu now and the total
// is fixed; later menu edits do not change it.
func (s *OrderService) Create(ctx context.Context, slug string, in CreateOrderInput) (models.Order, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Order{}, errValidate
	}
	var order models.Order
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(tx, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		settings, _, errSettings := settingsFor(ctx, tx, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		if !settings.CommandeATable {
			return &Error{Kind: KindForbidden, Code: "ordering_disabled", Message: "table ordering is disabled for this restaurant"}
		}
		table, errTable := tableByNumber(tx, restaurant.ID, in.TableNumber)
		if errTable != nil {
			return errTable
		}

		ids := make([]uint64, 0, len(in.Items))
		for _, line := range in.Items {
			ids = append(ids, line.MenuItemID)
		}
		var menuItems []models.MenuItem
		if errFind := tx.Where("restaurant_id = ? AND id IN ?", restaurant.ID, ids).Find(&menuItems).Error; errFind != nil {
			return fmt.Errorf("load menu items: %w", errFind)
		}
		byID := make(map[uint64]models.MenuItem, len(menuItems))
		for _, item := range menuItems {
			byID[item.ID] = item
		}

		lines := make([]models.OrderItem, 0, len(in.Items))
		total := 0.0
		for _, line := range in.Items {
			item, ok := byID[line.MenuItemID]
			if !ok {
				return validationError("menu item %d is not on this menu", line.MenuItemID)
			}
			if !item.Available {
				return validationError("%s is currently unavailable", item.Name)
			}
			orderLine := models.OrderItem{
				MenuItemID: item.ID,
				Name:       item.Name,
				Quantity:   line.Quantity,
				Price:      item.Price,
				Notes:      strings.TrimSpace(line.Notes),
			}
			total += orderLine.LineTotal()
			lines = append(lines, orderLine)
		}

		tableID := table.ID
		order = models.Order{
			RestaurantID: restaurant.ID,
			TableID:      &tableID,
			TableNumber:  table.Number,
			CustomerName: in.CustomerName,
			Notes:        strings.TrimSpace(in.Notes),
			TotalAmount:  roundCents(total),
			Status:       models.OrderPending,
			Items:        lines,
		}
		if errCreate := tx.Create(&order).Error; errCreate != nil {
			return fmt.Errorf("create order: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return models.Order{}, errTx
	}
	log.Debugf("orders: order %d placed at table %s (%.2f)", order.ID, order.TableNumber, order.TotalAmount)
	return order, nil
}

// List returns the caller's orders, newest first, optionally by status.
func (s *OrderService) List(ctx context.Context, ownerID uint64, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil && !status.Valid() {
		return nil, validationError("unknown order status %q", *status)
	}
	var rows []models.Order
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		q := conn.Preload("Items").Where("restaurant_id = ?", restaurant.ID)
		if status != nil {
			q = q.Where("status = ?", *status)
		}
		return q.Order("created_at DESC, id DESC").Find(&rows).Error
	})
	return rows, errRun
}

// Get returns one of the caller's orders with its lines.
func (s *OrderService) Get(ctx context.Context, ownerID, orderID uint64) (models.Order, error) {
	var order models.Order
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		return takeOwned(conn.Preload("Items"), &order, restaurant.ID, orderID, "order")
	})
	return order, errRun
}

// UpdateStatus moves an order along pending -> preparing -> served or
// pending -> cancelled. The write is guarded on the current status so two
// concurrent transitions cannot both apply.
func (s *OrderService) UpdateStatus(ctx context.Context, ownerID, orderID uint64, next models.OrderStatus) (models.Order, error) {
	if !next.Valid() {
		return models.Order{}, validationError("unknown order status %q", next)
	}
	var order models.Order
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &order, restaurant.ID, orderID, "order"); errFind != nil {
			return errFind
		}
		from := order.Status
		if _, errTransition := from.Transition(next); errTransition != nil {
			return &Error{Kind: KindInvalidState, Code: "invalid_transition", Message: errTransition.Error(), Err: errTransition}
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Updates(map[string]any{"status": next, "updated_at": s.now()})
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictError("order %d changed concurrently", order.ID)
		}
		return tx.Preload("Items").First(&order, order.ID).Error
	})
	return order, errTx
}

// OrderStats summarizes the caller's orders.
type OrderStats struct {
	Counts  map[models.OrderStatus]int64 `json:"counts"`
	Total   int64                        `json:"total"`
	Revenue float64                      `json:"revenue"` // Sum over served orders.
}

// Stats counts orders per status and sums served revenue.
func (s *OrderService) Stats(ctx context.Context, ownerID uint64) (OrderStats, error) {
	stats := OrderStats{Counts: make(map[models.OrderStatus]int64, len(models.OrderStatuses))}
	for _, status := range models.OrderStatuses {
		stats.Counts[status] = 0
	}
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var grouped []struct {
			Status  models.OrderStatus
			Count   int64
			Revenue float64
		}
		errGroup := conn.Model(&models.Order{}).
			Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
			Where("restaurant_id = ?", restaurant.ID).
			Group("status").
			Scan(&grouped).Error
		if errGroup != nil {
			return fmt.Errorf("order stats: %w", errGroup)
		}
		for _, row := range grouped {
			stats.Counts[row.Status] = row.Count
			stats.Total += row.Count
			if row.Status == models.OrderServed {
				stats.Revenue = roundCents(row.Revenue)
			}
		}
		return nil
	})
	if errRun != nil {
		return OrderStats{}, errRun
	}
	return stats, nil
}

// IsInvalidTransition reports whether err is a rejected status change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, models.ErrInvalidTransition)
}
