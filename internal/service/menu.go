package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MenuService implements menu.*: categories, items and the public menu.
type MenuService struct{ *base }

// CategoryInput creates a category. A nil Order appends it at the end.
type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

// Validate normalizes and checks the input.
func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Emoji = strings.TrimSpace(in.Emoji)
	if in.Name == "" {
		return validationError("category name is required")
	}
	if in.Order != nil && *in.Order < 0 {
		return validationError("order must not be negative")
	}
	return nil
}

// UpdateCategoryInput is a partial category update.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Emoji       *string `json:"emoji"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

// ListCategories returns the caller's categories in display order.
func (s *MenuService) ListCategories(ctx context.Context, ownerID uint64) ([]models.Category, error) {
	var rows []models.Category
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		return conn.Where("restaurant_id = ?", restaurant.ID).Order("sort_order ASC, id ASC").Find(&rows).Error
	})
	return rows, errRun
}

func nextCategoryOrder(tx *gorm.DB, restaurantID uint64) (int, error) {
	var maxOrder sql.NullInt64
	if errMax := tx.Model(&models.Category{}).Where("restaurant_id = ?", restaurantID).
		Select("MAX(sort_order)").Row().Scan(&maxOrder); errMax != nil {
		return 0, fmt.Errorf("max category order: %w", errMax)
	}
	if !maxOrder.Valid {
		return 0, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

// CreateCategory adds a category to the caller's restaurant.
func (s *MenuService) CreateCategory(ctx context.Context, ownerID uint64, in CategoryInput) (models.Category, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Category{}, errValidate
	}
	var category models.Category
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		order := 0
		if in.Order != nil {
			order = *in.Order
		} else {
			next, errNext := nextCategoryOrder(tx, restaurant.ID)
			if errNext != nil {
				return errNext
			}
			order = next
		}
		category = models.Category{
			RestaurantID: restaurant.ID,
			Name:         in.Name,
			Emoji:        in.Emoji,
			Description:  strings.TrimSpace(in.Description),
			Order:        order,
		}
		return conflictOnUnique(tx.Create(&category).Error, "category %q already exists", in.Name)
	})
	return category, errTx
}

// UpdateCategory edits one of the caller's categories.
func (s *MenuService) UpdateCategory(ctx context.Context, ownerID, categoryID uint64, in UpdateCategoryInput) (models.Category, error) {
	var category models.Category
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &category, restaurant.ID, categoryID, "category"); errFind != nil {
			return errFind
		}
		next := CategoryInput{Name: category.Name, Emoji: category.Emoji, Description: category.Description, Order: &category.Order}
		if in.Name != nil {
			next.Name = *in.Name
		}
		if in.Emoji != nil {
			next.Emoji = *in.Emoji
		}
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.Order != nil {
			next.Order = in.Order
		}
		if errValidate := next.Validate(); errValidate != nil {
			return errValidate
		}
		updates := map[string]any{
			"name":        next.Name,
			"emoji":       next.Emoji,
			"description": strings.TrimSpace(next.Description),
			"sort_order":  *next.Order,
			"updated_at":  s.now(),
		}
		if errUpdate := tx.Model(&category).Updates(updates).Error; errUpdate != nil {
			if dbutil.IsUniqueViolation(errUpdate) {
				return conflictError("category %q already exists", next.Name)
			}
			return fmt.Errorf("update category: %w", errUpdate)
		}
		return tx.First(&category, category.ID).Error
	})
	return category, errTx
}

// DeleteCategory removes an empty category. Categories that still own items
// are refused rather than cascaded.
func (s *MenuService) DeleteCategory(ctx context.Context, ownerID, categoryID uint64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var category models.Category
		if errFind := takeOwned(tx, &category, restaurant.ID, categoryID, "category"); errFind != nil {
			return errFind
		}
		var items int64
		if errCount := tx.Model(&models.MenuItem{}).Where("category_id = ?", category.ID).Count(&items).Error; errCount != nil {
			return fmt.Errorf("count menu items: %w", errCount)
		}
		if items > 0 {
			return hasDependentsError("category %q still has %d menu item(s)", category.Name, items)
		}
		return tx.Delete(&category).Error
	})
}

// MenuItemInput creates a menu item. Exactly one of CategoryID and
// CategoryName must be set; a name is found or created.
type MenuItemInput struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	Available    *bool   `json:"available"`
	CategoryID   *uint64 `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return validationError("price must be a non-negative number")
	}
	return nil
}

// roundCents rounds to two decimals.
func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Validate normalizes and checks the input.
func (in *MenuItemInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.CategoryName = strings.TrimSpace(in.CategoryName)
	if in.Name == "" {
		return validationError("item name is required")
	}
	if errPrice := validatePrice(in.Price); errPrice != nil {
		return errPrice
	}
	switch {
	case in.CategoryID == nil && in.CategoryName == "":
		return validationError("categoryId or categoryName is required")
	case in.CategoryID != nil && in.CategoryName != "":
		return validationError("set either categoryId or categoryName, not both")
	}
	return nil
}

// UpdateMenuItemInput is a partial item update.
type UpdateMenuItemInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Image       *string  `json:"image"`
	Available   *bool    `json:"available"`
	CategoryID  *uint64  `json:"categoryId"`
}

// findOrCreateCategory matches name case-insensitively within the
// restaurant. It must run inside the item's transaction. The insert yields to
// the unique (restaurant_id, lower(name)) index so concurrent callers converge
// on one row.
func findOrCreateCategory(tx *gorm.DB, restaurantID uint64, name string) (models.Category, error) {
	var category models.Category
	errFind := categoryByName(tx, restaurantID, name).Take(&category).Error
	if errFind == nil {
		return category, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.Category{}, fmt.Errorf("find category: %w", errFind)
	}
	order, errOrder := nextCategoryOrder(tx, restaurantID)
	if errOrder != nil {
		return models.Category{}, errOrder
	}
	category = models.Category{RestaurantID: restaurantID, Name: name, Order: order}
	if errCreate := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&category).Error; errCreate != nil {
		return models.Category{}, fmt.Errorf("create category: %w", errCreate)
	}
	var stored models.Category
	if errReload := categoryByName(tx, restaurantID, name).Take(&stored).Error; errReload != nil {
		return models.Category{}, fmt.Errorf("reload category: %w", errReload)
	}
	return stored, nil
}

func categoryByName(tx *gorm.DB, restaurantID uint64, name string) *gorm.DB {
	return tx.Where("restaurant_id = ? AND LOWER(name) = LOWER(?)", restaurantID, name).Order("id ASC")
}

// ListItems returns the caller's items, optionally for one category.
func (s *MenuService) ListItems(ctx context.Context, ownerID uint64, categoryID *uint64) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		q := conn.Where("restaurant_id = ?", restaurant.ID)
		if categoryID != nil {
			q = q.Where("category_id = ?", *categoryID)
		}
		return q.Order("category_id ASC, id ASC").Find(&rows).Error
	})
	return rows, errRun
}

// CreateItem adds an item; the category lookup or creation and the insert
// are one unit of work.
func (s *MenuService) CreateItem(ctx context.Context, ownerID uint64, in MenuItemInput) (models.MenuItem, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.MenuItem{}, errValidate
	}
	var item models.MenuItem
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var category models.Category
		if in.CategoryID != nil {
			if errFind := takeOwned(tx, &category, restaurant.ID, *in.CategoryID, "category"); errFind != nil {
				return errFind
			}
		} else {
			var errCategory error
			category, errCategory = findOrCreateCategory(tx, restaurant.ID, in.CategoryName)
			if errCategory != nil {
				return errCategory
			}
		}
		available := true
		if in.Available != nil {
			available = *in.Available
		}
		item = models.MenuItem{
			RestaurantID: restaurant.ID,
			CategoryID:   category.ID,
			Name:         in.Name,
			Description:  strings.TrimSpace(in.Description),
			Price:        roundCents(in.Price),
			Image:        strings.TrimSpace(in.Image),
			Available:    available,
		}
		return tx.Create(&item).Error
	})
	return item, errTx
}

// UpdateItem edits an item. Price changes never touch existing orders.
func (s *MenuService) UpdateItem(ctx context.Context, ownerID, itemID uint64, in UpdateMenuItemInput) (models.MenuItem, error) {
	var item models.MenuItem
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &item, restaurant.ID, itemID, "menu item"); errFind != nil {
			return errFind
		}
		updates := map[string]any{"updated_at": s.now()}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return validationError("item name is required")
			}
			updates["name"] = name
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.Price != nil {
			if errPrice := validatePrice(*in.Price); errPrice != nil {
				return errPrice
			}
			updates["price"] = roundCents(*in.Price)
		}
		if in.Image != nil {
			updates["image"] = strings.TrimSpace(*in.Image)
		}
		if in.Available != nil {
			updates["available"] = *in.Available
		}
		if in.CategoryID != nil {
			var category models.Category
			if errCategory := takeOwned(tx, &category, restaurant.ID, *in.CategoryID, "category"); errCategory != nil {
				return errCategory
			}
			updates["category_id"] = category.ID
		}
		if errUpdate := tx.Model(&item).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update menu item: %w", errUpdate)
		}
		return tx.First(&item, item.ID).Error
	})
	return item, errTx
}

// SetAvailability toggles whether diners can order the item.
func (s *MenuService) SetAvailability(ctx context.Context, ownerID, itemID uint64, available bool) (models.MenuItem, error) {
	return s.UpdateItem(ctx, ownerID, itemID, UpdateMenuItemInput{Available: &available})
}

// DeleteItem removes an item and its feedback mentions. Past order lines keep
// their name and price snapshot.
func (s *MenuService) DeleteItem(ctx context.Context, ownerID, itemID uint64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var item models.MenuItem
		if errFind := takeOwned(tx, &item, restaurant.ID, itemID, "menu item"); errFind != nil {
			return errFind
		}
		if errMentions := tx.Where("menu_item_id = ?", item.ID).Delete(&models.FeedbackItem{}).Error; errMentions != nil {
			return fmt.Errorf("delete feedback mentions: %w", errMentions)
		}
		return tx.Delete(&item).Error
	})
}

// PublicCategory is a category with its orderable items.
type PublicCategory struct {
	Category models.Category
	Items    []models.MenuItem
}

// PublicMenu is what a diner sees after scanning.
type PublicMenu struct {
	Restaurant models.Restaurant
	Settings   models.RestaurantSettings
	Categories []PublicCategory
}

// PublicMenu returns available items grouped by category in display order.
// Categories with nothing available are omitted.
func (s *MenuService) PublicMenu(ctx context.Context, slug string) (PublicMenu, error) {
	var menu PublicMenu
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		settings, _, errSettings := settingsFor(ctx, conn, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		var categories []models.Category
		if errFind := conn.Where("restaurant_id = ?", restaurant.ID).Order("sort_order ASC, id ASC").Find(&categories).Error; errFind != nil {
			return fmt.Errorf("list categories: %w", errFind)
		}
		var items []models.MenuItem
		if errFind := conn.Where("restaurant_id = ? AND available = ?", restaurant.ID, true).Order("id ASC").Find(&items).Error; errFind != nil {
			return fmt.Errorf("list menu items: %w", errFind)
		}
		byCategory := make(map[uint64][]models.MenuItem, len(categories))
		for _, item := range items {
			byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
		}
		menu = PublicMenu{Restaurant: restaurant, Settings: settings}
		for _, category := range categories {
			if len(byCategory[category.ID]) == 0 {
				continue
			}
			menu.Categories = append(menu.Categories, PublicCategory{Category: category, Items: byCategory[category.ID]})
		}
		return nil
	})
	return menu, errRun
}
