package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

// FeedbackService implements feedbacks.*. New feedback stays hidden until the
// owner approves it.
type FeedbackService struct{ *base }

// FeedbackItemInput mentions a menu item.
type FeedbackItemInput struct {
	MenuItemID uint64 `json:"menuItemId" binding:"required"`
	Rating     *int   `json:"rating"`
	Comment    string `json:"comment"`
}

// CreateFeedbackInput is a diner review.
type CreateFeedbackInput struct {
	Rating       int                 `json:"rating" binding:"required"`
	Comment      string              `json:"comment"`
	CustomerName string              `json:"customerName"`
	TableNumber  string              `json:"tableNumber"`
	Items        []FeedbackItemInput `json:"items"`
}

func validRating(rating int) bool { return rating >= 1 && rating <= 5 }

// Validate normalizes and checks the input.
func (in *CreateFeedbackInput) Validate() error {
	in.Comment = strings.TrimSpace(in.Comment)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	if !validRating(in.Rating) {
		return validationError("rating must be between 1 and 5")
	}
	seen := make(map[uint64]struct{}, len(in.Items))
	for i, item := range in.Items {
		if item.MenuItemID == 0 {
			return validationError("item %d: menuItemId is required", i+1)
		}
		if _, dup := seen[item.MenuItemID]; dup {
			return validationError("menu item %d is mentioned twice", item.MenuItemID)
		}
		seen[item.MenuItemID] = struct{}{}
		if item.Rating != nil && !validRating(*item.Rating) {
			return validationError("item %d: rating must be between 1 and 5", i+1)
		}
	}
	return nil
}

// Create stores a review for the restaurant behind slug. Mentioned items must
// belong to that restaurant's menu.
func (s *FeedbackService) Create(ctx context.Context, slug string, in CreateFeedbackInput) (models.Feedback, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return models.Feedback{}, errValidate
	}
	var feedback models.Feedback
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(tx, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		feedback = models.Feedback{
			RestaurantID: restaurant.ID,
			Rating:       in.Rating,
			Comment:      in.Comment,
			CustomerName: in.CustomerName,
		}
		if in.TableNumber != "" {
			table, errTable := tableByNumber(tx, restaurant.ID, in.TableNumber)
			if errTable != nil {
				return errTable
			}
			feedback.TableID = &table.ID
		}

		if len(in.Items) > 0 {
			ids := make([]uint64, 0, len(in.Items))
			for _, item := range in.Items {
				ids = append(ids, item.MenuItemID)
			}
			var known int64
			if errCount := tx.Model(&models.MenuItem{}).Where("restaurant_id = ? AND id IN ?", restaurant.ID, ids).Count(&known).Error; errCount != nil {
				return fmt.Errorf("check menu items: %w", errCount)
			}
			if int(known) != len(ids) {
				return validationError("feedback mentions items that are not on this menu")
			}
			for _, item := range in.Items {
				feedback.Items = append(feedback.Items, models.FeedbackItem{
					MenuItemID: item.MenuItemID,
					Rating:     item.Rating,
					Comment:    strings.TrimSpace(item.Comment),
				})
			}
		}
		return tx.Create(&feedback).Error
	})
	return feedback, errTx
}

// ListPublic returns approved feedback, or nothing when the restaurant hides
// reviews.
func (s *FeedbackService) ListPublic(ctx context.Context, slug string) ([]models.Feedback, error) {
	rows := []models.Feedback{}
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		settings, _, errSettings := settingsFor(ctx, conn, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		if !settings.ShowReviews {
			return nil
		}
		return conn.Preload("Items").
			Where("restaurant_id = ? AND is_approved = ?", restaurant.ID, true).
			Order("created_at DESC, id DESC").Find(&rows).Error
	})
	return rows, errRun
}

// List returns the caller's feedback, optionally filtered by approval.
func (s *FeedbackService) List(ctx context.Context, ownerID uint64, approved *bool) ([]models.Feedback, error) {
	var rows []models.Feedback
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		q := conn.Preload("Items").Where("restaurant_id = ?", restaurant.ID)
		if approved != nil {
			q = q.Where("is_approved = ?", *approved)
		}
		return q.Order("created_at DESC, id DESC").Find(&rows).Error
	})
	return rows, errRun
}

func (s *FeedbackService) setApproved(ctx context.Context, ownerID, feedbackID uint64, approved bool) (models.Feedback, error) {
	var feedback models.Feedback
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		if errFind := takeOwned(tx, &feedback, restaurant.ID, feedbackID, "feedback"); errFind != nil {
			return errFind
		}
		if errUpdate := tx.Model(&feedback).Updates(map[string]any{
			"is_approved": approved,
			"updated_at":  s.now(),
		}).Error; errUpdate != nil {
			return fmt.Errorf("update feedback: %w", errUpdate)
		}
		return tx.Preload("Items").First(&feedback, feedback.ID).Error
	})
	return feedback, errTx
}

// Approve makes feedback public.
func (s *FeedbackService) Approve(ctx context.Context, ownerID, feedbackID uint64) (models.Feedback, error) {
	return s.setApproved(ctx, ownerID, feedbackID, true)
}

// Reject hides feedback again.
func (s *FeedbackService) Reject(ctx context.Context, ownerID, feedbackID uint64) (models.Feedback, error) {
	return s.setApproved(ctx, ownerID, feedbackID, false)
}

// Delete removes feedback and its item mentions.
func (s *FeedbackService) Delete(ctx context.Context, ownerID, feedbackID uint64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(tx, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var feedback models.Feedback
		if errFind := takeOwned(tx, &feedback, restaurant.ID, feedbackID, "feedback"); errFind != nil {
			return errFind
		}
		if errItems := tx.Where("feedback_id = ?", feedback.ID).Delete(&models.FeedbackItem{}).Error; errItems != nil {
			return fmt.Errorf("delete feedback items: %w", errItems)
		}
		return tx.Delete(&feedback).Error
	})
}

// RatingSummary aggregates approved ratings.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func ratingSummary(conn *gorm.DB, restaurantID uint64) (RatingSummary, error) {
	var row struct {
		Count int64
		Avg   *float64
	}
	errScan := conn.Model(&models.Feedback{}).
		Select("COUNT(*) AS count, AVG(rating) AS avg").
		Where("restaurant_id = ? AND is_approved = ?", restaurantID, true).
		Scan(&row).Error
	if errScan != nil {
		return RatingSummary{}, fmt.Errorf("rating summary: %w", errScan)
	}
	summary := RatingSummary{Count: row.Count}
	if row.Avg != nil {
		summary.Average = math.Round(*row.Avg*10) / 10
	}
	return summary, nil
}

// Summary returns the caller's approved rating average.
func (s *FeedbackService) Summary(ctx context.Context, ownerID uint64) (RatingSummary, error) {
	var summary RatingSummary
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := ownedRestaurant(conn, ownerID)
		if errLoad != nil {
			return errLoad
		}
		var errSummary error
		summary, errSummary = ratingSummary(conn, restaurant.ID)
		return errSummary
	})
	return summary, errRun
}

// PublicSummary returns the rating average unless the restaurant hides it.
// The boolean is false when hidden.
func (s *FeedbackService) PublicSummary(ctx context.Context, slug string) (RatingSummary, bool, error) {
	var (
		summary RatingSummary
		visible bool
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		restaurant, errLoad := restaurantBySlug(conn, strings.TrimSpace(slug))
		if errLoad != nil {
			return errLoad
		}
		settings, _, errSettings := settingsFor(ctx, conn, restaurant.ID)
		if errSettings != nil {
			return errSettings
		}
		if !settings.ShowRating {
			return nil
		}
		visible = true
		var errSummary error
		summary, errSummary = ratingSummary(conn, restaurant.ID)
		return errSummary
	})
	return summary, visible, errRun
}
