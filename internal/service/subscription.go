package service

import (
	"context"
	"fmt"

	dbutil "github.com/menuqr/menuqr/internal/db"
	"github.com/menuqr/menuqr/internal/entitlement"
	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubscriptionService implements subscription.*.
type SubscriptionService struct{ *base }

func subscriptionFor(ctx context.Context, conn *gorm.DB, userID uint64) (models.Subscription, dbutil.Origin, error) {
	return dbutil.FirstOrSeed(ctx, conn, "user_id", userID, func() (models.Subscription, error) {
		return models.NewSubscription(userID, plans.Freemium)
	})
}

// Get returns the caller's subscription, starting FREEMIUM on first read.
func (s *SubscriptionService) Get(ctx context.Context, userID uint64) (models.Subscription, dbutil.Origin, error) {
	var (
		sub    models.Subscription
		origin dbutil.Origin
	)
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errSub error
		sub, origin, errSub = subscriptionFor(ctx, conn, userID)
		return errSub
	})
	return sub, origin, errRun
}

// Usage evaluates the caller's soft limits and feature gates.
func (s *SubscriptionService) Usage(ctx context.Context, userID uint64) (entitlement.Report, error) {
	sub, _, errSub := s.Get(ctx, userID)
	if errSub != nil {
		return entitlement.Report{}, errSub
	}
	stats, _, errStats := s.deps.Meter.GetUsageStats(ctx, userID)
	if errStats != nil {
		return entitlement.Report{}, errStats
	}
	return entitlement.Evaluate(sub, stats, s.deps.Policy.IsGrandfathered(sub)), nil
}

// Plans returns the catalog by ascending price.
func (s *SubscriptionService) Plans() []plans.Detail {
	return plans.Ordered()
}

// AssignPlan moves a user to plan and refreshes the limits and features
// snapshot. Only a super admin may call it; self-service upgrades go through
// payment, which is not wired.
func (s *SubscriptionService) AssignPlan(ctx context.Context, actor models.User, targetUserID uint64, rawPlan string) (models.Subscription, error) {
	if !actor.IsSuperAdmin() {
		return models.Subscription{}, forbiddenError("only a super admin can assign plans")
	}
	plan, ok := plans.Parse(rawPlan)
	if !ok {
		return models.Subscription{}, validationError("unknown plan %q", rawPlan)
	}
	next, errNew := models.NewSubscription(targetUserID, plan)
	if errNew != nil {
		return models.Subscription{}, errNew
	}

	var sub models.Subscription
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		if _, errUser := loadUser(tx, targetUserID); errUser != nil {
			return errUser
		}
		var errSub error
		sub, _, errSub = subscriptionFor(ctx, tx, targetUserID)
		if errSub != nil {
			return errSub
		}
		sub.Plan = next.Plan
		sub.Status = models.SubscriptionActive
		sub.MaxRestaurants = next.MaxRestaurants
		sub.MaxScansPerMonth = next.MaxScansPerMonth
		sub.Features = next.Features
		sub.UpdatedAt = s.now()
		if errValidate := sub.Validate(); errValidate != nil {
			return validationError("%v", errValidate)
		}
		if errSave := tx.Save(&sub).Error; errSave != nil {
			return fmt.Errorf("save subscription: %w", errSave)
		}
		return nil
	})
	if errTx != nil {
		return models.Subscription{}, errTx
	}
	log.Infof("subscription: user %d moved to %s by %d", targetUserID, plan, actor.ID)
	return sub, nil
}
