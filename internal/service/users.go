package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/menuqr/menuqr/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserService implements user.*: the approval workflow run by super admins.
type UserService struct{ *base }

func requireSuperAdmin(actor models.User) error {
	if !actor.IsSuperAdmin() {
		return forbiddenError("super admin access required")
	}
	return nil
}

// List returns accounts, optionally by approval status.
func (s *UserService) List(ctx context.Context, actor models.User, status *models.ApprovalStatus) ([]models.User, error) {
	if errRole := requireSuperAdmin(actor); errRole != nil {
		return nil, errRole
	}
	var rows []models.User
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		q := conn.Model(&models.User{})
		if status != nil {
			q = q.Where("approval_status = ?", *status)
		}
		return q.Order("created_at DESC, id DESC").Find(&rows).Error
	})
	return rows, errRun
}

// transitionPending applies updates to a PENDING user; anything else is an
// invalid state.
func (s *UserService) transitionPending(ctx context.Context, targetID uint64, updates map[string]any) (models.User, error) {
	var user models.User
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		current, errLoad := loadUser(tx, targetID)
		if errLoad != nil {
			return errLoad
		}
		if current.ApprovalStatus != models.ApprovalPending {
			return invalidStateError("user %d is %s, not PENDING", current.ID, current.Role())
		}
		res := tx.Model(&models.User{}).
			Where("id = ? AND approval_status = ?", targetID, models.ApprovalPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidStateError("user %d is no longer PENDING", targetID)
		}
		var errReload error
		user, errReload = loadUser(tx, targetID)
		return errReload
	})
	return user, errTx
}

// Approve grants a PENDING user dashboard access and clears any rejection.
func (s *UserService) Approve(ctx context.Context, actor models.User, targetID uint64) (models.User, error) {
	if errRole := requireSuperAdmin(actor); errRole != nil {
		return models.User{}, errRole
	}
	now := s.now()
	user, errApprove := s.transitionPending(ctx, targetID, map[string]any{
		"approval_status":  models.ApprovalApproved,
		"is_approved":      true,
		"approved_at":      now,
		"rejected_at":      nil,
		"rejection_reason": "",
		"updated_at":       now,
	})
	if errApprove != nil {
		return models.User{}, errApprove
	}
	log.Infof("user: %s approved by %d", user.Email, actor.ID)
	return user, nil
}

// Reject refuses a PENDING user with a reason shown to them at login.
func (s *UserService) Reject(ctx context.Context, actor models.User, targetID uint64, reason string) (models.User, error) {
	if errRole := requireSuperAdmin(actor); errRole != nil {
		return models.User{}, errRole
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.User{}, validationError("a rejection reason is required")
	}
	now := s.now()
	user, errReject := s.transitionPending(ctx, targetID, map[string]any{
		"approval_status":  models.ApprovalRejected,
		"is_approved":      false,
		"rejected_at":      now,
		"rejection_reason": reason,
		"updated_at":       now,
	})
	if errReject != nil {
		return models.User{}, errReject
	}
	log.Infof("user: %s rejected by %d", user.Email, actor.ID)
	return user, nil
}
