package models

import "time"

// ApprovalStatus tracks where an account is in the signup approval workflow.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Tier is the authorization tier of an approved account.
type Tier string

const (
	TierAdmin      Tier = "ADMIN"
	TierSuperAdmin Tier = "SUPER_ADMIN"
)

// Role is the single display role derived from approval status and tier.
type Role string

const (
	RolePending    Role = "PENDING"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleRejected   Role = "REJECTED"
)

// User represents a restaurant owner or platform operator account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text"`                      // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	ApprovalStatus ApprovalStatus `gorm:"type:varchar(16);not null;default:'PENDING';index"` // Approval workflow state.
	Tier           Tier           `gorm:"type:varchar(16);not null;default:'ADMIN'"`        // Authorization tier.
	IsApproved     bool           `gorm:"not null;default:false"`                            // True iff approval status is APPROVED.

	ApprovedAt      *time.Time // Approval timestamp.
	RejectedAt      *time.Time // Rejection timestamp.
	RejectionReason string     `gorm:"type:text"` // Reason given on rejection.

	TOTPSecret string `gorm:"type:text"` // TOTP secret for MFA.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Role derives the legacy single-valued role.
func (u User) Role() Role {
	switch u.ApprovalStatus {
	case ApprovalPending:
		return RolePending
	case ApprovalRejected:
		return RoleRejected
	}
	if u.Tier == TierSuperAdmin {
		return RoleSuperAdmin
	}
	return RoleAdmin
}

// IsSuperAdmin reports whether the account is an approved super admin.
func (u User) IsSuperAdmin() bool {
	return u.ApprovalStatus == ApprovalApproved && u.Tier == TierSuperAdmin
}

// CanAccessDashboard reports whether the owner dashboard may be served.
func (u User) CanAccessDashboard() bool {
	return u.ApprovalStatus == ApprovalApproved
}

// HasTOTP reports whether a second factor is enrolled.
func (u User) HasTOTP() bool {
	return u.TOTPSecret != ""
}
