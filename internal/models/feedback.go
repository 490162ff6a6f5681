package models

import "time"

// Feedback is a diner review; it is public only once approved.
type Feedback struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64  `gorm:"not null;index"` // Owning restaurant ID.
	TableID      *uint64 `gorm:"index"`          // Table the diner sat at, if known.

	Rating       int    `gorm:"not null"`               // Overall rating 1..5.
	Comment      string `gorm:"type:text"`              // Free-form comment.
	CustomerName string `gorm:"type:text"`              // Optional diner name.
	IsApproved   bool   `gorm:"not null;default:false"` // Public visibility flag.

	Items []FeedbackItem `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE"` // Per-item mentions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// FeedbackItem links a feedback to a menu item with an optional rating.
type FeedbackItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FeedbackID uint64 `gorm:"not null;uniqueIndex:idx_feedback_items_pair"` // Parent feedback ID.
	MenuItemID uint64 `gorm:"not null;uniqueIndex:idx_feedback_items_pair"` // Mentioned menu item ID.

	Rating  *int   // Optional item rating 1..5.
	Comment string `gorm:"type:text"` // Optional item comment.
}

// TableName pins the table name.
func (Feedback) TableName() string { return "feedbacks" }

// TableName pins the table name.
func (FeedbackItem) TableName() string { return "feedback_items" }
