package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Homepage holds the restaurant's branded mini-site content.
type Homepage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;uniqueIndex"` // Owning restaurant ID.

	Presentation       string       `gorm:"type:text"`  // Intro text.
	ReservationBtnText string       `gorm:"type:text"`  // Reservation call-to-action label.
	Sliders            Sliders      `gorm:"type:jsonb"` // Carousel entries.
	Testimonials       Testimonials `gorm:"type:jsonb"` // Curated quotes.
	SocialLinks        SocialLinks  `gorm:"type:jsonb"` // Social profile links.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// DefaultHomepage returns the homepage materialized on first read.
func DefaultHomepage(restaurantID uint64) Homepage {
	return Homepage{
		RestaurantID:       restaurantID,
		ReservationBtnText: "Book a table",
		Sliders:            Sliders{},
		Testimonials:       Testimonials{},
		SocialLinks:        SocialLinks{},
	}
}

// Validate checks every JSON column.
func (h *Homepage) Validate() error {
	if errSliders := h.Sliders.Validate(); errSliders != nil {
		return errSliders
	}
	if errTestimonials := h.Testimonials.Validate(); errTestimonials != nil {
		return errTestimonials
	}
	return h.SocialLinks.Validate()
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultPrimaryColor is the brand color applied to new restaurants.
const DefaultPrimaryColor = "#f97316"

// RestaurantSettings holds per-restaurant display toggles.
type RestaurantSettings struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;uniqueIndex"` // Owning restaurant ID.

	LogoURL        string   `gorm:"column:logo_url;type:text"`   // Logo URL or data URI.
	PrimaryColor   string   `gorm:"type:varchar(7);not null"`    // Brand hex color.
	CommandeATable bool     `gorm:"column:commande_a_table"`     // Table ordering toggle.
	ShowRating     bool     `gorm:"not null"`                    // Show average rating publicly.
	ShowReviews    bool     `gorm:"not null"`                    // Show approved reviews publicly.
	Currency       Currency `gorm:"type:varchar(8);not null"`    // Display currency.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName pins the table name.
func (RestaurantSettings) TableName() string { return "restaurant_settings" }

// DefaultRestaurantSettings returns the settings materialized on first read.
func DefaultRestaurantSettings(restaurantID uint64) RestaurantSettings {
	return RestaurantSettings{
		RestaurantID:   restaurantID,
		PrimaryColor:   DefaultPrimaryColor,
		CommandeATable: true,
		ShowRating:     true,
		ShowReviews:    true,
		Currency:       CurrencyEUR,
	}
}

// Validate checks the color and currency.
func (s *RestaurantSettings) Validate() error {
	if !hexColorPattern.MatchString(strings.TrimSpace(s.PrimaryColor)) {
		return fmt.Errorf("primary color must be a hex color like #1a2b3c")
	}
	if !s.Currency.Valid() {
		return fmt.Errorf("unsupported currency %q", s.Currency)
	}
	return nil
}
