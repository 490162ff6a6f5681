package models

import "time"

// Restaurant is the tenant root; every menu, table and order hangs off it.
type Restaurant struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	OwnerID uint64 `gorm:"not null;uniqueIndex"` // Owning user ID (one restaurant per user).

	Name         string       `gorm:"type:text;not null"`                   // Display name.
	Slug         string       `gorm:"type:varchar(191);not null;uniqueIndex"` // Globally unique URL slug.
	Description  string       `gorm:"type:text"`                            // Free-form description.
	Address      string       `gorm:"type:text"`                            // Postal address.
	Phone        string       `gorm:"type:varchar(64)"`                     // Contact phone.
	Email        string       `gorm:"type:text"`                            // Contact email.
	OpeningHours OpeningHours `gorm:"type:jsonb"`                           // Per-weekday hours.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Validate checks the structured fields before a write.
func (r *Restaurant) Validate() error {
	return r.OpeningHours.Validate()
}

// Category groups menu items for display.
type Category struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;index"` // Owning restaurant ID.

	Name        string `gorm:"type:text;not null"`                 // Display name.
	Emoji       string `gorm:"type:varchar(16)"`                   // Optional emoji marker.
	Description string `gorm:"type:text"`                          // Optional description.
	Order       int    `gorm:"column:sort_order;not null;default:0"` // Display ordering weight.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// MenuItem is a dish or drink on the menu.
type MenuItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;index"` // Owning restaurant ID.
	CategoryID   uint64 `gorm:"not null;index"` // Parent category ID.

	Name        string  `gorm:"type:text;not null"`                    // Display name.
	Description string  `gorm:"type:text"`                             // Optional description.
	Price       float64 `gorm:"type:decimal(10,2);not null;default:0"` // Current price.
	Image       string  `gorm:"type:text"`                             // Image URL or data URI.
	Available   bool    `gorm:"not null"`                              // Whether diners can order it.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Table is a physical table carrying a printed QR code.
type Table struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;uniqueIndex:idx_tables_restaurant_number"` // Owning restaurant ID.

	Number     string `gorm:"type:varchar(64);not null;uniqueIndex:idx_tables_restaurant_number"` // Table label, e.g. "A1".
	QRCodeURL  string `gorm:"column:qr_code_url;type:text;not null"`                              // Menu URL encoded in the QR code.
	QRCodeData string `gorm:"column:qr_code_data;type:text"`                                      // Rendered QR image data URI.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Reservation is a confirmed booking; there is no status, deletion is final.
type Reservation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RestaurantID uint64 `gorm:"not null;index"` // Owning restaurant ID.

	CustomerName  string    `gorm:"type:text;not null"`        // Guest name.
	CustomerPhone string    `gorm:"type:varchar(64);not null"` // Guest phone.
	DateTime      time.Time `gorm:"not null;index"`            // Booked slot.
	PeopleCount   int       `gorm:"not null"`                  // Party size.
	Notes         string    `gorm:"type:text"`                 // Free-form notes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
