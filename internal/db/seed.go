package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Origin tags where a lazily materialized record came from.
type Origin int

const (
	// OriginExisting means the row was already stored.
	OriginExisting Origin = iota
	// OriginDefault means the row was created from defaults by this call.
	OriginDefault
)

// String returns the origin label.
func (o Origin) String() string {
	if o == OriginDefault {
		return "default"
	}
	return "existing"
}

// Validator is implemented by records that check their shape before a write.
type Validator interface {
	Validate() error
}

// FirstOrSeed loads the row matching column = value, creating it from seed
// when absent. The insert ignores conflicts on the unique column so concurrent
// first reads converge on one row. The returned record is always re-read from
// the store.
func FirstOrSeed[T any](ctx context.Context, conn *gorm.DB, column string, value any, seed func() (T, error)) (T, Origin, error) {
	var zero T
	if conn == nil {
		return zero, OriginExisting, fmt.Errorf("db: nil connection")
	}
	tx := conn.WithContext(ctx)
	where := clause.Eq{Column: clause.Column{Name: column}, Value: value}

	var existing T
	errFind := tx.Where(where).Take(&existing).Error
	if errFind == nil {
		return existing, OriginExisting, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return zero, OriginExisting, fmt.Errorf("db: load %s: %w", column, errFind)
	}

	record, errSeed := seed()
	if errSeed != nil {
		return zero, OriginExisting, fmt.Errorf("db: seed defaults: %w", errSeed)
	}
	if v, ok := any(&record).(Validator); ok {
		if errValidate := v.Validate(); errValidate != nil {
			return zero, OriginExisting, fmt.Errorf("db: seed defaults: %w", errValidate)
		}
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: column}},
		DoNothing: true,
	}).Create(&record)
	if res.Error != nil {
		return zero, OriginExisting, fmt.Errorf("db: create defaults: %w", res.Error)
	}
	origin := OriginExisting
	if res.RowsAffected > 0 {
		origin = OriginDefault
	}

	var stored T
	if errReload := tx.Where(where).Take(&stored).Error; errReload != nil {
		return zero, OriginExisting, fmt.Errorf("db: reload %s: %w", column, errReload)
	}
	return stored, origin, nil
}
