package app

import (
	"fmt"

	"github.com/menuqr/menuqr/internal/models"
	"gorm.io/gorm"
)

// HasSuperAdmin reports whether at least one SUPER_ADMIN account exists.
func HasSuperAdmin(conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.User{}) {
		return false, nil
	}
	var count int64
	errCount := conn.Model(&models.User{}).Where("tier = ?", models.TierSuperAdmin).Count(&count).Error
	if errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}
