package services

import (
	"context"
	"fmt"

	"geoquiz/models"

	"gorm.io/gorm"
)

// UserDirectory answers whether a user id is known. Accounts themselves are
// owned by the identity service.
type UserDirectory interface {
	UserExists(ctx context.Context, userID uint) (bool, error)
}

type GormUserDirectory struct {
	db *gorm.DB
}

func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

func (d *GormUserDirectory) UserExists(ctx context.Context, userID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}
