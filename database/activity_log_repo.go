package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

type ActivityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) *ActivityLogRepo {
	return &ActivityLogRepo{db}
}

func (r *ActivityLogRepo) Add(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns at most limit entries, newest first
func (r *ActivityLogRepo) List(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	entries := []*models.ActivityLog{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Clear deletes every entry and returns how many there were.
func (r *ActivityLogRepo) Clear(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ActivityLog{})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	return count, err
}
