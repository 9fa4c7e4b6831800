package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

// SettingsRepo guards the single site_settings row.
type SettingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{db}
}

// Get returns the settings row, creating it with defaults when missing.
func (r *SettingsRepo) Get(ctx context.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.SiteSettingsID).Take(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := models.DefaultSiteSettings()
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", models.SiteSettingsID).Take(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update upserts the singleton with the given column changes.
func (r *SettingsRepo) Update(ctx context.Context, updates map[string]any) (*models.SiteSettings, error) {
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&models.SiteSettings{}).
			Where("id = ?", models.SiteSettingsID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.Get(ctx)
}
