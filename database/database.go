package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

type Database struct {
	db              *gorm.DB
	projectRepo     *ProjectRepo
	skillRepo       *Repo[models.Skill]
	experienceRepo  *Repo[models.WorkExperience]
	educationRepo   *Repo[models.Education]
	serviceRepo     *Repo[models.Service]
	settingsRepo    *SettingsRepo
	userRepo        *UserRepo
	activityLogRepo *ActivityLogRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:              db,
		projectRepo:     NewProjectRepo(db),
		skillRepo:       NewRepo[models.Skill](db, "category ASC", "sort_order ASC", "created_at ASC"),
		experienceRepo:  NewRepo[models.WorkExperience](db, "sort_order ASC", "start_date DESC"),
		educationRepo:   NewRepo[models.Education](db, "sort_order ASC", "start_date DESC"),
		serviceRepo:     NewRepo[models.Service](db, "sort_order ASC", "created_at ASC"),
		settingsRepo:    NewSettingsRepo(db),
		userRepo:        NewUserRepo(db),
		activityLogRepo: NewActivityLogRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) SkillRepo() *Repo[models.Skill] {
	return d.skillRepo
}

func (d Database) ExperienceRepo() *Repo[models.WorkExperience] {
	return d.experienceRepo
}

func (d Database) EducationRepo() *Repo[models.Education] {
	return d.educationRepo
}

func (d Database) ServiceRepo() *Repo[models.Service] {
	return d.serviceRepo
}

func (d Database) SettingsRepo() *SettingsRepo {
	return d.settingsRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) ActivityLogRepo() *ActivityLogRepo {
	return d.activityLogRepo
}

// Migrate creates or alters every table to match the models.
func (d Database) Migrate() error {
	if err := d.db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	return nil
}

// Ping checks that the primary connection is usable.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
