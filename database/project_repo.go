package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// ProjectFilter narrows project lists. Nil pointers and empty strings match
// everything.
type ProjectFilter struct {
	Category  string
	Featured  *bool
	Published *bool
}

func (r *ProjectRepo) withImages(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

// FindAll returns projects matching filter, newest first
func (r *ProjectRepo) FindAll(ctx context.Context, filter ProjectFilter) ([]*models.Project, error) {
	q := r.withImages(ctx)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if filter.Published != nil {
		q = q.Where("published = ?", *filter.Published)
	}

	projects := []*models.Project{}
	err := q.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// FindPublished returns the published projects, featured first then newest.
func (r *ProjectRepo) FindPublished(ctx context.Context, category string) ([]*models.Project, error) {
	q := r.withImages(ctx).Where("published = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	projects := []*models.Project{}
	err := q.Order("featured DESC").Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID, nil when absent
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.first(r.withImages(ctx).Where("id = ?", id))
}

// FindBySlug returns a project by slug, optionally only when published.
func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	q := r.withImages(ctx).Where("slug = ?", slug)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	return r.first(q)
}

func (r *ProjectRepo) first(q *gorm.DB) (*models.Project, error) {
	var project models.Project
	err := q.Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// SlugTaken reports whether another project already uses slug. exclude is
// the project being edited (uuid.Nil on create).
func (r *ProjectRepo) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts a new project and its images in one transaction
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project, images []models.ImageInput) error {
	project.Images = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Create(project).Error; err != nil {
			return err
		}
		created, err := replaceImages(tx, project.ID, images)
		if err != nil {
			return err
		}
		project.Images = created
		return nil
	})
}

// Update applies column changes and, when images is non-nil, replaces the
// whole image set. Both happen in one transaction. It returns nil when the
// project does not exist.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any, images *[]models.ImageInput) (*models.Project, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if images != nil {
			if _, err := replaceImages(tx, id, *images); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// replaceImages drops every image of projectID and recreates inputs with
// order 0..n-1.
func replaceImages(tx *gorm.DB, projectID uuid.UUID, inputs []models.ImageInput) ([]models.ProjectImage, error) {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectImage{}).Error; err != nil {
		return nil, err
	}
	images := models.NewProjectImages(projectID, inputs)
	if len(images) == 0 {
		return images, nil
	}
	if err := tx.Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Delete removes a project and its images
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.DeleteMany(ctx, []uuid.UUID{id})
}

// DeleteMany removes the projects in ids and their images in one transaction.
func (r *ProjectRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id IN ?", ids).Delete(&models.ProjectImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Project{})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	return count, err
}
