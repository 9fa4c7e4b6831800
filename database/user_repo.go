package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByEmail looks a user up by normalized email, nil when absent.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)))
}

func (r *UserRepo) first(q *gorm.DB) (*models.User, error) {
	var user models.User
	err := q.Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepo) Updates(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	if len(updates) > 0 {
		err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
