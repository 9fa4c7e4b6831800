package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repo is the CRUD repository shared by the ordered content types (skills,
// experience, education, services). orderBy is applied to every list query.
type Repo[T any] struct {
	db      *gorm.DB
	orderBy []string
}

func NewRepo[T any](db *gorm.DB, orderBy ...string) *Repo[T] {
	return &Repo[T]{db: db, orderBy: orderBy}
}

// FindAll returns the records matching filters (column -> value). With
// visibleOnly set, hidden records are left out.
func (r *Repo[T]) FindAll(ctx context.Context, filters map[string]any, visibleOnly bool) ([]*T, error) {
	q := r.db.WithContext(ctx).Model(new(T))
	if len(filters) > 0 {
		q = q.Where(filters)
	}
	if visibleOnly {
		q = q.Where("visible = ?", true)
	}
	for _, o := range r.orderBy {
		q = q.Order(o)
	}

	records := []*T{}
	err := q.Find(&records).Error
	return records, err
}

// FindByID returns the record with id, or nil when there is none.
func (r *Repo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var record T
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Add inserts a new record into the database
func (r *Repo[T]) Add(ctx context.Context, record *T) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Updates applies column changes to the record with id and returns it
// reloaded. It returns nil when the record does not exist.
func (r *Repo[T]) Updates(ctx context.Context, id uuid.UUID, updates map[string]any) (*T, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the record with id and reports how many rows went away.
func (r *Repo[T]) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	return res.RowsAffected, res.Error
}

// DeleteMany removes every record in ids inside one transaction.
func (r *Repo[T]) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	return count, err
}

// NextOrder is one past the highest sort_order within scope, 0 for an empty
// scope.
func (r *Repo[T]) NextOrder(ctx context.Context, scope map[string]any) (int, error) {
	q := r.db.WithContext(ctx).Model(new(T))
	if len(scope) > 0 {
		q = q.Where(scope)
	}

	var max int
	if err := q.Select("COALESCE(MAX(sort_order), -1)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *Repo[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}
