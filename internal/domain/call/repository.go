package call

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Call) error
	GetByID(ctx context.Context, id int64) (*Call, error)
	Update(ctx context.Context, c *Call) error
	ListByResident(ctx context.Context, residentID int64, limit, offset int) ([]*Call, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Call) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Call, error) {
	var c Call
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Call) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *repository) ListByResident(ctx context.Context, residentID int64, limit, offset int) ([]*Call, error) {
	q := r.db.WithContext(ctx).
		Where("caller_id = ? OR callee_id = ?", residentID, residentID).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var out []*Call
	err := q.Find(&out).Error
	return out, err
}
