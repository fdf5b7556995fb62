package notification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository handles all DB operations for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListByResident(ctx context.Context, residentID int64, buildingID *int64, limit, offset int) ([]*Notification, error)
	CountUnread(ctx context.Context, residentID int64, buildingID *int64) (int64, error)
	MarkAsRead(ctx context.Context, id, residentID int64) error
	MarkAllAsRead(ctx context.Context, residentID int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) ListByResident(ctx context.Context, residentID int64, buildingID *int64, limit, offset int) ([]*Notification, error) {
	q := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("created_at DESC")

	if buildingID != nil {
		q = q.Where("building_id = ?", *buildingID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var out []*Notification
	err := q.Find(&out).Error
	return out, err
}

func (r *repository) CountUnread(ctx context.Context, residentID int64, buildingID *int64) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("resident_id = ? AND is_read = ?", residentID, false)

	if buildingID != nil {
		q = q.Where("building_id = ?", *buildingID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

// MarkAsRead flips an unread notification to read and stamps read_at.
// Marking an already-read notification is a no-op success; read_at never
// changes once set.
func (r *repository) MarkAsRead(ctx context.Context, id, residentID int64) error {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND resident_id = ? AND is_read = ?", id, residentID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either already read (fine) or not this resident's notification.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&Notification{}).
			Where("id = ? AND resident_id = ?", id, residentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllAsRead marks every unread notification of a resident. Idempotent:
// with nothing unread it touches no rows.
func (r *repository) MarkAllAsRead(ctx context.Context, residentID int64) error {
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("resident_id = ? AND is_read = ?", residentID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()}).Error
}
