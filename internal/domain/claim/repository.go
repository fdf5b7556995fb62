package claim

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository handles all DB operations for the claim domain. The create
// and delete paths span multiple tables and run inside one transaction.
type Repository interface {
	// CreateGraph inserts the claim, its affected-apartment links and its
	// photo rows atomically. makePhotos runs inside the transaction once
	// the claim ID is known; returning an error rolls everything back.
	CreateGraph(ctx context.Context, c *Claim, affectedApartmentIDs []int64, makePhotos func(claimID int64) ([]*Photo, error)) error

	GetByID(ctx context.Context, id int64) (*Claim, error)
	ListByBuilding(ctx context.Context, buildingID int64) ([]*Claim, error)
	ListVisible(ctx context.Context, buildingID, residentID int64) ([]*Claim, error)
	AffectedApartmentIDs(ctx context.Context, claimID int64) ([]int64, error)
	Photos(ctx context.Context, claimID int64) ([]*Photo, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateGraph(ctx context.Context, c *Claim, affectedApartmentIDs []int64, makePhotos func(claimID int64) ([]*Photo, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		for _, aptID := range affectedApartmentIDs {
			link := &AffectedApartment{ClaimID: c.ID, ApartmentID: aptID}
			if err := tx.Create(link).Error; err != nil {
				return mapDuplicateErr(err)
			}
		}

		if makePhotos != nil {
			photos, err := makePhotos(c.ID)
			if err != nil {
				return err
			}
			for _, p := range photos {
				if err := tx.Create(p).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Claim, error) {
	var c Claim
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListByBuilding(ctx context.Context, buildingID int64) ([]*Claim, error) {
	var out []*Claim
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListVisible returns the claims one resident may see in a building:
// claims they reported, claims on the apartment they occupy, and claims
// whose affected set includes their apartment.
func (r *repository) ListVisible(ctx context.Context, buildingID, residentID int64) ([]*Claim, error) {
	occupied := r.db.
		Table("memberships").
		Select("apartment_id").
		Where("resident_id = ? AND is_active = ? AND apartment_id IS NOT NULL", residentID, true)

	affected := r.db.
		Table("claim_affected_apartments").
		Select("claim_id").
		Where("apartment_id IN (?)", occupied)

	var out []*Claim
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Where("reporter_id = ? OR apartment_id IN (?) OR id IN (?)", residentID, occupied, affected).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) AffectedApartmentIDs(ctx context.Context, claimID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&AffectedApartment{}).
		Where("claim_id = ?", claimID).
		Order("id").
		Pluck("apartment_id", &ids).Error
	return ids, err
}

func (r *repository) Photos(ctx context.Context, claimID int64) ([]*Photo, error) {
	var out []*Photo
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("photo_order ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	res := r.db.WithContext(ctx).
		Model(&Claim{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the claim together with its owned association and photo
// rows. Notifications referencing the claim are advisory and stay.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("claim_id = ?", id).Delete(&AffectedApartment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("claim_id = ?", id).Delete(&Photo{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Claim{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// mapDuplicateErr converts driver-level unique violations on the
// (claim, apartment) pair into the domain conflict error.
func mapDuplicateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateAffected
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateAffected
	}
	// sqlite reports unique violations as plain strings
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateAffected
	}
	return err
}
