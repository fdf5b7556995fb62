package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository handles all DB operations for the directory domain.
type Repository interface {
	// Buildings
	CreateBuilding(ctx context.Context, b *Building) error
	GetBuilding(ctx context.Context, id int64) (*Building, error)
	ListBuildings(ctx context.Context) ([]*Building, error)

	// Apartments
	CreateApartment(ctx context.Context, a *Apartment) error
	GetApartment(ctx context.Context, id int64) (*Apartment, error)
	ListApartmentsByBuilding(ctx context.Context, buildingID int64) ([]*Apartment, error)

	// Residents
	CreateResident(ctx context.Context, r *Resident) error
	GetResident(ctx context.Context, id int64) (*Resident, error)
	GetResidentByEmail(ctx context.Context, email string) (*Resident, error)

	// Memberships
	CreateMembership(ctx context.Context, m *Membership) error
	ActiveMemberships(ctx context.Context, residentID, buildingID int64) ([]*Membership, error)
	MembershipsByResident(ctx context.Context, residentID int64) ([]*Membership, error)
	AdminMemberships(ctx context.Context, buildingID int64) ([]*Membership, error)
	ApartmentResidents(ctx context.Context, buildingID, apartmentID int64) ([]*Membership, error)
	HasRole(ctx context.Context, residentID, buildingID int64, roles ...Role) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBuilding(ctx context.Context, b *Building) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) GetBuilding(ctx context.Context, id int64) (*Building, error) {
	var b Building
	err := r.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBuildingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListBuildings(ctx context.Context) ([]*Building, error) {
	var out []*Building
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *repository) CreateApartment(ctx context.Context, a *Apartment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) GetApartment(ctx context.Context, id int64) (*Apartment, error) {
	var a Apartment
	err := r.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApartmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListApartmentsByBuilding(ctx context.Context, buildingID int64) ([]*Apartment, error) {
	var out []*Apartment
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("number").
		Find(&out).Error
	return out, err
}

func (r *repository) CreateResident(ctx context.Context, res *Resident) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *repository) GetResident(ctx context.Context, id int64) (*Resident, error) {
	var res Resident
	err := r.db.WithContext(ctx).First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResidentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) GetResidentByEmail(ctx context.Context, email string) (*Resident, error) {
	var res Resident
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResidentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) CreateMembership(ctx context.Context, m *Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) ActiveMemberships(ctx context.Context, residentID, buildingID int64) ([]*Membership, error) {
	var out []*Membership
	err := r.db.WithContext(ctx).
		Where("resident_id = ? AND building_id = ? AND is_active = ?", residentID, buildingID, true).
		Find(&out).Error
	return out, err
}

func (r *repository) MembershipsByResident(ctx context.Context, residentID int64) ([]*Membership, error) {
	var out []*Membership
	err := r.db.WithContext(ctx).
		Where("resident_id = ? AND is_active = ?", residentID, true).
		Find(&out).Error
	return out, err
}

func (r *repository) AdminMemberships(ctx context.Context, buildingID int64) ([]*Membership, error) {
	var out []*Membership
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND role = ? AND is_active = ?", buildingID, RoleAdmin, true).
		Find(&out).Error
	return out, err
}

func (r *repository) ApartmentResidents(ctx context.Context, buildingID, apartmentID int64) ([]*Membership, error) {
	var out []*Membership
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND apartment_id = ? AND is_active = ?", buildingID, apartmentID, true).
		Find(&out).Error
	return out, err
}

func (r *repository) HasRole(ctx context.Context, residentID, buildingID int64, roles ...Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Membership{}).
		Where("resident_id = ? AND building_id = ? AND role IN ? AND is_active = ?",
			residentID, buildingID, roles, true).
		Count(&count).Error
	return count > 0, err
}
