package directory

import (
	"context"
	"database/sql"
	"time"
)

// Service handles directory business logic: buildings, apartments and
// membership assignment. Creating a building makes the creator its admin;
// assigning residents to apartments is admin-only.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateBuilding(ctx context.Context, creatorID int64, name, address, city string) (*Building, error) {
	b := &Building{
		Name:      name,
		Address:   address,
		City:      city,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateBuilding(ctx, b); err != nil {
		return nil, err
	}

	// The creator administers the building they registered.
	m := &Membership{
		ResidentID: creatorID,
		BuildingID: b.ID,
		Role:       RoleAdmin,
		IsActive:   true,
		JoinedAt:   time.Now(),
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetBuilding(ctx context.Context, id int64) (*Building, error) {
	return s.repo.GetBuilding(ctx, id)
}

func (s *Service) ListBuildings(ctx context.Context) ([]*Building, error) {
	return s.repo.ListBuildings(ctx)
}

func (s *Service) CreateApartment(ctx context.Context, callerID, buildingID int64, number string, floor int) (*Apartment, error) {
	if err := s.requireAdmin(ctx, callerID, buildingID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}

	a := &Apartment{
		BuildingID: buildingID,
		Number:     number,
		Floor:      floor,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateApartment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListApartments(ctx context.Context, buildingID int64) ([]*Apartment, error) {
	if _, err := s.repo.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}
	return s.repo.ListApartmentsByBuilding(ctx, buildingID)
}

// AssignResident gives a resident an active membership in a building,
// optionally tied to the apartment they occupy.
func (s *Service) AssignResident(ctx context.Context, callerID, buildingID, residentID int64, apartmentID *int64, role Role) (*Membership, error) {
	if err := s.requireAdmin(ctx, callerID, buildingID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetResident(ctx, residentID); err != nil {
		return nil, err
	}

	var aptRef sql.NullInt64
	if apartmentID != nil {
		apt, err := s.repo.GetApartment(ctx, *apartmentID)
		if err != nil {
			return nil, err
		}
		if apt.BuildingID != buildingID {
			return nil, ErrApartmentMismatch
		}
		aptRef = sql.NullInt64{Int64: apt.ID, Valid: true}
	}

	existing, err := s.repo.ActiveMemberships(ctx, residentID, buildingID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyMember
	}

	m := &Membership{
		ResidentID:  residentID,
		BuildingID:  buildingID,
		ApartmentID: aptRef,
		Role:        role,
		IsActive:    true,
		JoinedAt:    time.Now(),
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) MyMemberships(ctx context.Context, residentID int64) ([]*Membership, error) {
	return s.repo.MembershipsByResident(ctx, residentID)
}

func (s *Service) requireAdmin(ctx context.Context, residentID, buildingID int64) error {
	ok, err := s.repo.HasRole(ctx, residentID, buildingID, RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotBuildingAdmin
	}
	return nil
}
