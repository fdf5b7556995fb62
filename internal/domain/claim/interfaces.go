package claim

import (
	"context"
	"mime/multipart"

	"residence/internal/domain/directory"
)

// Directory is the slice of directory lookups the claim service needs.
// Satisfied by directory.Repository.
type Directory interface {
	GetApartment(ctx context.Context, id int64) (*directory.Apartment, error)
	GetBuilding(ctx context.Context, id int64) (*directory.Building, error)
	GetResident(ctx context.Context, id int64) (*directory.Resident, error)
	ActiveMemberships(ctx context.Context, residentID, buildingID int64) ([]*directory.Membership, error)
	AdminMemberships(ctx context.Context, buildingID int64) ([]*directory.Membership, error)
	ApartmentResidents(ctx context.Context, buildingID, apartmentID int64) ([]*directory.Membership, error)
	HasRole(ctx context.Context, residentID, buildingID int64, roles ...directory.Role) (bool, error)
}

// FileStore persists photo binaries and returns stable URLs.
// Satisfied by upload.Store.
type FileStore interface {
	Save(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, url string) error
}

// Notifier fans out claim events. Satisfied by notification.Service.
// Calls are best-effort: the claim service logs failures and moves on.
type Notifier interface {
	ClaimFiled(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error
	ApartmentAffected(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error
	ClaimStatusChanged(ctx context.Context, residentID, buildingID, claimID int64, status string) error
}
