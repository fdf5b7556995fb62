package directory

import "errors"

var (
	ErrBuildingNotFound  = errors.New("building not found")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrResidentNotFound  = errors.New("resident not found")
	ErrNotBuildingAdmin  = errors.New("caller is not an admin of this building")
	ErrAlreadyMember     = errors.New("resident already has an active membership in this building")
	ErrApartmentMismatch = errors.New("apartment does not belong to this building")
)
