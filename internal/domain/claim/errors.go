package claim

import "errors"

var (
	// not found
	ErrNotFound          = errors.New("claim not found")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrReporterNotFound  = errors.New("reporter not found")

	// authorization
	ErrForbidden = errors.New("caller lacks permission for this claim")

	// validation
	ErrValidation    = errors.New("invalid claim payload")
	ErrInvalidStatus = errors.New("unknown claim status")
	ErrCrossBuilding = errors.New("affected apartment belongs to another building")

	// conflict
	ErrDuplicateAffected = errors.New("duplicate affected apartment")

	// upload
	ErrUpload = errors.New("photo upload failed")
)
