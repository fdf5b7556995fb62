package claim

import "time"

// CreateClaimRequest arrives as the claim_data part of a multipart form
// (photos travel alongside as file parts) or as a plain JSON body.
type CreateClaimRequest struct {
	ApartmentID           int64    `json:"apartment_id" validate:"required"`
	ClaimTypes            []string `json:"claim_types" validate:"required,min=1,dive,required"`
	Cause                 string   `json:"cause" validate:"required"`
	Description           string   `json:"description"`
	InsuranceCompany      string   `json:"insurance_company"`
	InsurancePolicyNumber string   `json:"insurance_policy_number"`
	AffectedApartmentIDs  []int64  `json:"affected_apartment_ids"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PhotoResponse is one attached photo with its resolved URL.
type PhotoResponse struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	PhotoOrder int       `json:"photo_order"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClaimResponse is the claim view with derived directory fields.
type ClaimResponse struct {
	ID              int64  `json:"id"`
	ApartmentID     int64  `json:"apartment_id"`
	ApartmentNumber string `json:"apartment_number"`
	BuildingID      int64  `json:"building_id"`
	BuildingName    string `json:"building_name"`
	ReporterID      int64  `json:"reporter_id"`
	ReporterName    string `json:"reporter_name"`
	ReporterAvatar  string `json:"reporter_avatar,omitempty"`

	ClaimTypes            []string `json:"claim_types"`
	Cause                 string   `json:"cause"`
	Description           string   `json:"description"`
	InsuranceCompany      string   `json:"insurance_company,omitempty"`
	InsurancePolicyNumber string   `json:"insurance_policy_number,omitempty"`

	Status               string           `json:"status"`
	AffectedApartmentIDs []int64          `json:"affected_apartment_ids"`
	Photos               []*PhotoResponse `json:"photos"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
