package claim

import (
	"fmt"
	"time"

	"residence/internal/pkg/utils"
)

// Status is the claim lifecycle enumeration. Updates arrive as free-form
// strings and must parse into this set; anything else is rejected.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusClosed   Status = "CLOSED"
)

// ParseStatus validates a caller-supplied status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected, StatusClosed:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Claim is a resident-filed incident report tied to one apartment.
// BuildingID is denormalized from the apartment for query efficiency and
// must always agree with it.
type Claim struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	ApartmentID int64  `gorm:"column:apartment_id;index" json:"apartment_id"`
	BuildingID  int64  `gorm:"column:building_id;index" json:"building_id"`
	ReporterID  int64  `gorm:"column:reporter_id;index" json:"reporter_id"`
	ClaimTypes  string `gorm:"column:claim_types" json:"-"` // JSON-encoded []string
	Cause       string `gorm:"column:cause" json:"cause"`
	Description string `gorm:"column:description" json:"description"`

	InsuranceCompany      string `gorm:"column:insurance_company" json:"insurance_company,omitempty"`
	InsurancePolicyNumber string `gorm:"column:insurance_policy_number" json:"insurance_policy_number,omitempty"`

	Status    Status    `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Claim) TableName() string { return "claims" }

func (c *Claim) Types() []string         { return utils.StringToTags(c.ClaimTypes) }
func (c *Claim) SetTypes(types []string) { c.ClaimTypes = utils.TagsToString(types) }

// AffectedApartment links a claim to an additional impacted apartment in
// the same building. The pair is unique; the list is fixed at creation.
type AffectedApartment struct {
	ID          int64 `gorm:"column:id;primaryKey" json:"id"`
	ClaimID     int64 `gorm:"column:claim_id;uniqueIndex:idx_claim_affected_pair" json:"claim_id"`
	ApartmentID int64 `gorm:"column:apartment_id;uniqueIndex:idx_claim_affected_pair" json:"apartment_id"`
}

func (AffectedApartment) TableName() string { return "claim_affected_apartments" }

// Photo is an attached photo reference. PhotoOrder is zero-based and
// contiguous per claim at creation time; photos are never reordered.
type Photo struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"id"`
	ClaimID    int64     `gorm:"column:claim_id;index" json:"claim_id"`
	URL        string    `gorm:"column:url" json:"url"`
	PhotoOrder int       `gorm:"column:photo_order" json:"photo_order"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Photo) TableName() string { return "claim_photos" }
