package directory

import (
	"database/sql"
	"time"
)

// Role of a resident inside one building. Authorization is always
// per-building: the same person can be an admin in one building and an
// ordinary resident in another.
type Role string

const (
	RoleResident Role = "resident"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Building is one managed property.
type Building struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Address   string    `gorm:"column:address" json:"address"`
	City      string    `gorm:"column:city" json:"city"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Building) TableName() string { return "buildings" }

// Apartment is a unit inside a building.
type Apartment struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"id"`
	BuildingID int64     `gorm:"column:building_id;index" json:"building_id"`
	Number     string    `gorm:"column:number" json:"number"`
	Floor      int       `gorm:"column:floor" json:"floor"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Apartment) TableName() string { return "apartments" }

// Resident is an account holder.
type Resident struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	LastName     string    `gorm:"column:last_name" json:"last_name"`
	Phone        string    `gorm:"column:phone" json:"phone,omitempty"`
	AvatarURL    string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Resident) TableName() string { return "residents" }

func (r *Resident) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Membership links a resident to a building, optionally to the apartment
// they occupy, with a per-building role. Deactivated memberships are kept
// for history but never grant access.
type Membership struct {
	ID          int64         `gorm:"column:id;primaryKey" json:"id"`
	ResidentID  int64         `gorm:"column:resident_id;index:idx_memberships_resident_building" json:"resident_id"`
	BuildingID  int64         `gorm:"column:building_id;index:idx_memberships_resident_building" json:"building_id"`
	ApartmentID sql.NullInt64 `gorm:"column:apartment_id" json:"apartment_id,omitempty"`
	Role        Role          `gorm:"column:role" json:"role"`
	IsActive    bool          `gorm:"column:is_active" json:"is_active"`
	JoinedAt    time.Time     `gorm:"column:joined_at" json:"joined_at"`
}

func (Membership) TableName() string { return "memberships" }

func (m *Membership) OccupiesApartment(apartmentID int64) bool {
	return m.ApartmentID.Valid && m.ApartmentID.Int64 == apartmentID
}
