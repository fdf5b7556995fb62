package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"residence/internal/database"
	"residence/internal/domain/claim"
	"residence/internal/domain/directory"
	"residence/internal/domain/notification"
)

// Seeds a local database with one building, a handful of residents and
// a sample claim. Intended for development only.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "residence.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM claim_photos")
	db.Exec("DELETE FROM claim_affected_apartments")
	db.Exec("DELETE FROM claims")
	db.Exec("DELETE FROM messages")
	db.Exec("DELETE FROM channel_members")
	db.Exec("DELETE FROM channels")
	db.Exec("DELETE FROM calls")
	db.Exec("DELETE FROM memberships")
	db.Exec("DELETE FROM apartments")
	db.Exec("DELETE FROM buildings")
	db.Exec("DELETE FROM residents")

	log.Println("Creating building...")
	building := directory.Building{
		Name:    "Jasmine Residence",
		Address: "12 Garden Street",
		City:    "Almaty",
	}
	db.Create(&building)

	log.Println("Creating apartments...")
	apartments := make([]directory.Apartment, 0, 12)
	for floor := 1; floor <= 4; floor++ {
		for unit := 1; unit <= 3; unit++ {
			a := directory.Apartment{
				BuildingID: building.ID,
				Number:     fmt.Sprintf("%d0%d", floor, unit),
				Floor:      floor,
			}
			db.Create(&a)
			apartments = append(apartments, a)
		}
	}

	log.Println("Creating residents...")
	type seedResident struct {
		email     string
		first     string
		last      string
		role      directory.Role
		apartment *directory.Apartment
	}
	seeds := []seedResident{
		{"admin@jasmine.kz", "Aigerim", "Admin", directory.RoleAdmin, nil},
		{"manager@jasmine.kz", "Marat", "Manager", directory.RoleManager, nil},
		{"amir@mail.kz", "Amir", "Akhmetov", directory.RoleResident, &apartments[0]},
		{"siamak@mail.kz", "Siamak", "Noor", directory.RoleResident, &apartments[1]},
		{"moatez@mail.kz", "Moatez", "Haddad", directory.RoleResident, &apartments[2]},
	}

	residents := make([]directory.Resident, 0, len(seeds))
	for _, s := range seeds {
		hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		r := directory.Resident{
			Email:        s.email,
			PasswordHash: string(hash),
			FirstName:    s.first,
			LastName:     s.last,
		}
		db.Create(&r)
		residents = append(residents, r)

		m := directory.Membership{
			ResidentID: r.ID,
			BuildingID: building.ID,
			Role:       s.role,
			IsActive:   true,
			JoinedAt:   time.Now(),
		}
		if s.apartment != nil {
			m.ApartmentID = sql.NullInt64{Int64: s.apartment.ID, Valid: true}
		}
		db.Create(&m)
	}

	log.Println("Creating sample claim...")
	c := claim.Claim{
		ApartmentID: apartments[0].ID,
		BuildingID:  building.ID,
		ReporterID:  residents[2].ID,
		Cause:       "Burst pipe in the bathroom",
		Description: "Water leaked through the ceiling into the apartment below.",
		Status:      claim.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	c.SetTypes([]string{"WATER_DAMAGE"})
	db.Create(&c)
	db.Create(&claim.AffectedApartment{ClaimID: c.ID, ApartmentID: apartments[1].ID})

	db.Create(&notification.Notification{
		ResidentID: residents[0].ID,
		BuildingID: building.ID,
		Type:       notification.TypeClaimNew,
		Title:      "New claim",
		Body:       "A new claim was filed for apartment 101",
		RelatedID:  sql.NullInt64{Int64: c.ID, Valid: true},
		CreatedAt:  time.Now(),
	})

	log.Println("Seed completed.")
	log.Println("Accounts (password: password123):")
	for _, s := range seeds {
		log.Printf("  %s (%s)", s.email, s.role)
	}
}
