package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // registers the CGO-free "sqlite" driver

	"residence/internal/domain/call"
	"residence/internal/domain/chat"
	"residence/internal/domain/claim"
	"residence/internal/domain/directory"
	"residence/internal/domain/notification"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates/updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&directory.Building{},
		&directory.Apartment{},
		&directory.Resident{},
		&directory.Membership{},
		&claim.Claim{},
		&claim.AffectedApartment{},
		&claim.Photo{},
		&notification.Notification{},
		&chat.Channel{},
		&chat.ChannelMember{},
		&chat.Message{},
		&call.Call{},
	)
}
