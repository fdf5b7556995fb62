package main

import (
	"log"
	"os"
	"time"

	"residence/internal/database"
)

// Retention job, meant to run from cron. Read notifications older than
// 90 days carry no information the clients still need.
func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	res := db.Exec(`DELETE FROM notifications WHERE is_read = ? AND created_at < ?`,
		true, ninetyDaysAgo())
	if res.Error != nil {
		log.Fatalf("cleanup notifications failed: %v", res.Error)
	}

	log.Printf("notification cleanup completed: removed=%d", res.RowsAffected)
}

func ninetyDaysAgo() time.Time {
	return time.Now().AddDate(0, 0, -90)
}
