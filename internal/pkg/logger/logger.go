package logger

import (
	"os"

	"go.uber.org/zap"
)

// Init builds the process-wide zap logger. Production JSON encoding by
// default, human-readable console output when APP_ENV=dev.
func Init() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
