package logger

import (
	"os"

	"go.uber.org/zap"
)

// Init builds the process-wide zap logger and installs it as the global.
// APP_ENV=development switches to the human-readable console encoder.
func Init() *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if os.Getenv("APP_ENV") == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	return log
}
