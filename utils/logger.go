package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide structured logger.
var Logger = logrus.New()

// InitLogger configures the level and format. Production logs are JSON.
func InitLogger(level string, production bool) *logrus.Logger {
	Logger.SetOutput(os.Stdout)

	if production {
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		Logger.WithField("level", level).Warn("Unknown log level, using info")
	}
	Logger.SetLevel(parsed)

	return Logger
}
