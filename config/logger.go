package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the process-wide logrus logger. JSON output keeps
// pipeline logs machine-readable; LOG_LEVEL overrides the default.
func InitLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level := logrus.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	logrus.SetLevel(level)
}
