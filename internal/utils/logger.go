package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the process-wide logrus logger from the
// environment. LOG_LEVEL defaults to info, LOG_FORMAT=json switches to
// structured output.
func SetupLogger() {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if os.Getenv("LOG_FORMAT") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
