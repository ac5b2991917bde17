package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Settings controls how the application logger is built.
type Settings struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

// DebugEnabled returns true if debug mode is enabled via TODO_DEBUG environment variable
func DebugEnabled() bool {
	return os.Getenv("TODO_DEBUG") != ""
}

// New builds a logrus logger. TODO_DEBUG forces debug level regardless of Settings.Level.
func New(s Settings) *logrus.Logger {
	logger := logrus.New()
	Configure(logger, s)
	return logger
}

// Configure applies s to an existing logger, so a logger handed out before
// the configuration was loaded picks it up.
func Configure(logger *logrus.Logger, s Settings) {
	out := s.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if strings.EqualFold(s.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetLevel(ParseLevel(s.Level))
	if DebugEnabled() {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// ParseLevel parses a level name, falling back to warn so CLI output stays quiet.
func ParseLevel(level string) logrus.Level {
	if level == "" {
		return logrus.WarnLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
