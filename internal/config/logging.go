package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the log section to the standard logrus logger.
func ConfigureLogging(cfg LogConfig) error {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000",
	})

	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	log.SetLevel(level)
	log.Infof("Logging with level %s", level)
	return nil
}
