package schema

import (
	"github.com/sirupsen/logrus"
)

// Warning records the first record found missing a given key.
type Warning struct {
	Key      string `json:"key"`
	RecordID any    `json:"record_id"`
}

// WarningCollector deduplicates missing-key warnings by key name for the
// lifetime of one pipeline run. It is not safe for concurrent use.
type WarningCollector struct {
	logger   logrus.FieldLogger
	seen     map[string]struct{}
	warnings []Warning
	filled   int
}

func NewWarningCollector(logger logrus.FieldLogger) *WarningCollector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WarningCollector{
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Missing notes that key was null-filled in the record identified by recordID.
// Only the first occurrence of each key name is logged.
func (c *WarningCollector) Missing(key string, recordID any) {
	c.filled++
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.warnings = append(c.warnings, Warning{Key: key, RecordID: recordID})
	c.logger.Warnf("Key %s is missing in %v", key, recordID)
}

// Warnings returns the distinct warnings in the order they were first raised.
func (c *WarningCollector) Warnings() []Warning {
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Filled returns how many (record, key) pairs were null-filled.
func (c *WarningCollector) Filled() int {
	return c.filled
}
