package schema

import (
	"sort"

	"catalog/consolidator/internal/domain"
)

// Columns returns the sorted union of keys across records.
func Columns(records []domain.Record) []string {
	union := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			union[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(union))
	for key := range union {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// Unify returns records whose key sets all equal the union of the input key
// sets. Missing keys are set to nil and reported to warnings. Records that
// already carry every key are returned as is; the others are copied.
func Unify(records []domain.Record, warnings *WarningCollector) []domain.Record {
	columns := Columns(records)

	unified := make([]domain.Record, len(records))
	for i, record := range records {
		if len(record) == len(columns) {
			unified[i] = record
			continue
		}

		filled := record.Clone()
		for _, key := range columns {
			if _, ok := record[key]; ok {
				continue
			}
			if warnings != nil {
				warnings.Missing(key, record.ID())
			}
			filled[key] = nil
		}
		unified[i] = filled
	}

	return unified
}
