package flatten

import (
	"catalog/consolidator/internal/domain"
)

// Separator joins ancestor keys into a flat key.
const Separator = "_"

// Record maps a record to a single level: nested objects are expanded into
// prefixed keys, everything else (lists included) is copied as is.
// Keys are visited in sorted order, so when two paths join to the same key
// the one visited last wins.
func Record(record domain.Record) domain.Record {
	return WithPrefix(record, "")
}

// WithPrefix flattens fields, prepending prefix to every emitted key.
func WithPrefix(fields map[string]any, prefix string) domain.Record {
	out := make(domain.Record, len(fields))
	flattenInto(out, fields, prefix)
	return out
}

// Records flattens each record independently.
func Records(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, record := range records {
		out[i] = Record(record)
	}
	return out
}

func flattenInto(out domain.Record, fields map[string]any, prefix string) {
	for _, key := range domain.Record(fields).Keys() {
		switch nested := fields[key].(type) {
		case map[string]any:
			flattenInto(out, nested, prefix+key+Separator)
		case domain.Record:
			flattenInto(out, nested, prefix+key+Separator)
		default:
			out[prefix+key] = nested
		}
	}
}
