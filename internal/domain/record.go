package domain

import (
	"sort"
)

const (
	FieldID               = "id"
	FieldCategoryID       = "category_id"
	FieldShortDescription = "shortDescription"
)

// CategoryID is an underscore-joined path of hierarchy codes, e.g. 976759_976794_7981173.
type CategoryID string

func (c CategoryID) String() string {
	return string(c)
}

// Record is a product after traversal. A nil value is the null sentinel
// used to fill keys a record did not carry.
type Record map[string]any

// ID returns the product identifier as found in the input tree.
func (r Record) ID() any {
	return r[FieldID]
}

// Clone returns a shallow copy; nested values are shared and must not be mutated.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for k, v := range r {
		clone[k] = v
	}
	return clone
}

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dataset is the terminal output of a pipeline run.
type Dataset struct {
	RunID   string   `json:"run_id"`
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}
