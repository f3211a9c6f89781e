package domain

import (
	"fmt"
	"strings"
)

// StructuralError reports a node that violates traversal assumptions.
type StructuralError struct {
	Path   []string // keys from the root down to the offending node
	Reason string
}

func (e *StructuralError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("structural error at root: %s", e.Reason)
	}
	return fmt.Sprintf("structural error at %s: %s", strings.Join(e.Path, "/"), e.Reason)
}

// SanitizationError reports a markup fragment of a kind the sanitizer does not handle.
type SanitizationError struct {
	Kind string
}

func (e *SanitizationError) Error() string {
	return fmt.Sprintf("unsupported markup fragment kind %q", e.Kind)
}

// UnitError ties a failure to the input unit (file or URL) it came from.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("failed to process %s: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
