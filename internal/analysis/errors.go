package analysis

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is matched by every *SchemaMismatchError via errors.Is.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a mapped column that is absent from the table, or a
// value that is not numeric where numeric semantics were required.
type SchemaMismatchError struct {
	Role   Role
	Column string
	// Row is the 0-based row index of the offending value, or -1 when the
	// whole column is the problem.
	Row    int
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e == nil {
		return ErrSchemaMismatch.Error()
	}
	where := fmt.Sprintf("column %q", e.Column)
	if e.Role != "" {
		where = fmt.Sprintf("%s (%s)", where, e.Role)
	}
	if e.Row >= 0 {
		return fmt.Sprintf("schema mismatch: %s row %d: %s", where, e.Row, e.Reason)
	}
	return fmt.Sprintf("schema mismatch: %s: %s", where, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

func missingColumn(role Role, col string) *SchemaMismatchError {
	return &SchemaMismatchError{Role: role, Column: col, Row: -1, Reason: "column not present in table"}
}
