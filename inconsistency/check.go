package inconsistency

import "github.com/blkbis/idxqc/table"

// CheckFailure is emitted whenever a quality check does not pass, whether or
// not the failure is escalated to the caller.
type CheckFailure struct {
	CheckID     string
	Kind        string
	Description string
	Strict      bool

	// Offending rows, offending column names or a free form message.
	Rows    *table.Table
	Columns []string
	Info    string
}

// HasRows returns whether the failure carries a tabular payload.
func (c CheckFailure) HasRows() bool {
	return c.Rows != nil
}
