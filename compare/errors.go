package compare

import (
	"fmt"
	"strings"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// StructuralMismatchError is returned when a value comparison is attempted on
// tables whose columns or column types do not line up.
type StructuralMismatchError struct {
	Structure StructureReport
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("tables are structurally different: %s", strings.Join(e.Structure.Info(), "; "))
}

// IncomparableTablesError is returned when a delta cannot be computed between
// two tables. Columns names the offending columns, if any.
type IncomparableTablesError struct {
	Reason  string
	Columns []tree.Name
}

func (e *IncomparableTablesError) Error() string {
	if len(e.Columns) == 0 {
		return fmt.Sprintf("tables cannot be compared: %s", e.Reason)
	}
	return fmt.Sprintf("tables cannot be compared: %s (columns: %s)", e.Reason, table.JoinNames(e.Columns))
}

func incomparable(reason string, cols ...tree.Name) *IncomparableTablesError {
	return &IncomparableTablesError{Reason: reason, Columns: cols}
}
