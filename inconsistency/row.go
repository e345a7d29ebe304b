package inconsistency

import "github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"

type ReportableObject interface{}

// MissingRow is a row present on the left side of a comparison but absent
// from the right.
type MissingRow struct {
	Table string

	KeyColumns []tree.Name
	KeyValues  tree.Datums

	Columns []tree.Name
	Values  tree.Datums
}

// ExtraneousRow is a row present on the right side of a comparison but absent
// from the left.
type ExtraneousRow struct {
	Table string

	KeyColumns []tree.Name
	KeyValues  tree.Datums

	Columns []tree.Name
	Values  tree.Datums
}

type MismatchingRow struct {
	Table string

	KeyColumns []tree.Name
	KeyValues  tree.Datums

	MismatchingColumns []tree.Name
	LeftVals           tree.Datums
	RightVals          tree.Datums
}
