package compare

import (
	"fmt"
	"sort"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
)

type TypeMismatch struct {
	Column tree.Name
	Left   *types.T
	Right  *types.T
}

// StructureReport describes how the columns of two tables line up.
type StructureReport struct {
	// ColumnsMatch is set if both tables have the same set of column names.
	ColumnsMatch bool
	// ColumnOrderMatch is set if the column names also appear in the same
	// order. It is never set without ColumnsMatch.
	ColumnOrderMatch bool
	// ColumnTypesMatch is set if every column has the same declared type on
	// both sides. It is never set without ColumnsMatch.
	ColumnTypesMatch bool

	LeftOnly       []tree.Name
	RightOnly      []tree.Name
	TypeMismatches []TypeMismatch

	leftOrder  []tree.Name
	rightOrder []tree.Name
}

// Matches returns whether the two tables are structurally identical.
func (r StructureReport) Matches() bool {
	return r.ColumnsMatch && r.ColumnOrderMatch && r.ColumnTypesMatch
}

// Info returns a human readable line per structural difference.
func (r StructureReport) Info() []string {
	var ret []string
	for _, col := range r.LeftOnly {
		ret = append(ret, fmt.Sprintf("missing column %s", col))
	}
	for _, col := range r.RightOnly {
		ret = append(ret, fmt.Sprintf("extraneous column %s found", col))
	}
	if r.ColumnsMatch && !r.ColumnOrderMatch {
		ret = append(
			ret,
			fmt.Sprintf(
				"column order mismatch: left=(%s) vs right=(%s)",
				table.JoinNames(r.leftOrder),
				table.JoinNames(r.rightOrder),
			),
		)
	}
	for _, m := range r.TypeMismatches {
		ret = append(
			ret,
			fmt.Sprintf(
				"column type mismatch on %s: left=%s vs right=%s",
				m.Column,
				table.TypeName(m.Left),
				table.TypeName(m.Right),
			),
		)
	}
	return ret
}

// CompareStructure compares the columns of two tables. It never fails; all
// differences are described by the returned report.
func CompareStructure(left, right *table.Table) StructureReport {
	ret := StructureReport{
		leftOrder:  left.ColumnNames(),
		rightOrder: right.ColumnNames(),
	}
	rightCols := make(map[tree.Name]table.Column, len(right.Columns))
	for _, col := range right.Columns {
		rightCols[col.Name] = col
	}
	for _, leftCol := range left.Columns {
		rightCol, ok := rightCols[leftCol.Name]
		if !ok {
			ret.LeftOnly = append(ret.LeftOnly, leftCol.Name)
			continue
		}
		delete(rightCols, leftCol.Name)
		if !comparableType(leftCol.Type, rightCol.Type) {
			ret.TypeMismatches = append(ret.TypeMismatches, TypeMismatch{
				Column: leftCol.Name,
				Left:   leftCol.Type,
				Right:  rightCol.Type,
			})
		}
	}
	for name := range rightCols {
		ret.RightOnly = append(ret.RightOnly, name)
	}
	sortNames(ret.LeftOnly)
	sortNames(ret.RightOnly)

	ret.ColumnsMatch = len(ret.LeftOnly) == 0 && len(ret.RightOnly) == 0
	ret.ColumnOrderMatch = ret.ColumnsMatch && table.SameColumnNames(ret.leftOrder, ret.rightOrder)
	ret.ColumnTypesMatch = ret.ColumnsMatch && len(ret.TypeMismatches) == 0
	return ret
}

func comparableType(a, b *types.T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equivalent(b)
}

func sortNames(names []tree.Name) {
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
}
