package compare

import (
	"github.com/blkbis/idxqc/comparectx"
	"github.com/blkbis/idxqc/table"
)

// CompareValues returns whether every cell of left equals the cell at the same
// position in right. Two NULLs are equal. Tables which are not structurally
// identical cannot be compared and return a *StructuralMismatchError.
func CompareValues(left, right *table.Table) (bool, error) {
	structure := CompareStructure(left, right)
	if !structure.Matches() {
		return false, &StructuralMismatchError{Structure: structure}
	}
	if left.NumRows() != right.NumRows() {
		return false, nil
	}
	return all(cellMatches(left, right)), nil
}

// cellMatches compares two structurally identical tables of equal length cell
// by cell.
func cellMatches(left, right *table.Table) [][]bool {
	ret := make([][]bool, len(left.Rows))
	for i := range left.Rows {
		ret[i] = make([]bool, len(left.Columns))
		for j := range left.Columns {
			ret[i][j] = comparectx.Equal(left.Rows[i][j], right.Rows[i][j])
		}
	}
	return ret
}

func all(matches [][]bool) bool {
	for _, row := range matches {
		for _, m := range row {
			if !m {
				return false
			}
		}
	}
	return true
}
