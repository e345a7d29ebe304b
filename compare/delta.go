package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blkbis/idxqc/comparectx"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

const (
	leftSuffix    = "_left"
	rightSuffix   = "_right"
	matchesSuffix = "_matches"

	MatchesAllColumn    = tree.Name("columns_matches_all")
	MatchesNumberColumn = tree.Name("columns_matches_number")
)

func LeftColumn(col tree.Name) tree.Name    { return col + leftSuffix }
func RightColumn(col tree.Name) tree.Name   { return col + rightSuffix }
func MatchesColumn(col tree.Name) tree.Name { return col + matchesSuffix }

// Side records which of the compared tables contain a row.
type Side int

const (
	Both Side = iota
	LeftOnly
	RightOnly
)

func (s Side) String() string {
	switch s {
	case Both:
		return "both"
	case LeftOnly:
		return "left_only"
	case RightOnly:
		return "right_only"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// DeltaRow is a single row of the outer join of two tables. Left, Right and
// Matches are aligned with Delta.Columns; values from an absent side are NULL.
type DeltaRow struct {
	Key        tree.Datums
	Side       Side
	Left       tree.Datums
	Right      tree.Datums
	Matches    []bool
	MatchCount int
	AllMatch   bool
}

// Delta is the keyed outer join of two tables.
type Delta struct {
	LeftName  string
	RightName string

	// KeyColumns are the columns the tables are joined on.
	KeyColumns []tree.Name
	// Columns are the compared columns in lexicographic order.
	Columns []tree.Name
	// Rows are ordered by key.
	Rows []DeltaRow

	// Table holds the key columns followed by every <col>_left, <col>_matches,
	// <col>_right, columns_matches_all and columns_matches_number column in
	// lexicographic order. Row i of Table corresponds to Rows[i].
	Table *table.Table
}

// ComputeDelta joins left and right on keyColumns and classifies each shared
// column of each row as matching or not.
//
// Both tables must have the same column names and types, the key must be
// non-empty and exist in both, and neither table may contain duplicate keys.
// Any violation returns an *IncomparableTablesError.
func ComputeDelta(left, right *table.Table, keyColumns []tree.Name, opts ...Opt) (*Delta, error) {
	o := makeOpts(opts)
	left, right, err := o.filter(left, right, keyColumns)
	if err != nil {
		return nil, err
	}
	return computeDelta(left, right, keyColumns)
}

func computeDelta(left, right *table.Table, keyColumns []tree.Name) (*Delta, error) {
	if err := checkComparable(left, right, keyColumns); err != nil {
		return nil, err
	}

	d := &Delta{
		LeftName:   left.Name,
		RightName:  right.Name,
		KeyColumns: append([]tree.Name(nil), keyColumns...),
	}
	isKey := make(map[tree.Name]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		isKey[k] = struct{}{}
	}
	for _, col := range left.Columns {
		if _, ok := isKey[col.Name]; !ok {
			d.Columns = append(d.Columns, col.Name)
		}
	}
	sortNames(d.Columns)

	leftKeyIdxs, err := left.ColIndexes(keyColumns)
	if err != nil {
		return nil, err
	}
	rightKeyIdxs, err := right.ColIndexes(keyColumns)
	if err != nil {
		return nil, err
	}
	leftColIdxs, err := left.ColIndexes(d.Columns)
	if err != nil {
		return nil, err
	}
	rightColIdxs, err := right.ColIndexes(d.Columns)
	if err != nil {
		return nil, err
	}

	pick := func(row tree.Datums, idxs []int) tree.Datums {
		ret := make(tree.Datums, len(idxs))
		for i, idx := range idxs {
			ret[i] = row[idx]
		}
		return ret
	}
	nulls := func() tree.Datums {
		ret := make(tree.Datums, len(d.Columns))
		for i := range ret {
			ret[i] = tree.DNull
		}
		return ret
	}
	addOneSided := func(side Side, key tree.Datums, vals tree.Datums) {
		row := DeltaRow{Key: key, Side: side, Matches: make([]bool, len(d.Columns))}
		if side == LeftOnly {
			row.Left, row.Right = vals, nulls()
		} else {
			row.Left, row.Right = nulls(), vals
		}
		d.Rows = append(d.Rows, row)
	}

	leftSorted := sortedByKey(left, keyColumns)
	rightSorted := sortedByKey(right, keyColumns)
	li, ri := 0, 0
	for li < len(leftSorted) || ri < len(rightSorted) {
		if ri == len(rightSorted) {
			leftRow := left.Rows[leftSorted[li]]
			addOneSided(LeftOnly, pick(leftRow, leftKeyIdxs), pick(leftRow, leftColIdxs))
			li++
			continue
		}
		if li == len(leftSorted) {
			rightRow := right.Rows[rightSorted[ri]]
			addOneSided(RightOnly, pick(rightRow, rightKeyIdxs), pick(rightRow, rightColIdxs))
			ri++
			continue
		}
		leftRow, rightRow := left.Rows[leftSorted[li]], right.Rows[rightSorted[ri]]
		leftKey, rightKey := pick(leftRow, leftKeyIdxs), pick(rightRow, rightKeyIdxs)
		switch c := comparectx.CompareDatums(leftKey, rightKey); {
		case c < 0:
			addOneSided(LeftOnly, leftKey, pick(leftRow, leftColIdxs))
			li++
		case c > 0:
			addOneSided(RightOnly, rightKey, pick(rightRow, rightColIdxs))
			ri++
		default:
			row := DeltaRow{
				Key:     leftKey,
				Side:    Both,
				Left:    pick(leftRow, leftColIdxs),
				Right:   pick(rightRow, rightColIdxs),
				Matches: make([]bool, len(d.Columns)),
			}
			row.AllMatch = true
			for i := range d.Columns {
				row.Matches[i] = comparectx.Equal(row.Left[i], row.Right[i])
				if row.Matches[i] {
					row.MatchCount++
				} else {
					row.AllMatch = false
				}
			}
			d.Rows = append(d.Rows, row)
			li++
			ri++
		}
	}

	if err := d.buildTable(left); err != nil {
		return nil, err
	}
	for _, row := range d.Rows {
		switch {
		case row.Side == LeftOnly:
			rowStatusMetric.WithLabelValues("missing").Inc()
		case row.Side == RightOnly:
			rowStatusMetric.WithLabelValues("extraneous").Inc()
		case !row.AllMatch:
			rowStatusMetric.WithLabelValues("mismatching").Inc()
		default:
			rowStatusMetric.WithLabelValues("success").Inc()
		}
	}
	return d, nil
}

func checkComparable(left, right *table.Table, keyColumns []tree.Name) error {
	if len(keyColumns) == 0 {
		return incomparable("no key columns given")
	}
	var missingKeys []tree.Name
	for _, k := range keyColumns {
		if left.ColIndex(k) == -1 || right.ColIndex(k) == -1 {
			missingKeys = append(missingKeys, k)
		}
	}
	if len(missingKeys) > 0 {
		return incomparable("key columns missing from a table", missingKeys...)
	}
	structure := CompareStructure(left, right)
	if !structure.ColumnsMatch {
		return incomparable(
			"column names differ",
			append(append([]tree.Name(nil), structure.LeftOnly...), structure.RightOnly...)...,
		)
	}
	if !structure.ColumnTypesMatch {
		var cols []tree.Name
		for _, m := range structure.TypeMismatches {
			cols = append(cols, m.Column)
		}
		return incomparable("column types differ", cols...)
	}
	for _, t := range []*table.Table{left, right} {
		keyed := *t
		keyed.Key = keyColumns
		if dups := keyed.DuplicateKeys(); len(dups) > 0 {
			return incomparable(
				fmt.Sprintf("table %s has %d duplicate key values", t.Name, len(dups)),
				keyColumns...,
			)
		}
	}
	return nil
}

func sortedByKey(t *table.Table, keyColumns []tree.Name) []int {
	keyed := *t
	keyed.Key = keyColumns
	return keyed.SortedRowIdxs()
}

func (d *Delta) buildTable(left *table.Table) error {
	typeOf := make(map[tree.Name]*types.T, len(left.Columns))
	for _, col := range left.Columns {
		typeOf[col.Name] = col.Type
	}

	type outCol struct {
		col   table.Column
		value func(row DeltaRow) tree.Datum
	}
	var outCols []outCol
	for i := range d.Columns {
		i := i
		name := d.Columns[i]
		outCols = append(
			outCols,
			outCol{
				col:   table.Column{Name: LeftColumn(name), Type: typeOf[name]},
				value: func(row DeltaRow) tree.Datum { return row.Left[i] },
			},
			outCol{
				col:   table.Column{Name: MatchesColumn(name), Type: types.Bool},
				value: func(row DeltaRow) tree.Datum { return tree.MakeDBool(tree.DBool(row.Matches[i])) },
			},
			outCol{
				col:   table.Column{Name: RightColumn(name), Type: typeOf[name]},
				value: func(row DeltaRow) tree.Datum { return row.Right[i] },
			},
		)
	}
	outCols = append(
		outCols,
		outCol{
			col:   table.Column{Name: MatchesAllColumn, Type: types.Bool},
			value: func(row DeltaRow) tree.Datum { return tree.MakeDBool(tree.DBool(row.AllMatch)) },
		},
		outCol{
			col:   table.Column{Name: MatchesNumberColumn, Type: types.Int},
			value: func(row DeltaRow) tree.Datum { return tree.NewDInt(tree.DInt(row.MatchCount)) },
		},
	)
	sort.SliceStable(outCols, func(i, j int) bool {
		return outCols[i].col.Name < outCols[j].col.Name
	})

	t := table.New(fmt.Sprintf("delta(%s, %s)", d.LeftName, d.RightName))
	for _, k := range d.KeyColumns {
		t.Columns = append(t.Columns, table.Column{Name: k, Type: typeOf[k]})
	}
	seen := make(map[tree.Name]struct{}, len(t.Columns)+len(outCols))
	for _, c := range t.Columns {
		seen[c.Name] = struct{}{}
	}
	for _, c := range outCols {
		if _, ok := seen[c.col.Name]; ok {
			return incomparable("delta column name collides with an existing column", c.col.Name)
		}
		seen[c.col.Name] = struct{}{}
		t.Columns = append(t.Columns, c.col)
	}

	for _, row := range d.Rows {
		vals := make(tree.Datums, 0, len(t.Columns))
		vals = append(vals, row.Key...)
		for _, c := range outCols {
			vals = append(vals, c.value(row))
		}
		if err := t.AppendRow(vals...); err != nil {
			return errors.Wrap(err, "error building delta table")
		}
	}
	if err := t.SetKey(d.KeyColumns...); err != nil {
		return err
	}
	d.Table = t
	return nil
}

// MismatchingRowIdxs returns the positions of rows which do not fully match.
func (d *Delta) MismatchingRowIdxs() []int {
	var ret []int
	for i, row := range d.Rows {
		if !row.AllMatch {
			ret = append(ret, i)
		}
	}
	return ret
}

// MismatchingKeys returns the keys of rows which do not fully match.
func (d *Delta) MismatchingKeys() []tree.Datums {
	var ret []tree.Datums
	for _, row := range d.Rows {
		if !row.AllMatch {
			ret = append(ret, row.Key)
		}
	}
	return ret
}

// Mismatches returns the rows of the delta table which do not fully match.
func (d *Delta) Mismatches() *table.Table {
	return d.Table.Select(d.MismatchingRowIdxs())
}

type DeltaSummary struct {
	LeftRows    int
	RightRows   int
	BothRows    int
	LeftOnly    int
	RightOnly   int
	Mismatching int

	ColumnMismatches map[tree.Name]int
}

func (s DeltaSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(
		&sb,
		"left rows: %d, right rows: %d, matched keys: %d, left only: %d, right only: %d, mismatching: %d",
		s.LeftRows,
		s.RightRows,
		s.BothRows,
		s.LeftOnly,
		s.RightOnly,
		s.Mismatching,
	)
	cols := make([]tree.Name, 0, len(s.ColumnMismatches))
	for col := range s.ColumnMismatches {
		cols = append(cols, col)
	}
	sortNames(cols)
	for _, col := range cols {
		fmt.Fprintf(&sb, ", %s mismatches: %d", col, s.ColumnMismatches[col])
	}
	return sb.String()
}

func (d *Delta) Summary() DeltaSummary {
	s := DeltaSummary{ColumnMismatches: make(map[tree.Name]int)}
	for _, row := range d.Rows {
		switch row.Side {
		case Both:
			s.LeftRows++
			s.RightRows++
			s.BothRows++
			if !row.AllMatch {
				s.Mismatching++
				for i, m := range row.Matches {
					if !m {
						s.ColumnMismatches[d.Columns[i]]++
					}
				}
			}
		case LeftOnly:
			s.LeftRows++
			s.LeftOnly++
		case RightOnly:
			s.RightRows++
			s.RightOnly++
		}
	}
	return s
}

// Report emits every row which does not fully match to the reporter.
func (d *Delta) Report(reporter inconsistency.Reporter) {
	for _, row := range d.Rows {
		switch row.Side {
		case LeftOnly:
			reporter.Report(inconsistency.MissingRow{
				Table:      d.RightName,
				KeyColumns: d.KeyColumns,
				KeyValues:  row.Key,
				Columns:    d.Columns,
				Values:     row.Left,
			})
		case RightOnly:
			reporter.Report(inconsistency.ExtraneousRow{
				Table:      d.RightName,
				KeyColumns: d.KeyColumns,
				KeyValues:  row.Key,
				Columns:    d.Columns,
				Values:     row.Right,
			})
		case Both:
			if row.AllMatch {
				continue
			}
			mismatch := inconsistency.MismatchingRow{
				Table:      d.RightName,
				KeyColumns: d.KeyColumns,
				KeyValues:  row.Key,
			}
			for i, m := range row.Matches {
				if !m {
					mismatch.MismatchingColumns = append(mismatch.MismatchingColumns, d.Columns[i])
					mismatch.LeftVals = append(mismatch.LeftVals, row.Left[i])
					mismatch.RightVals = append(mismatch.RightVals, row.Right[i])
				}
			}
			reporter.Report(mismatch)
		}
	}
	reporter.Report(inconsistency.StatusReport{
		Info: fmt.Sprintf("finished comparing %s with %s: %s", d.LeftName, d.RightName, d.Summary()),
	})
}
