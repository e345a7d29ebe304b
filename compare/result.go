package compare

import (
	"fmt"

	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// Result is the outcome of comparing two tables. It is not modified after
// Compare returns.
type Result struct {
	LeftName  string
	RightName string
	LeftRows  int
	RightRows int

	Structure StructureReport
	// ExactMatch is only meaningful if Structure.Matches().
	ExactMatch bool
	// Delta is set if the tables are structurally identical, their values
	// differ and key columns were given.
	Delta *Delta
}

// Matches returns whether both tables are identical.
func (r *Result) Matches() bool {
	return r.Structure.Matches() && r.ExactMatch
}

// SameColumns returns whether both tables have the same column names.
func (r *Result) SameColumns() bool {
	return r.Structure.ColumnsMatch
}

// SameRowCount returns whether both tables have the same number of rows.
func (r *Result) SameRowCount() bool {
	return r.LeftRows == r.RightRows
}

// Compare compares two tables structurally and then, if their structure
// matches, by value. If key columns are given, both tables are ordered by the
// key before values are compared and a delta is computed when they differ.
//
// An *IncomparableTablesError from computing the delta is returned as is.
func Compare(left, right *table.Table, keyColumns []tree.Name, opts ...Opt) (*Result, error) {
	o := makeOpts(opts)
	left, right, err := o.filter(left, right, keyColumns)
	if err != nil {
		return nil, err
	}
	res, err := compareTables(left, right, keyColumns)
	if err != nil {
		comparisonsMetric.WithLabelValues("error").Inc()
		return nil, err
	}
	switch {
	case !res.Structure.Matches():
		comparisonsMetric.WithLabelValues("structure_mismatch").Inc()
	case !res.ExactMatch:
		comparisonsMetric.WithLabelValues("value_mismatch").Inc()
	default:
		comparisonsMetric.WithLabelValues("match").Inc()
	}
	if o.reporter != nil {
		res.Report(o.reporter)
	}
	return res, nil
}

func compareTables(left, right *table.Table, keyColumns []tree.Name) (*Result, error) {
	res := &Result{
		LeftName:  left.Name,
		RightName: right.Name,
		LeftRows:  left.NumRows(),
		RightRows: right.NumRows(),
		Structure: CompareStructure(left, right),
	}
	if !res.Structure.Matches() {
		return res, nil
	}
	if len(keyColumns) > 0 {
		if _, err := left.ColIndexes(keyColumns); err != nil {
			return nil, incomparable("key columns missing from a table", keyColumns...)
		}
		if _, err := right.ColIndexes(keyColumns); err != nil {
			return nil, incomparable("key columns missing from a table", keyColumns...)
		}
		left = sortByKeyColumns(left, keyColumns)
		right = sortByKeyColumns(right, keyColumns)
	}
	exact, err := CompareValues(left, right)
	if err != nil {
		return nil, err
	}
	res.ExactMatch = exact
	if !exact && len(keyColumns) > 0 {
		if res.Delta, err = computeDelta(left, right, keyColumns); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func sortByKeyColumns(t *table.Table, keyColumns []tree.Name) *table.Table {
	keyed := *t
	keyed.Key = keyColumns
	ret := keyed.SortByKey()
	ret.Key = t.Key
	return ret
}

// Report emits the structural differences and, if present, the delta to the
// given reporter.
func (r *Result) Report(reporter inconsistency.Reporter) {
	for _, info := range r.Structure.Info() {
		reporter.Report(inconsistency.MismatchingTableDefinition{
			Left:  r.LeftName,
			Right: r.RightName,
			Info:  info,
		})
	}
	if r.Delta != nil {
		r.Delta.Report(reporter)
		return
	}
	status := "tables match"
	switch {
	case !r.Structure.Matches():
		status = "tables are structurally different"
	case !r.ExactMatch:
		status = "table values differ"
	}
	reporter.Report(inconsistency.StatusReport{
		Info: fmt.Sprintf("finished comparing %s with %s: %s", r.LeftName, r.RightName, status),
	})
}
