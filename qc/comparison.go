package qc

import (
	"context"
	"strings"

	"github.com/blkbis/idxqc/compare"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// ComparisonCheck succeeds if two tables are identical. With key columns, the
// exceptions are the mismatching rows of their delta.
type ComparisonCheck struct {
	checkBase
	keyColumns   []tree.Name
	columnFilter compare.FilterString
	last         *compare.Result
}

var _ Check = (*ComparisonCheck)(nil)

func NewComparisonCheck(
	cfg Config, keyColumns []tree.Name, columnFilter compare.FilterString,
) (*ComparisonCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if columnFilter != "" {
		if _, err := compare.CompileColumnFilter(columnFilter); err != nil {
			return nil, configErrorf(cfg.ID, "%v", err)
		}
	}
	return &ComparisonCheck{
		checkBase:    b,
		keyColumns:   append([]tree.Name(nil), keyColumns...),
		columnFilter: columnFilter,
	}, nil
}

func (c *ComparisonCheck) Kind() Kind { return KindComparison }
func (c *ComparisonCheck) Arity() int { return 2 }

// Comparison returns the result of the last run, if any.
func (c *ComparisonCheck) Comparison() *compare.Result {
	return c.last
}

func (c *ComparisonCheck) Reset() {
	c.checkBase.Reset()
	c.last = nil
}

func (c *ComparisonCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		var opts []compare.Opt
		if c.columnFilter != "" {
			opts = append(opts, compare.WithColumnFilter(c.columnFilter))
		}
		res, err := compare.Compare(tables[0], tables[1], c.keyColumns, opts...)
		if err != nil {
			return false, Exceptions{}, err
		}
		c.last = res
		switch {
		case !res.Structure.Matches():
			return false, Exceptions{Info: strings.Join(res.Structure.Info(), "; ")}, nil
		case res.ExactMatch:
			return true, Exceptions{}, nil
		case res.Delta != nil:
			return false, Exceptions{
				Table: res.Delta.Mismatches(),
				Info:  res.Delta.Summary().String(),
			}, nil
		}
		return false, Exceptions{Info: "table values differ"}, nil
	})
}

func (c *ComparisonCheck) spec() checkSpec {
	return checkSpec{
		Kind:         KindComparison,
		Key:          namesToStrings(c.keyColumns),
		ColumnFilter: c.columnFilter,
	}
}
