package qc

import (
	"context"
	"fmt"

	"github.com/blkbis/idxqc/filters"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// ValueCheck succeeds if a predicate holds for every value of the given
// columns. The predicate is either a function or the name of a registered
// filter, never both.
type ValueCheck struct {
	checkBase
	columns    []tree.Name
	filterName string
	predicate  filters.Func
	// needsPredicate is set on checks restored from a blob whose predicate was
	// a function, which cannot be persisted.
	needsPredicate bool
}

var _ Check = (*ValueCheck)(nil)

func NewValueCheck(
	cfg Config, columns []tree.Name, predicate filters.Func, filterName string,
) (*ValueCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, configErrorf(cfg.ID, "at least one column must be given")
	}
	switch {
	case predicate != nil && filterName != "":
		return nil, configErrorf(cfg.ID, "both a predicate and the filter %q were given", filterName)
	case predicate == nil && filterName == "":
		return nil, configErrorf(cfg.ID, "either a predicate or a filter must be given")
	case filterName != "":
		f, err := filters.Lookup(filterName)
		if err != nil {
			return nil, configErrorf(cfg.ID, "%s", err.Error())
		}
		predicate = f.Fn
	}
	return &ValueCheck{
		checkBase:  b,
		columns:    append([]tree.Name(nil), columns...),
		filterName: filterName,
		predicate:  predicate,
	}, nil
}

func (c *ValueCheck) Kind() Kind { return KindValue }
func (c *ValueCheck) Arity() int { return 1 }

// WithPredicate sets the predicate of a check restored from a blob.
func (c *ValueCheck) WithPredicate(fn filters.Func) error {
	if c.filterName != "" {
		return configErrorf(c.ID(), "check uses the filter %q", c.filterName)
	}
	if fn == nil {
		return configErrorf(c.ID(), "predicate must not be nil")
	}
	c.predicate = fn
	c.needsPredicate = false
	return nil
}

func (c *ValueCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		if c.needsPredicate {
			return false, Exceptions{}, configErrorf(c.ID(), "restored check needs a predicate; call WithPredicate")
		}
		t := tables[0]
		ok, failing, err := filters.CheckColumns(t, c.columns, c.predicate)
		if err != nil || ok {
			return ok, Exceptions{}, err
		}
		return false, Exceptions{
			Table: t.Select(failing),
			Info:  fmt.Sprintf("%d rows with values in (%s) not satisfying the condition", len(failing), table.JoinNames(c.columns)),
		}, nil
	})
}

func (c *ValueCheck) spec() checkSpec {
	return checkSpec{
		Kind:         KindValue,
		Columns:      namesToStrings(c.columns),
		Filter:       c.filterName,
		RawPredicate: c.filterName == "",
	}
}
