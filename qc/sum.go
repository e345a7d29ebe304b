package qc

import (
	"context"
	"fmt"
	"math"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

// ColumnsSumCheck succeeds if, on every row, the values of the given columns
// add up to the expected value. NULLs count as zero. Sums are exact.
type ColumnsSumCheck struct {
	checkBase
	columns []tree.Name
	value   apd.Decimal
}

var _ Check = (*ColumnsSumCheck)(nil)

var sumCtx = apd.BaseContext.WithPrecision(40)

func NewColumnsSumCheck(cfg Config, columns []tree.Name, value apd.Decimal) (*ColumnsSumCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, configErrorf(cfg.ID, "at least one column must be given")
	}
	if value.Form != apd.Finite {
		return nil, configErrorf(cfg.ID, "expected sum must be finite, got %s", value.String())
	}
	ret := &ColumnsSumCheck{
		checkBase: b,
		columns:   append([]tree.Name(nil), columns...),
	}
	ret.value.Set(&value)
	return ret, nil
}

func (c *ColumnsSumCheck) Kind() Kind { return KindColumnsSum }
func (c *ColumnsSumCheck) Arity() int { return 1 }

func (c *ColumnsSumCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		t := tables[0]
		idxs, err := t.ColIndexes(c.columns)
		if err != nil {
			return false, Exceptions{}, configErrorf(c.ID(), "%s", err.Error())
		}
		for _, idx := range idxs {
			if !table.IsNumeric(t.Columns[idx].Type) {
				return false, Exceptions{}, configErrorf(c.ID(), "column %s is not numeric", t.Columns[idx])
			}
		}
		var failing []int
		for rowIdx, row := range t.Rows {
			var sum apd.Decimal
			finite := true
			for _, idx := range idxs {
				var v apd.Decimal
				if err := datumToDecimal(row[idx], &v); err != nil {
					return false, Exceptions{}, errors.Wrapf(err, "row %d column %s", rowIdx, t.Columns[idx].Name)
				}
				// NaN and infinite values never sum to a finite value.
				if v.Form != apd.Finite {
					finite = false
					break
				}
				if _, err := sumCtx.Add(&sum, &sum, &v); err != nil {
					return false, Exceptions{}, errors.Wrapf(err, "row %d", rowIdx)
				}
			}
			if !finite || sum.Cmp(&c.value) != 0 {
				failing = append(failing, rowIdx)
			}
		}
		if len(failing) == 0 {
			return true, Exceptions{}, nil
		}
		return false, Exceptions{
			Table: t.Select(failing),
			Info:  fmt.Sprintf("%d rows where (%s) do not sum to %s", len(failing), table.JoinNames(c.columns), c.value.String()),
		}, nil
	})
}

func datumToDecimal(d tree.Datum, dst *apd.Decimal) error {
	switch d := d.(type) {
	case *tree.DInt:
		dst.SetInt64(int64(*d))
	case *tree.DFloat:
		f := float64(*d)
		switch {
		case math.IsNaN(f):
			dst.Form = apd.NaN
		case math.IsInf(f, 0):
			dst.Form = apd.Infinite
		default:
			if _, err := dst.SetFloat64(f); err != nil {
				return err
			}
		}
	case *tree.DDecimal:
		dst.Set(&d.Decimal)
	default:
		if d == tree.DNull {
			dst.SetInt64(0)
			return nil
		}
		return errors.AssertionFailedf("cannot sum value of type %T", d)
	}
	return nil
}

func (c *ColumnsSumCheck) spec() checkSpec {
	return checkSpec{
		Kind:    KindColumnsSum,
		Columns: namesToStrings(c.columns),
		Value:   c.value.String(),
	}
}
