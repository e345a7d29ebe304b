package qc

import (
	"context"
	"fmt"
	"strings"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// StructuralIndexCheck succeeds if the key of a table is exactly the
// expected list of columns.
type StructuralIndexCheck struct {
	checkBase
	expected []tree.Name
}

var _ Check = (*StructuralIndexCheck)(nil)

func NewStructuralIndexCheck(cfg Config, expected []tree.Name) (*StructuralIndexCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if len(expected) == 0 {
		return nil, configErrorf(cfg.ID, "expected index must be given")
	}
	return &StructuralIndexCheck{checkBase: b, expected: append([]tree.Name(nil), expected...)}, nil
}

func (c *StructuralIndexCheck) Kind() Kind { return KindIndex }
func (c *StructuralIndexCheck) Arity() int { return 1 }

func (c *StructuralIndexCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		t := tables[0]
		if table.SameColumnNames(t.Key, c.expected) {
			return true, Exceptions{}, nil
		}
		return false, Exceptions{
			Info: fmt.Sprintf(
				"table %s is indexed by (%s) but expected (%s)",
				t.Name,
				table.JoinNames(t.Key),
				table.JoinNames(c.expected),
			),
		}, nil
	})
}

func (c *StructuralIndexCheck) spec() checkSpec {
	return checkSpec{Kind: KindIndex, Key: namesToStrings(c.expected)}
}

// Convention is a canonical letter case for column names.
type Convention int

const (
	Lowercase Convention = iota
	Uppercase
)

func (c Convention) String() string {
	switch c {
	case Lowercase:
		return "lowercase"
	case Uppercase:
		return "uppercase"
	}
	return fmt.Sprintf("convention(%d)", int(c))
}

func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(s) {
	case "", "lowercase", "lower":
		return Lowercase, nil
	case "uppercase", "upper":
		return Uppercase, nil
	}
	return Lowercase, configErrorf("", "unknown naming convention %q", s)
}

func (c Convention) follows(name string) bool {
	if c == Uppercase {
		return strings.ToUpper(name) == name
	}
	return strings.ToLower(name) == name
}

// StructuralColumnsCheck succeeds if column names follow a case convention.
// With no columns given, every column of the table is checked.
type StructuralColumnsCheck struct {
	checkBase
	columns    []tree.Name
	convention Convention
}

var _ Check = (*StructuralColumnsCheck)(nil)

func NewStructuralColumnsCheck(
	cfg Config, columns []tree.Name, convention Convention,
) (*StructuralColumnsCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if convention != Lowercase && convention != Uppercase {
		return nil, configErrorf(cfg.ID, "unknown naming convention %s", convention)
	}
	return &StructuralColumnsCheck{
		checkBase:  b,
		columns:    append([]tree.Name(nil), columns...),
		convention: convention,
	}, nil
}

func (c *StructuralColumnsCheck) Kind() Kind { return KindColumnsCase }
func (c *StructuralColumnsCheck) Arity() int { return 1 }

func (c *StructuralColumnsCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		cols := c.columns
		if len(cols) == 0 {
			cols = tables[0].ColumnNames()
		}
		var violating []string
		for _, col := range cols {
			if !c.convention.follows(string(col)) {
				violating = append(violating, string(col))
			}
		}
		if len(violating) == 0 {
			return true, Exceptions{}, nil
		}
		return false, Exceptions{
			Columns: violating,
			Info:    fmt.Sprintf("column names are not %s", c.convention),
		}, nil
	})
}

func (c *StructuralColumnsCheck) spec() checkSpec {
	return checkSpec{
		Kind:       KindColumnsCase,
		Columns:    namesToStrings(c.columns),
		Convention: c.convention.String(),
	}
}
