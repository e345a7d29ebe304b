// Package qc implements data quality checks over tables.
package qc

import (
	"context"
	"fmt"
	"strings"

	"github.com/blkbis/idxqc/table"
)

type Kind string

const (
	KindValue         Kind = "value"
	KindColumnsSum    Kind = "columns_sum"
	KindIndex         Kind = "index"
	KindColumnsCase   Kind = "columns_case"
	KindComparison    Kind = "comparison"
	KindUniqueKey     Kind = "unique_key"
	KindPanelCoverage Kind = "panel_coverage"
)

type State int

const (
	Created State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func parseState(s string) (State, bool) {
	for _, st := range []State{Created, Running, Succeeded, Failed} {
		if st.String() == s {
			return st, true
		}
	}
	return Created, false
}

// Exceptions describe the data which caused a check to fail. Table holds the
// offending rows, Columns the offending column names and Info a free form
// description; any may be empty.
type Exceptions struct {
	Table   *table.Table
	Columns []string
	Info    string
}

func (e Exceptions) Empty() bool {
	return e.Table == nil && len(e.Columns) == 0 && e.Info == ""
}

// Summary describes the exceptions in a single line.
func (e Exceptions) Summary() string {
	var parts []string
	if e.Info != "" {
		parts = append(parts, e.Info)
	}
	if len(e.Columns) > 0 {
		parts = append(parts, fmt.Sprintf("offending columns: %s", strings.Join(e.Columns, ", ")))
	}
	if e.Table != nil {
		parts = append(parts, fmt.Sprintf("%d offending rows", e.Table.NumRows()))
	}
	if len(parts) == 0 {
		return "no exceptions recorded"
	}
	return strings.Join(parts, "; ")
}

type Result struct {
	State      State
	Successful bool
	Exceptions Exceptions
}

// Check is a named rule evaluated against one or more tables.
//
// A check starts in the Created state. Run moves it to Succeeded or Failed,
// after which Result may be read. Running a check again requires Reset.
type Check interface {
	ID() string
	Kind() Kind
	Description() string
	Strict() bool
	// Arity is the number of tables Run expects.
	Arity() int
	Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error
	Result() (Result, error)
	Reset()

	base() *checkBase
	spec() checkSpec
}

// Config holds the parameters shared by every check.
type Config struct {
	ID          string
	Description string
	Strict      bool
}

func (c Config) validate() error {
	if c.ID == "" {
		return configErrorf("", "id must be set")
	}
	if c.Description == "" {
		return configErrorf(c.ID, "description must be set")
	}
	return nil
}

// checkBase holds the configuration and result of a check.
type checkBase struct {
	cfg    Config
	result Result
}

func newBase(cfg Config) (checkBase, error) {
	if err := cfg.validate(); err != nil {
		return checkBase{}, err
	}
	return checkBase{cfg: cfg}, nil
}

func (b *checkBase) ID() string          { return b.cfg.ID }
func (b *checkBase) Description() string { return b.cfg.Description }
func (b *checkBase) Strict() bool        { return b.cfg.Strict }
func (b *checkBase) base() *checkBase    { return b }

func (b *checkBase) Result() (Result, error) {
	switch b.result.State {
	case Succeeded, Failed:
		return b.result, nil
	}
	return Result{}, ErrNotRun
}

// Reset returns the check to the Created state, discarding its result.
func (b *checkBase) Reset() {
	b.result = Result{}
}

func expectTables(c Check, tables []*table.Table) error {
	if len(tables) != c.Arity() {
		return configErrorf(c.ID(), "expected %d tables, got %d", c.Arity(), len(tables))
	}
	for i, t := range tables {
		if t == nil {
			return configErrorf(c.ID(), "table %d is nil", i)
		}
	}
	return nil
}
