package qc

import (
	"context"
	"fmt"
	"io"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
)

type Outcome struct {
	CheckID string
	Kind    Kind
	Strict  bool
	Result  Result
}

type Outcomes []Outcome

// RunAll runs checks in order against the given tables, each check receiving
// as many leading tables as it expects. It stops at the first error, which
// includes strict check failures, returning the outcomes collected so far.
// Only a strict failure adds an outcome for the check that stopped the run.
func RunAll(ctx context.Context, rc *RunContext, checks []Check, tables ...*table.Table) (Outcomes, error) {
	if rc == nil {
		rc = defaultRunContext()
	}
	var ret Outcomes
	for _, c := range checks {
		if c.Arity() > len(tables) {
			return ret, configErrorf(c.ID(), "expected %d tables, got %d", c.Arity(), len(tables))
		}
		runErr := c.Run(ctx, rc, tables[:c.Arity()]...)
		var failedErr *CheckFailedError
		if runErr != nil && !errors.As(runErr, &failedErr) {
			return ret, runErr
		}
		if res, err := c.Result(); err == nil {
			ret = append(ret, Outcome{
				CheckID: c.ID(),
				Kind:    c.Kind(),
				Strict:  rc.StrictMode.strict(c.Strict()),
				Result:  res,
			})
		}
		if runErr != nil {
			return ret, runErr
		}
	}
	return ret, nil
}

// Failed returns the outcomes of the checks which did not succeed.
func (o Outcomes) Failed() Outcomes {
	var ret Outcomes
	for _, outcome := range o {
		if !outcome.Result.Successful {
			ret = append(ret, outcome)
		}
	}
	return ret
}

func (o Outcomes) String() string {
	return fmt.Sprintf("%d checks run, %d failed", len(o), len(o.Failed()))
}

// Render writes a summary grid of the outcomes.
func (o Outcomes) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"check", "kind", "strict", "state", "exceptions"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, outcome := range o {
		exceptions := ""
		if !outcome.Result.Successful {
			exceptions = outcome.Result.Exceptions.Summary()
		}
		tw.Append([]string{
			outcome.CheckID,
			string(outcome.Kind),
			fmt.Sprintf("%t", outcome.Strict),
			outcome.Result.State.String(),
			exceptions,
		})
	}
	tw.Render()
}
