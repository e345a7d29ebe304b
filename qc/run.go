package qc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/blkbis/idxqc/checkstore"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// StrictMode overrides the strictness of checks for a run.
type StrictMode int

const (
	// StrictDefault respects the strictness of each check.
	StrictDefault StrictMode = iota
	// StrictForce treats every failed check as a hard failure.
	StrictForce
	// StrictNever only warns on failed checks.
	StrictNever
)

func (m StrictMode) strict(checkStrict bool) bool {
	switch m {
	case StrictForce:
		return true
	case StrictNever:
		return false
	}
	return checkStrict
}

// RunContext carries the collaborators of a check run. The zero value is
// usable: failures are reported to Logger, which discards output unless set,
// and nothing is persisted. A nil RunContext logs to stderr.
type RunContext struct {
	Logger     zerolog.Logger
	Reporter   inconsistency.Reporter
	StrictMode StrictMode
	// Store, if set, receives every failed check.
	Store checkstore.Store
	// Location names the blob a failed check is persisted to. It defaults to
	// DefaultLocation.
	Location func(Check) string
}

// DefaultLocation is the location failed checks are persisted to unless the
// RunContext says otherwise.
func DefaultLocation(c Check) string {
	return fmt.Sprintf("checks/%s.qc", c.ID())
}

var defaultLogOutput io.Writer = os.Stderr

func defaultRunContext() *RunContext {
	return &RunContext{
		Logger: zerolog.New(zerolog.ConsoleWriter{Out: defaultLogOutput, NoColor: true}).With().Timestamp().Logger(),
	}
}

func (rc *RunContext) reporter() inconsistency.Reporter {
	if rc.Reporter != nil {
		return rc.Reporter
	}
	return inconsistency.LogReporter{Logger: rc.Logger}
}

func (rc *RunContext) location(c Check) string {
	if rc.Location != nil {
		return rc.Location(c)
	}
	return DefaultLocation(c)
}

var checkRunsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "idxqc",
	Subsystem: "qc",
	Name:      "check_runs",
	Help:      "Number of check runs by kind and outcome.",
}, []string{"kind", "outcome"})

// rule evaluates a check against its inputs. A failing rule returns false
// and the exceptions describing the failure; an error means the rule could
// not be evaluated at all.
type rule func() (bool, Exceptions, error)

// runCheck applies the common run protocol to a check: evaluate its rule,
// record the result and, on failure, report it, persist it and either return
// a *CheckFailedError or log a warning depending on strictness.
func runCheck(
	ctx context.Context, rc *RunContext, c Check, tables []*table.Table, evaluate rule,
) error {
	if rc == nil {
		rc = defaultRunContext()
	}
	b := c.base()
	switch b.result.State {
	case Running:
		return errors.AssertionFailedf("check %s is already running", c.ID())
	case Succeeded, Failed:
		return errors.Wrapf(ErrAlreadyRun, "check %s", c.ID())
	}
	if err := expectTables(c, tables); err != nil {
		return err
	}
	logger := rc.Logger.With().Str("check_id", c.ID()).Str("check_kind", string(c.Kind())).Logger()

	b.result = Result{State: Running}
	ok, exceptions, err := evaluate()
	if err != nil {
		b.result = Result{State: Created}
		checkRunsMetric.WithLabelValues(string(c.Kind()), "error").Inc()
		return errors.Wrapf(err, "error running check %s", c.ID())
	}
	if ok {
		b.result = Result{State: Succeeded, Successful: true}
		checkRunsMetric.WithLabelValues(string(c.Kind()), "succeeded").Inc()
		logger.Debug().Msgf("check succeeded")
		return nil
	}

	b.result = Result{State: Failed, Exceptions: exceptions}
	checkRunsMetric.WithLabelValues(string(c.Kind()), "failed").Inc()
	strict := rc.StrictMode.strict(c.Strict())
	rc.reporter().Report(inconsistency.CheckFailure{
		CheckID:     c.ID(),
		Kind:        string(c.Kind()),
		Description: c.Description(),
		Strict:      strict,
		Rows:        exceptions.Table,
		Columns:     exceptions.Columns,
		Info:        exceptions.Info,
	})
	if rc.Store != nil {
		location := rc.location(c)
		if err := SaveCheck(ctx, rc.Store, location, c); err != nil {
			return errors.Wrapf(err, "error saving failed check %s", c.ID())
		}
		logger.Debug().Str("location", location).Msgf("saved failed check")
	}
	if strict {
		return &CheckFailedError{CheckID: c.ID(), Kind: c.Kind(), Exceptions: exceptions}
	}
	logger.Warn().Str("exceptions", exceptions.Summary()).Msgf("check failed; continuing as the check is lenient")
	return nil
}
