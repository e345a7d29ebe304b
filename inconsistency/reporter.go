package inconsistency

import (
	"fmt"
	"io"
	"strings"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
)

type Reporter interface {
	Report(obj ReportableObject)
	Close()
}

type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Report(obj ReportableObject) {
	for _, r := range c.Reporters {
		r.Report(obj)
	}
}

func (c CombinedReporter) Close() {
	for _, r := range c.Reporters {
		r.Close()
	}
}

type StatusReport struct {
	Info string
}

// LogReporter reports to `zerolog`.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case MismatchingTableDefinition:
		l.Warn().
			Str("left_table", obj.Left).
			Str("right_table", obj.Right).
			Str("mismatch_info", obj.Info).
			Msgf("mismatching table definition")
	case StatusReport:
		l.Info().Msg(obj.Info)
	case MismatchingRow:
		leftVals := zerolog.Dict()
		rightVals := zerolog.Dict()
		for i, col := range obj.MismatchingColumns {
			leftVals = leftVals.Str(string(col), reportableVal(obj.LeftVals[i]))
			rightVals = rightVals.Str(string(col), reportableVal(obj.RightVals[i]))
		}
		l.Warn().
			Str("table_name", obj.Table).
			Dict("left_values", leftVals).
			Dict("right_values", rightVals).
			Strs("key", zipKeysForReporting(obj.KeyValues)).
			Msgf("mismatching row value")
	case MissingRow:
		l.Warn().
			Str("table_name", obj.Table).
			Strs("key", zipKeysForReporting(obj.KeyValues)).
			Msgf("missing row")
	case ExtraneousRow:
		l.Warn().
			Str("table_name", obj.Table).
			Strs("key", zipKeysForReporting(obj.KeyValues)).
			Msgf("extraneous row")
	case CheckFailure:
		evt := l.Warn().
			Str("check_id", obj.CheckID).
			Str("check_kind", obj.Kind).
			Bool("strict", obj.Strict)
		if obj.Rows != nil {
			evt = evt.Int("exception_rows", obj.Rows.NumRows())
		}
		if len(obj.Columns) > 0 {
			evt = evt.Strs("exception_columns", obj.Columns)
		}
		if obj.Info != "" {
			evt = evt.Str("exception_info", obj.Info)
		}
		evt.Msgf("check failed: %s", obj.Description)
	default:
		l.Error().
			Str("type", fmt.Sprintf("%T", obj)).
			Msgf("unknown object type")
	}
}

func (l LogReporter) Close() {
}

func reportableVal(d tree.Datum) string {
	return table.FormatDatum(d)
}

func zipKeysForReporting(columnVals tree.Datums) []string {
	ret := make([]string, len(columnVals))
	for i := range columnVals {
		ret[i] = reportableVal(columnVals[i])
	}
	return ret
}

// WriterReporter renders reports as plain text, printing tabular payloads as
// a grid.
type WriterReporter struct {
	W io.Writer
}

func (w WriterReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case StatusReport:
		fmt.Fprintln(w.W, obj.Info)
	case MismatchingTableDefinition:
		fmt.Fprintf(w.W, "mismatching table definition between %s and %s: %s\n", obj.Left, obj.Right, obj.Info)
	case MissingRow:
		fmt.Fprintf(w.W, "%s: missing row %s\n", obj.Table, formatKey(obj.KeyColumns, obj.KeyValues))
	case ExtraneousRow:
		fmt.Fprintf(w.W, "%s: extraneous row %s\n", obj.Table, formatKey(obj.KeyColumns, obj.KeyValues))
	case MismatchingRow:
		fmt.Fprintf(w.W, "%s: mismatching row %s\n", obj.Table, formatKey(obj.KeyColumns, obj.KeyValues))
		tw := newGrid(w.W, []string{"column", "left", "right"})
		for i, col := range obj.MismatchingColumns {
			tw.Append([]string{string(col), reportableVal(obj.LeftVals[i]), reportableVal(obj.RightVals[i])})
		}
		tw.Render()
	case CheckFailure:
		mode := "lenient"
		if obj.Strict {
			mode = "strict"
		}
		fmt.Fprintf(w.W, "check %s (%s, %s) failed: %s\n", obj.CheckID, obj.Kind, mode, obj.Description)
		if obj.Info != "" {
			fmt.Fprintln(w.W, obj.Info)
		}
		if len(obj.Columns) > 0 {
			fmt.Fprintf(w.W, "offending columns: %s\n", strings.Join(obj.Columns, ", "))
		}
		if obj.Rows != nil {
			obj.Rows.Render(w.W)
		}
	default:
		fmt.Fprintf(w.W, "unknown object type %T\n", obj)
	}
}

func (w WriterReporter) Close() {
}

func formatKey(cols []tree.Name, vals tree.Datums) string {
	parts := make([]string, len(vals))
	for i := range vals {
		name := "?"
		if i < len(cols) {
			name = string(cols[i])
		}
		parts[i] = fmt.Sprintf("%s=%s", name, reportableVal(vals[i]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func newGrid(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	return tw
}
