package inconsistency

import (
	"bytes"
	"testing"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingReporter struct {
	reports int
	closed  bool
}

func (c *countingReporter) Report(ReportableObject) { c.reports++ }
func (c *countingReporter) Close()                  { c.closed = true }

func TestCombinedReporter(t *testing.T) {
	a, b := &countingReporter{}, &countingReporter{}
	r := CombinedReporter{Reporters: []Reporter{a, b}}
	r.Report(StatusReport{Info: "hello"})
	r.Report(StatusReport{Info: "world"})
	r.Close()
	for _, c := range []*countingReporter{a, b} {
		require.Equal(t, 2, c.reports)
		require.True(t, c.closed)
	}
}

func TestLogReporter(t *testing.T) {
	exceptions := table.New("exceptions", table.Column{Name: "sector", Type: types.String})
	require.NoError(t, exceptions.AppendRow(tree.NewDString("UTIL")))

	for _, tc := range []struct {
		desc     string
		obj      ReportableObject
		expected []string
	}{
		{
			desc:     "status",
			obj:      StatusReport{Info: "all good"},
			expected: []string{`"level":"info"`, `"message":"all good"`},
		},
		{
			desc: "mismatching row",
			obj: MismatchingRow{
				Table:              "prices",
				KeyColumns:         []tree.Name{"id"},
				KeyValues:          tree.Datums{tree.NewDInt(2)},
				MismatchingColumns: []tree.Name{"v"},
				LeftVals:           tree.Datums{tree.NewDInt(20)},
				RightVals:          tree.Datums{tree.NewDInt(99)},
			},
			expected: []string{
				`"left_values":{"v":"20"}`,
				`"right_values":{"v":"99"}`,
				`"key":["2"]`,
				`"message":"mismatching row value"`,
			},
		},
		{
			desc: "check failure",
			obj: CheckFailure{
				CheckID:     "no_util",
				Kind:        "value",
				Description: "no utilities",
				Rows:        exceptions,
			},
			expected: []string{
				`"level":"warn"`,
				`"check_id":"no_util"`,
				`"exception_rows":1`,
				`"message":"check failed: no utilities"`,
			},
		},
		{
			desc:     "unknown",
			obj:      struct{}{},
			expected: []string{`"level":"error"`, `"type":"struct {}"`},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			var buf bytes.Buffer
			r := LogReporter{Logger: zerolog.New(&buf)}
			r.Report(tc.obj)
			for _, e := range tc.expected {
				require.Contains(t, buf.String(), e)
			}
		})
	}
}

func TestWriterReporter(t *testing.T) {
	exceptions := table.New("exceptions", table.Column{Name: "sector", Type: types.String})
	require.NoError(t, exceptions.AppendRow(tree.NewDString("UTIL")))

	var buf bytes.Buffer
	r := WriterReporter{W: &buf}
	r.Report(CheckFailure{
		CheckID:     "no_util",
		Kind:        "value",
		Description: "no utilities",
		Strict:      true,
		Rows:        exceptions,
	})
	r.Report(MissingRow{
		Table:      "prices",
		KeyColumns: []tree.Name{"id", "date"},
		KeyValues:  tree.Datums{tree.NewDInt(3), tree.NewDString("x")},
	})
	out := buf.String()
	require.Contains(t, out, "check no_util (value, strict) failed: no utilities")
	require.Contains(t, out, "sector")
	require.Contains(t, out, "UTIL")
	require.Contains(t, out, "prices: missing row (id=3, date=x)")
}
