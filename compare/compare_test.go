package compare

import (
	"fmt"
	"strings"
	"testing"

	"github.com/blkbis/idxqc/table"
	"github.com/blkbis/idxqc/testutils"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		tables := make(map[string]*table.Table)
		getTable := func(t *testing.T, d *datadriven.TestData, arg string) *table.Table {
			var name string
			d.ScanArgs(t, arg, &name)
			tbl, ok := tables[name]
			require.True(t, ok, "unknown table %s", name)
			return tbl
		}
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			var sb strings.Builder
			switch d.Cmd {
			case "table":
				tbl := testutils.TableCommand(t, d)
				tables[tbl.Name] = tbl
				return ""
			case "structure":
				r := CompareStructure(getTable(t, d, "left"), getTable(t, d, "right"))
				fmt.Fprintf(
					&sb,
					"columns_match=%t column_order_match=%t column_types_match=%t\n",
					r.ColumnsMatch,
					r.ColumnOrderMatch,
					r.ColumnTypesMatch,
				)
				for _, info := range r.Info() {
					sb.WriteString(info + "\n")
				}
				return sb.String()
			case "values":
				ok, err := CompareValues(getTable(t, d, "left"), getTable(t, d, "right"))
				if err != nil {
					return fmt.Sprintf("error: %s\n", err.Error())
				}
				return fmt.Sprintf("%t\n", ok)
			case "delta":
				var opts []Opt
				if d.HasArg("filter") {
					var f string
					d.ScanArgs(t, "filter", &f)
					opts = append(opts, WithColumnFilter(f))
				}
				delta, err := ComputeDelta(
					getTable(t, d, "left"),
					getTable(t, d, "right"),
					testutils.KeyArg(d, "key"),
					opts...,
				)
				if err != nil {
					return fmt.Sprintf("error: %s\n", err.Error())
				}
				writeGrid(&sb, delta.Table)
				return sb.String()
			case "compare":
				res, err := Compare(getTable(t, d, "left"), getTable(t, d, "right"), testutils.KeyArg(d, "key"))
				if err != nil {
					return fmt.Sprintf("error: %s\n", err.Error())
				}
				fmt.Fprintf(
					&sb,
					"structure_matches=%t exact_match=%t same_row_count=%t\n",
					res.Structure.Matches(),
					res.ExactMatch,
					res.SameRowCount(),
				)
				if res.Delta != nil {
					sb.WriteString(res.Delta.Summary().String() + "\n")
					writeGrid(&sb, res.Delta.Mismatches())
				}
				return sb.String()
			default:
				t.Fatalf("unknown command: %s", d.Cmd)
			}
			return ""
		})
	})
}

func writeGrid(sb *strings.Builder, tbl *table.Table) {
	for _, line := range tbl.Grid() {
		sb.WriteString(strings.Join(line, ",") + "\n")
	}
}

func TestComputeDeltaProperties(t *testing.T) {
	left := testutils.MakeTable(t, "left", "id:int,a:string,v:int", "1,x,10", "2,NULL,20", "3,z,30", "5,w,50")
	right := testutils.MakeTable(t, "right", "id:int,v:int,a:string", "1,10,x", "2,21,NULL", "4,40,y", "5,50,w")
	key := names("id")

	t.Run("symmetry", func(t *testing.T) {
		lr, err := ComputeDelta(left, right, key)
		require.NoError(t, err)
		rl, err := ComputeDelta(right, left, key)
		require.NoError(t, err)
		require.Equal(t, keyStrings(lr), keyStrings(rl))
		require.Len(t, rl.Rows, len(lr.Rows))
		for i := range lr.Rows {
			require.Equal(t, lr.Rows[i].AllMatch, rl.Rows[i].AllMatch)
		}
		require.Equal(t, []string{"2", "3", "4"}, keyStrings(lr))
	})

	t.Run("completeness", func(t *testing.T) {
		d, err := ComputeDelta(left, right, key)
		require.NoError(t, err)
		var oneSided int
		for _, row := range d.Rows {
			if row.Side != Both {
				oneSided++
				require.False(t, row.AllMatch)
				require.Zero(t, row.MatchCount)
			}
		}
		require.Equal(t, 2, oneSided)
		require.Len(t, d.Rows, 5)
	})

	t.Run("exact match round trip", func(t *testing.T) {
		for _, tbl := range []*table.Table{left, right} {
			d, err := ComputeDelta(tbl, tbl, key)
			require.NoError(t, err)
			require.Len(t, d.Rows, tbl.NumRows())
			for _, row := range d.Rows {
				require.True(t, row.AllMatch)
				require.Equal(t, len(d.Columns), row.MatchCount)
			}
			require.Empty(t, d.MismatchingKeys())
			require.Zero(t, d.Mismatches().NumRows())
		}
	})

	t.Run("summary", func(t *testing.T) {
		d, err := ComputeDelta(left, right, key)
		require.NoError(t, err)
		s := d.Summary()
		require.Equal(t, 4, s.LeftRows)
		require.Equal(t, 4, s.RightRows)
		require.Equal(t, 3, s.BothRows)
		require.Equal(t, 1, s.LeftOnly)
		require.Equal(t, 1, s.RightOnly)
		require.Equal(t, 1, s.Mismatching)
		require.Equal(t, 1, s.ColumnMismatches["v"])
		require.Zero(t, s.ColumnMismatches["a"])
	})

	t.Run("report", func(t *testing.T) {
		d, err := ComputeDelta(left, right, key)
		require.NoError(t, err)
		r := &testutils.RecordingReporter{}
		d.Report(r)
		// Missing, mismatching, extraneous and a final status.
		require.Len(t, r.Objects, 4)
	})
}

func keyStrings(d *Delta) []string {
	var ret []string
	for _, k := range d.MismatchingKeys() {
		ret = append(ret, table.FormatDatum(k[0]))
	}
	return ret
}

func TestStructuralShortCircuit(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		left  *table.Table
		right *table.Table
	}{
		{
			desc:  "different column names",
			left:  testutils.MakeTable(t, "l", "id:int,v:int", "1,10"),
			right: testutils.MakeTable(t, "r", "id:int,w:int", "1,10"),
		},
		{
			desc:  "extra column",
			left:  testutils.MakeTable(t, "l", "id:int"),
			right: testutils.MakeTable(t, "r", "id:int,w:int"),
		},
		{
			desc:  "different order",
			left:  testutils.MakeTable(t, "l", "id:int,v:int", "1,10"),
			right: testutils.MakeTable(t, "r", "v:int,id:int", "10,1"),
		},
		{
			desc:  "different types",
			left:  testutils.MakeTable(t, "l", "id:int,v:int", "1,10"),
			right: testutils.MakeTable(t, "r", "id:int,v:string", "1,10"),
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			ok, err := CompareValues(tc.left, tc.right)
			require.False(t, ok)
			var structErr *StructuralMismatchError
			require.True(t, errors.As(err, &structErr))
			require.False(t, structErr.Structure.Matches())
		})
	}
}

func TestComputeDeltaIncomparable(t *testing.T) {
	base := testutils.MakeTable(t, "base", "id:int,v:int", "1,10", "2,20")
	for _, tc := range []struct {
		desc     string
		right    *table.Table
		key      string
		expected []string
	}{
		{
			desc:     "no key",
			right:    base,
			key:      "",
			expected: nil,
		},
		{
			desc:     "unknown key",
			right:    base,
			key:      "nope",
			expected: []string{"nope"},
		},
		{
			desc:     "column sets differ",
			right:    testutils.MakeTable(t, "r", "id:int,w:int", "1,10"),
			key:      "id",
			expected: []string{"v", "w"},
		},
		{
			desc:     "types differ",
			right:    testutils.MakeTable(t, "r", "id:int,v:float", "1,10"),
			key:      "id",
			expected: []string{"v"},
		},
		{
			desc:     "duplicate keys",
			right:    testutils.MakeTable(t, "r", "id:int,v:int", "1,10", "1,11"),
			key:      "id",
			expected: []string{"id"},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			var key []string
			if tc.key != "" {
				key = []string{tc.key}
			}
			_, err := ComputeDelta(base, tc.right, names(key...))
			var incomparableErr *IncomparableTablesError
			require.True(t, errors.As(err, &incomparableErr), "%v", err)
			var cols []string
			for _, c := range incomparableErr.Columns {
				cols = append(cols, string(c))
			}
			require.Equal(t, tc.expected, cols)
		})
	}
}

func TestCompareFiltered(t *testing.T) {
	left := testutils.MakeTable(t, "l", "id:int,v:int,ts:string", "1,10,a", "2,20,b")
	right := testutils.MakeTable(t, "r", "id:int,v:int,ts:string", "1,10,c", "2,20,d")

	res, err := Compare(left, right, names("id"))
	require.NoError(t, err)
	require.False(t, res.Matches())
	require.NotNil(t, res.Delta)

	res, err = Compare(left, right, names("id"), WithColumnFilter("^v$"))
	require.NoError(t, err)
	require.True(t, res.Matches())
	require.Nil(t, res.Delta)

	_, err = Compare(left, right, names("id"), WithColumnFilter("("))
	require.Error(t, err)
}

func TestCompareReporter(t *testing.T) {
	left := testutils.MakeTable(t, "l", "id:int,v:int", "1,10")
	right := testutils.MakeTable(t, "r", "id:int,w:int", "1,10")
	r := &testutils.RecordingReporter{}
	res, err := Compare(left, right, names("id"), WithReporter(r))
	require.NoError(t, err)
	require.False(t, res.SameColumns())
	require.True(t, res.SameRowCount())
	// Two structural differences and a status report.
	require.Len(t, r.Objects, 3)
}

func TestStyleDelta(t *testing.T) {
	left := testutils.MakeTable(t, "l", "id:int,a:int,b:int", "1,1,1", "2,2,2")
	right := testutils.MakeTable(t, "r", "id:int,a:int,b:int", "1,1,1", "2,2,3")
	d, err := ComputeDelta(left, right, names("id"))
	require.NoError(t, err)
	v := StyleDelta(d)
	require.Len(t, v.Tags, 2)
	for _, tag := range v.Tags[0] {
		require.Equal(t, RowMatch, tag)
	}
	for i, col := range d.Table.Columns {
		expected := RowMismatch
		switch col.Name {
		case "b_left", "b_matches", "b_right":
			expected = CellMismatch
		}
		require.Equal(t, expected, v.Tags[1][i], "column %s", col.Name)
	}

	var sb strings.Builder
	v.Render(&sb)
	require.Contains(t, sb.String(), "b_matches")
}
