package testutils

import (
	"strings"
	"testing"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// MakeTable builds a table from a compact description. The header lists
// "name:type" pairs separated by commas; each row lists comma separated
// values, where NULL denotes a missing value. For example:
//
//	MakeTable(t, "left", "id:int,v:int", "1,10", "2,20")
func MakeTable(t testing.TB, name string, header string, rows ...string) *table.Table {
	t.Helper()
	tbl := table.New(name)
	for _, colDef := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(colDef), ":", 2)
		require.Len(t, parts, 2, "column definition %q must be name:type", colDef)
		typ, err := table.ParseType(parts[1])
		require.NoError(t, err)
		tbl.Columns = append(tbl.Columns, table.Column{Name: tree.Name(parts[0]), Type: typ})
	}
	for _, row := range rows {
		vals := strings.Split(row, ",")
		require.Len(t, vals, len(tbl.Columns), "row %q", row)
		datums := make(tree.Datums, len(vals))
		for i, v := range vals {
			v = strings.TrimSpace(v)
			if v == "NULL" {
				datums[i] = tree.DNull
				continue
			}
			d, err := table.ParseDatum(v, tbl.Columns[i].Type)
			require.NoError(t, err)
			datums[i] = d
		}
		require.NoError(t, tbl.AppendRow(datums...))
	}
	return tbl
}

// TableCommand builds a table from a datadriven command of the form:
//
//	table name=left key=id
//	id:int,v:int
//	1,10
//	----
func TableCommand(t *testing.T, d *datadriven.TestData) *table.Table {
	t.Helper()
	var name string
	var key []tree.Name
	for _, arg := range d.CmdArgs {
		switch arg.Key {
		case "name":
			name = arg.Vals[0]
		case "key":
			for _, v := range arg.Vals {
				key = append(key, tree.Name(v))
			}
		}
	}
	require.NotEmpty(t, name, "table name must be set")
	lines := strings.Split(strings.TrimSpace(d.Input), "\n")
	require.NotEmpty(t, lines, "table header must be set")
	tbl := MakeTable(t, name, lines[0], lines[1:]...)
	if len(key) > 0 {
		require.NoError(t, tbl.SetKey(key...))
	}
	return tbl
}

// KeyArg returns the values of a datadriven argument as column names.
func KeyArg(d *datadriven.TestData, key string) []tree.Name {
	var ret []tree.Name
	for _, arg := range d.CmdArgs {
		if arg.Key == key {
			for _, v := range arg.Vals {
				ret = append(ret, tree.Name(v))
			}
		}
	}
	return ret
}
