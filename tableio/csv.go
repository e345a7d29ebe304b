package tableio

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var loadedRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "idxqc",
	Subsystem: "tableio",
	Name:      "rows_loaded",
	Help:      "Number of rows loaded by source format.",
}, []string{"format"})

// ReadCSV reads a table from CSV data whose first record is the header.
func ReadCSV(r io.Reader, name string, o Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Newf("csv for %s has no header", name)
		}
		return nil, errors.Wrapf(err, "error reading csv header for %s", name)
	}
	var records [][]string
	for {
		record, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "error reading csv for %s", name)
		}
		records = append(records, record)
	}

	cols := make([]table.Column, len(header))
	for i, h := range header {
		colName := strings.TrimSpace(h)
		typ, ok := o.Types[colName]
		switch {
		case ok:
		case o.Infer:
			typ = inferType(records, i)
		default:
			typ = types.String
		}
		cols[i] = table.Column{Name: tree.Name(colName), Type: typ}
	}
	t := table.New(name, cols...)
	m := loadedRows.WithLabelValues("csv")
	for rowIdx, record := range records {
		row := make(tree.Datums, len(cols))
		for i, s := range record {
			if row[i], err = ConvertString(s, cols[i].Type); err != nil {
				return nil, errors.Wrapf(err, "%s: line %d column %s", name, rowIdx+2, cols[i].Name)
			}
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		m.Inc()
	}
	return finish(t, o)
}

// inferType picks the narrowest type every non-empty value of the column
// parses as: bool, a date, int, float, then string. Dates come before ints so
// that yyyymmdd columns are read as dates. A column of empty values is a
// string column.
func inferType(records [][]string, col int) *types.T {
	candidates := []struct {
		typ   *types.T
		parse func(string) bool
	}{
		{types.Bool, func(s string) bool {
			s = strings.ToLower(s)
			return s == "true" || s == "false"
		}},
		{types.Timestamp, func(s string) bool {
			_, ok := parseDate(s)
			return ok
		}},
		{types.Int, func(s string) bool {
			_, err := strconv.ParseInt(s, 10, 64)
			return err == nil
		}},
		{types.Float, func(s string) bool {
			_, err := strconv.ParseFloat(s, 64)
			return err == nil
		}},
	}
	seen := false
	for _, c := range candidates {
		matches := true
		for _, record := range records {
			s := strings.TrimSpace(record[col])
			if s == "" {
				continue
			}
			seen = true
			if !c.parse(s) {
				matches = false
				break
			}
		}
		if !seen {
			return types.String
		}
		if matches {
			return c.typ
		}
	}
	return types.String
}

// WriteCSV writes a table as CSV with a header record. NULLs are written as
// empty values.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = string(col.Name)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "error writing csv header")
	}
	record := make([]string, len(t.Columns))
	for rowIdx, row := range t.Rows {
		for i, d := range row {
			if ts, ok := d.(*tree.DTimestamp); ok {
				record[i] = formatTimestamp(ts)
				continue
			}
			s, _, err := table.EncodeDatum(d)
			if err != nil {
				return errors.Wrapf(err, "row %d", rowIdx)
			}
			record[i] = s
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "error writing row %d", rowIdx)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatTimestamp writes midnight timestamps as plain dates.
func formatTimestamp(ts *tree.DTimestamp) string {
	if ts.Time.Equal(ts.Time.Truncate(24 * time.Hour)) {
		return ts.Time.Format(DateLayouts[0])
	}
	return table.FormatDatum(ts)
}
