package table

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Grid returns the table as a plain grid of strings. The first row holds the
// column names.
func (t *Table) Grid() [][]string {
	ret := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = string(col.Name)
	}
	ret = append(ret, header)
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, d := range row {
			line[i] = FormatDatum(d)
		}
		ret = append(ret, line)
	}
	return ret
}

// Render writes the table to w as a bordered grid.
func (t *Table) Render(w io.Writer) {
	grid := t.Grid()
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(grid[0])
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.AppendBulk(grid[1:])
	tw.Render()
}
