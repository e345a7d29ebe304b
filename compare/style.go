package compare

import (
	"io"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/olekukonko/tablewriter"
)

type CellTag int

const (
	// RowMatch marks a cell of a fully matching row.
	RowMatch CellTag = iota
	// RowMismatch marks a cell of a row with at least one mismatching column.
	RowMismatch
	// CellMismatch marks the <col>_left, <col>_matches and <col>_right cells
	// of a mismatching column.
	CellMismatch
)

func (t CellTag) String() string {
	switch t {
	case RowMatch:
		return "row_match"
	case RowMismatch:
		return "row_mismatch"
	case CellMismatch:
		return "cell_mismatch"
	}
	return "unknown"
}

// StyledView tags every cell of a delta table for display.
type StyledView struct {
	Delta *Delta
	// Tags holds one tag per cell of Delta.Table.
	Tags [][]CellTag
}

// StyleDelta tags each cell of the delta table by whether its row and column
// match.
func StyleDelta(d *Delta) StyledView {
	colIdx := make(map[tree.Name]int, len(d.Table.Columns))
	for i, col := range d.Table.Columns {
		colIdx[col.Name] = i
	}
	v := StyledView{Delta: d, Tags: make([][]CellTag, len(d.Rows))}
	for i, row := range d.Rows {
		tags := make([]CellTag, len(d.Table.Columns))
		base := RowMatch
		if !row.AllMatch {
			base = RowMismatch
		}
		for j := range tags {
			tags[j] = base
		}
		for j, m := range row.Matches {
			if m {
				continue
			}
			col := d.Columns[j]
			for _, name := range []tree.Name{LeftColumn(col), MatchesColumn(col), RightColumn(col)} {
				tags[colIdx[name]] = CellMismatch
			}
		}
		v.Tags[i] = tags
	}
	return v
}

var tagColors = map[CellTag]tablewriter.Colors{
	RowMatch:     {tablewriter.FgGreenColor},
	RowMismatch:  {tablewriter.FgYellowColor},
	CellMismatch: {tablewriter.Bold, tablewriter.FgRedColor},
}

// Render writes the delta table with ANSI colors reflecting the cell tags.
func (v StyledView) Render(w io.Writer) {
	grid := v.Delta.Table.Grid()
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(grid[0])
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, line := range grid[1:] {
		colors := make([]tablewriter.Colors, len(line))
		for j := range line {
			colors[j] = tagColors[v.Tags[i][j]]
		}
		tw.Rich(line, colors)
	}
	tw.Render()
}
