package qc

import (
	"context"
	"fmt"
	"sort"

	"github.com/blkbis/idxqc/comparectx"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

const (
	EventEnter = "enter"
	EventExit  = "exit"
)

// PanelCoverageCheck succeeds if a panel of (date, id) observations covers
// the same ids at every date. The exceptions list the ids entering the panel
// at a date, and the ids present for the last time at a date before the
// panel continues without them.
//
// Rows with a NULL date or id are ignored.
type PanelCoverageCheck struct {
	checkBase
	dateColumn tree.Name
	idColumn   tree.Name
}

var _ Check = (*PanelCoverageCheck)(nil)

func NewPanelCoverageCheck(cfg Config, dateColumn, idColumn tree.Name) (*PanelCoverageCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if dateColumn == "" || idColumn == "" {
		return nil, configErrorf(cfg.ID, "date and id columns must be given")
	}
	if dateColumn == idColumn {
		return nil, configErrorf(cfg.ID, "date and id columns must differ")
	}
	return &PanelCoverageCheck{checkBase: b, dateColumn: dateColumn, idColumn: idColumn}, nil
}

func (c *PanelCoverageCheck) Kind() Kind { return KindPanelCoverage }
func (c *PanelCoverageCheck) Arity() int { return 1 }

type panelPeriod struct {
	date tree.Datum
	ids  map[string]tree.Datum
}

func (c *PanelCoverageCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		t := tables[0]
		idxs, err := t.ColIndexes([]tree.Name{c.dateColumn, c.idColumn})
		if err != nil {
			return false, Exceptions{}, configErrorf(c.ID(), "%s", err.Error())
		}
		dateIdx, idIdx := idxs[0], idxs[1]

		byDate := make(map[string]*panelPeriod)
		var periods []*panelPeriod
		for _, row := range t.Rows {
			date, id := row[dateIdx], row[idIdx]
			if date == tree.DNull || id == tree.DNull {
				continue
			}
			dateKey, _, err := table.EncodeDatum(date)
			if err != nil {
				return false, Exceptions{}, err
			}
			idKey, _, err := table.EncodeDatum(id)
			if err != nil {
				return false, Exceptions{}, err
			}
			p, ok := byDate[dateKey]
			if !ok {
				p = &panelPeriod{date: date, ids: make(map[string]tree.Datum)}
				byDate[dateKey] = p
				periods = append(periods, p)
			}
			p.ids[idKey] = id
		}
		sort.Slice(periods, func(i, j int) bool {
			return comparectx.Compare(periods[i].date, periods[j].date) < 0
		})

		events := table.New(
			"panel_coverage",
			table.Column{Name: c.dateColumn, Type: t.Columns[dateIdx].Type},
			table.Column{Name: c.idColumn, Type: t.Columns[idIdx].Type},
			table.Column{Name: "event", Type: types.String},
		)
		var entered, exited int
		for i := 1; i < len(periods); i++ {
			prev, cur := periods[i-1], periods[i]
			for _, id := range sortedIDs(prev.ids, cur.ids) {
				if err := events.AppendRow(prev.date, id, tree.NewDString(EventExit)); err != nil {
					return false, Exceptions{}, errors.Wrap(err, "error recording panel exit")
				}
				exited++
			}
			for _, id := range sortedIDs(cur.ids, prev.ids) {
				if err := events.AppendRow(cur.date, id, tree.NewDString(EventEnter)); err != nil {
					return false, Exceptions{}, errors.Wrap(err, "error recording panel entry")
				}
				entered++
			}
		}
		if events.NumRows() == 0 {
			return true, Exceptions{}, nil
		}
		return false, Exceptions{
			Table: events,
			Info: fmt.Sprintf(
				"%d ids entered and %d ids exited the panel across %d dates",
				entered,
				exited,
				len(periods),
			),
		}, nil
	})
}

// sortedIDs returns the ids in a which are not in b, in order.
func sortedIDs(a, b map[string]tree.Datum) tree.Datums {
	var ret tree.Datums
	for k, id := range a {
		if _, ok := b[k]; !ok {
			ret = append(ret, id)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		return comparectx.Compare(ret[i], ret[j]) < 0
	})
	return ret
}

func (c *PanelCoverageCheck) spec() checkSpec {
	return checkSpec{
		Kind:       KindPanelCoverage,
		DateColumn: string(c.dateColumn),
		IDColumn:   string(c.idColumn),
	}
}
