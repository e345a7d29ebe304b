package qc

import (
	"context"
	"fmt"
	"sort"

	"github.com/blkbis/idxqc/comparectx"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// UniqueKeyCheck succeeds if no two rows share a key. The key is the given
// columns, or the key of the table if none are given.
type UniqueKeyCheck struct {
	checkBase
	key []tree.Name
}

var _ Check = (*UniqueKeyCheck)(nil)

func NewUniqueKeyCheck(cfg Config, key []tree.Name) (*UniqueKeyCheck, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	return &UniqueKeyCheck{checkBase: b, key: append([]tree.Name(nil), key...)}, nil
}

func (c *UniqueKeyCheck) Kind() Kind { return KindUniqueKey }
func (c *UniqueKeyCheck) Arity() int { return 1 }

func (c *UniqueKeyCheck) Run(ctx context.Context, rc *RunContext, tables ...*table.Table) error {
	return runCheck(ctx, rc, c, tables, func() (bool, Exceptions, error) {
		keyed := *tables[0]
		if len(c.key) > 0 {
			keyed.Key = c.key
		}
		if len(keyed.Key) == 0 {
			return false, Exceptions{}, configErrorf(c.ID(), "table %s has no key", keyed.Name)
		}
		if _, err := keyed.ColIndexes(keyed.Key); err != nil {
			return false, Exceptions{}, configErrorf(c.ID(), "%s", err.Error())
		}
		// Every row of a run of equal keys is an exception, including the
		// first.
		sorted := keyed.SortedRowIdxs()
		var dups []int
		for i := 0; i < len(sorted); {
			j := i + 1
			for j < len(sorted) && comparectx.CompareDatums(keyed.KeyValues(sorted[i]), keyed.KeyValues(sorted[j])) == 0 {
				j++
			}
			if j-i > 1 {
				dups = append(dups, sorted[i:j]...)
			}
			i = j
		}
		if len(dups) == 0 {
			return true, Exceptions{}, nil
		}
		sort.Ints(dups)
		return false, Exceptions{
			Table: tables[0].Select(dups),
			Info:  fmt.Sprintf("%d rows share a key on (%s)", len(dups), table.JoinNames(keyed.Key)),
		}, nil
	})
}

func (c *UniqueKeyCheck) spec() checkSpec {
	return checkSpec{Kind: KindUniqueKey, Key: namesToStrings(c.key)}
}
