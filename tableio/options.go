// Package tableio loads tables from files and databases.
package tableio

import (
	"strings"
	"time"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

// Options control how a table is read.
type Options struct {
	// Types fixes the type of the named columns.
	Types map[string]*types.T
	// Key is set as the key of the loaded table.
	Key []tree.Name
	// Infer guesses the type of columns without an explicit type. Otherwise
	// such columns are read as strings.
	Infer bool
}

// DateLayouts are the layouts recognised as dates, in order of preference.
var DateLayouts = []string{"2006-01-02", "01/02/2006", "20060102"}

// ConvertString parses a textual value into a datum of the given type. The
// empty string is NULL. Timestamps are also accepted in any of DateLayouts.
func ConvertString(s string, typ *types.T) (tree.Datum, error) {
	if s == "" {
		return tree.DNull, nil
	}
	if typ.Family() == types.TimestampFamily {
		if d, ok := parseDate(strings.TrimSpace(s)); ok {
			return d, nil
		}
	}
	d, err := table.ParseDatum(s, typ)
	if err != nil {
		return nil, errors.Wrapf(err, "error converting %q to %s", s, table.TypeName(typ))
	}
	return d, nil
}

func parseDate(s string) (tree.Datum, bool) {
	for _, layout := range DateLayouts {
		if len(s) != len(layout) {
			continue
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d, err := tree.MakeDTimestamp(t, time.Microsecond)
		if err != nil {
			continue
		}
		return d, true
	}
	return nil, false
}

func finish(t *table.Table, o Options) (*table.Table, error) {
	if len(o.Key) > 0 {
		if err := t.SetKey(o.Key...); err != nil {
			return nil, err
		}
	}
	return t, nil
}
