// Package filters holds the named value predicates which checks and check
// configuration may refer to.
package filters

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

// Func reports whether a single value is acceptable.
type Func func(d tree.Datum) bool

type Filter struct {
	Name        string
	Description string
	Fn          Func
}

var registry struct {
	sync.RWMutex
	filters map[string]Filter
}

// ErrUnknownFilter is returned by Lookup for unregistered names.
var ErrUnknownFilter = errors.New("unknown filter")

// Register adds a filter to the registry. It is expected to be called from
// init functions and panics on duplicate or malformed filters.
func Register(f Filter) {
	if f.Name == "" || f.Fn == nil {
		panic(errors.AssertionFailedf("filter must have a name and a function"))
	}
	registry.Lock()
	defer registry.Unlock()
	if registry.filters == nil {
		registry.filters = make(map[string]Filter)
	}
	if _, ok := registry.filters[f.Name]; ok {
		panic(errors.AssertionFailedf("filter %q registered twice", f.Name))
	}
	registry.filters[f.Name] = f
}

func Lookup(name string) (Filter, error) {
	registry.RLock()
	defer registry.RUnlock()
	f, ok := registry.filters[name]
	if !ok {
		return Filter{}, errors.Wrapf(ErrUnknownFilter, "%q (known filters: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return f, nil
}

// Names returns the registered filter names in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	ret := make([]string, 0, len(registry.filters))
	for name := range registry.filters {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

func init() {
	Register(Filter{
		Name:        "not_null",
		Description: "value is present",
		Fn:          func(d tree.Datum) bool { return d != tree.DNull },
	})
	Register(Filter{
		Name:        "positive",
		Description: "numeric value is greater than zero",
		Fn:          func(d tree.Datum) bool { return sign(d) > 0 },
	})
	Register(Filter{
		Name:        "non_negative",
		Description: "numeric value is zero or greater",
		Fn:          func(d tree.Datum) bool { return sign(d) >= 0 },
	})
	Register(Filter{
		Name:        "non_empty_string",
		Description: "string value has non-whitespace content",
		Fn: func(d tree.Datum) bool {
			s, ok := d.(*tree.DString)
			return ok && strings.TrimSpace(string(*s)) != ""
		},
	})
	Register(Filter{
		Name:        "lowercase",
		Description: "string value has no upper case characters",
		Fn: func(d tree.Datum) bool {
			s, ok := d.(*tree.DString)
			return ok && strings.ToLower(string(*s)) == string(*s)
		},
	})
	Register(Filter{
		Name:        "finite",
		Description: "numeric value is neither NaN nor infinite",
		Fn: func(d tree.Datum) bool {
			switch d := d.(type) {
			case *tree.DInt:
				return true
			case *tree.DFloat:
				f := float64(*d)
				return !math.IsNaN(f) && !math.IsInf(f, 0)
			case *tree.DDecimal:
				return d.Form == apd.Finite
			}
			return false
		},
	})
}

// sign returns -1, 0 or 1 for numeric values, and -2 for anything else,
// including NULL and NaN.
func sign(d tree.Datum) int {
	switch d := d.(type) {
	case *tree.DInt:
		switch {
		case *d > 0:
			return 1
		case *d < 0:
			return -1
		}
		return 0
	case *tree.DFloat:
		f := float64(*d)
		switch {
		case math.IsNaN(f):
			return -2
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return 0
	case *tree.DDecimal:
		if d.Form == apd.NaN || d.Form == apd.NaNSignaling {
			return -2
		}
		return d.Sign()
	}
	return -2
}

// CheckColumns applies fn to every value of the given columns. It returns
// whether every value passed, along with the positions of the rows in which
// any value failed.
func CheckColumns(t *table.Table, cols []tree.Name, fn Func) (bool, []int, error) {
	idxs, err := t.ColIndexes(cols)
	if err != nil {
		return false, nil, err
	}
	var failing []int
	for rowIdx, row := range t.Rows {
		for _, idx := range idxs {
			if !fn(row[idx]) {
				failing = append(failing, rowIdx)
				break
			}
		}
	}
	return len(failing) == 0, failing, nil
}

// FilterRows returns the rows of t in which every value of the given columns
// passes fn.
func FilterRows(t *table.Table, cols []tree.Name, fn Func) (*table.Table, error) {
	idxs, err := t.ColIndexes(cols)
	if err != nil {
		return nil, err
	}
	var keep []int
	for rowIdx, row := range t.Rows {
		ok := true
		for _, idx := range idxs {
			if !fn(row[idx]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, rowIdx)
		}
	}
	return t.Select(keep), nil
}
