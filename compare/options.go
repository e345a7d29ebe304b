package compare

import (
	"regexp"

	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/table"
	"github.com/blkbis/idxqc/tableio"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

const DefaultFilterString = ".*"

type FilterString = string

type Opt func(*opts)

type opts struct {
	columnFilter FilterString
	reporter     inconsistency.Reporter
	loadOpts     tableio.Options
}

func makeOpts(o []Opt) opts {
	ret := opts{columnFilter: DefaultFilterString}
	for _, apply := range o {
		apply(&ret)
	}
	return ret
}

// WithColumnFilter restricts the comparison to columns whose names match the
// given POSIX regular expression. Key columns are always compared.
func WithColumnFilter(f FilterString) Opt {
	return func(o *opts) {
		o.columnFilter = f
	}
}

// WithReporter emits structural differences and mismatching rows to the
// given reporter.
func WithReporter(r inconsistency.Reporter) Opt {
	return func(o *opts) {
		o.reporter = r
	}
}

// WithLoadOptions sets the options used to read files in CompareFiles.
func WithLoadOptions(lo tableio.Options) Opt {
	return func(o *opts) {
		o.loadOpts = lo
	}
}

func (o opts) filter(left, right *table.Table, keyColumns []tree.Name) (*table.Table, *table.Table, error) {
	if o.columnFilter == DefaultFilterString || o.columnFilter == "" {
		return left, right, nil
	}
	re, err := CompileColumnFilter(o.columnFilter)
	if err != nil {
		return nil, nil, err
	}
	if left, err = FilterColumns(left, re, keyColumns); err != nil {
		return nil, nil, err
	}
	if right, err = FilterColumns(right, re, keyColumns); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// CompileColumnFilter parses a column filter as a POSIX regular expression.
func CompileColumnFilter(f FilterString) (*regexp.Regexp, error) {
	re, err := regexp.CompilePOSIX(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid column filter %q", f)
	}
	return re, nil
}

// FilterColumns projects t onto the columns matching re, keeping the given
// key columns regardless.
func FilterColumns(t *table.Table, re *regexp.Regexp, keyColumns []tree.Name) (*table.Table, error) {
	isKey := make(map[tree.Name]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		isKey[k] = struct{}{}
	}
	var cols []tree.Name
	for _, col := range t.Columns {
		if _, ok := isKey[col.Name]; ok || re.MatchString(string(col.Name)) {
			cols = append(cols, col.Name)
		}
	}
	return t.Project(cols)
}
