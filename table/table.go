package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blkbis/idxqc/comparectx"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

// Column is a named, typed column of a Table.
type Column struct {
	Name tree.Name
	Type *types.T
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s", c.Name, TypeName(c.Type))
}

// Table is an in-memory dataset. Rows are stored row major, with one datum
// per column. Key holds the index columns, which may be empty, a single
// column or composite.
//
// A Table is not safe for concurrent mutation; callers must not modify a
// table while it is being compared or checked.
type Table struct {
	Name    string
	Columns []Column
	Rows    []tree.Datums
	Key     []tree.Name
}

// New creates an empty table with the given columns.
func New(name string, cols ...Column) *Table {
	return &Table{
		Name:    name,
		Columns: append([]Column(nil), cols...),
	}
}

func (t *Table) String() string {
	return fmt.Sprintf("%s (%d columns, %d rows)", t.Name, len(t.Columns), len(t.Rows))
}

func (t *Table) NumRows() int {
	return len(t.Rows)
}

func (t *Table) NumCols() int {
	return len(t.Columns)
}

func (t *Table) ColumnNames() []tree.Name {
	ret := make([]tree.Name, len(t.Columns))
	for i, col := range t.Columns {
		ret[i] = col.Name
	}
	return ret
}

// ColIndex returns the position of the named column, or -1 if the column does
// not exist.
func (t *Table) ColIndex(name tree.Name) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// ColIndexes resolves a list of column names, failing on the first unknown
// column.
func (t *Table) ColIndexes(names []tree.Name) ([]int, error) {
	ret := make([]int, len(names))
	for i, name := range names {
		if ret[i] = t.ColIndex(name); ret[i] == -1 {
			return nil, errors.Newf("column %s not found in table %s", name, t.Name)
		}
	}
	return ret, nil
}

// Column returns the values of the named column.
func (t *Table) Column(name tree.Name) (tree.Datums, error) {
	idx := t.ColIndex(name)
	if idx == -1 {
		return nil, errors.Newf("column %s not found in table %s", name, t.Name)
	}
	ret := make(tree.Datums, len(t.Rows))
	for i, row := range t.Rows {
		ret[i] = row[idx]
	}
	return ret, nil
}

// AppendRow adds a row, checking it against the column definitions.
func (t *Table) AppendRow(vals ...tree.Datum) error {
	if err := t.checkRow(vals); err != nil {
		return errors.Wrapf(err, "row %d", len(t.Rows))
	}
	t.Rows = append(t.Rows, append(tree.Datums(nil), vals...))
	return nil
}

func (t *Table) checkRow(vals tree.Datums) error {
	if len(vals) != len(t.Columns) {
		return errors.Newf("expected %d values, got %d", len(t.Columns), len(vals))
	}
	for i, v := range vals {
		if v == nil {
			return errors.AssertionFailedf("nil datum in column %s", t.Columns[i].Name)
		}
		if !TypeCompatible(v, t.Columns[i].Type) {
			return errors.Newf(
				"value %s of type %s does not match column %s",
				FormatDatum(v),
				v.ResolvedType().SQLString(),
				t.Columns[i],
			)
		}
	}
	return nil
}

// SetKey sets the index columns of the table.
func (t *Table) SetKey(cols ...tree.Name) error {
	if _, err := t.ColIndexes(cols); err != nil {
		return errors.Wrap(err, "error setting key")
	}
	t.Key = append([]tree.Name(nil), cols...)
	return nil
}

// KeyValues returns the index values of the given row.
func (t *Table) KeyValues(row int) tree.Datums {
	ret := make(tree.Datums, len(t.Key))
	for i, k := range t.Key {
		ret[i] = t.Rows[row][t.ColIndex(k)]
	}
	return ret
}

// Validate checks that every row is as wide as the column list, that every
// value agrees with its declared column type and that the key columns exist.
func (t *Table) Validate() error {
	seen := make(map[tree.Name]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		if col.Type == nil {
			return errors.Newf("column %s has no type", col.Name)
		}
		if _, ok := seen[col.Name]; ok {
			return errors.Newf("duplicate column %s", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	for i, row := range t.Rows {
		if err := t.checkRow(row); err != nil {
			return errors.Wrapf(err, "table %s row %d", t.Name, i)
		}
	}
	if _, err := t.ColIndexes(t.Key); err != nil {
		return errors.Wrap(err, "invalid key")
	}
	return nil
}

// Select returns a table holding only the given rows. Rows are shared with
// the original table.
func (t *Table) Select(rowIdxs []int) *Table {
	ret := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Key:     append([]tree.Name(nil), t.Key...),
		Rows:    make([]tree.Datums, 0, len(rowIdxs)),
	}
	for _, idx := range rowIdxs {
		ret.Rows = append(ret.Rows, t.Rows[idx])
	}
	return ret
}

// Project returns a table holding only the given columns, in the given order.
// Key columns which are not projected are dropped from the key.
func (t *Table) Project(cols []tree.Name) (*Table, error) {
	idxs, err := t.ColIndexes(cols)
	if err != nil {
		return nil, err
	}
	ret := &Table{Name: t.Name, Rows: make([]tree.Datums, len(t.Rows))}
	for _, idx := range idxs {
		ret.Columns = append(ret.Columns, t.Columns[idx])
	}
	for _, k := range t.Key {
		if ret.ColIndex(k) != -1 {
			ret.Key = append(ret.Key, k)
		}
	}
	for i, row := range t.Rows {
		newRow := make(tree.Datums, len(idxs))
		for j, idx := range idxs {
			newRow[j] = row[idx]
		}
		ret.Rows[i] = newRow
	}
	return ret, nil
}

// SortedRowIdxs returns the row positions ordered by the key. Rows with equal
// keys keep their relative order.
func (t *Table) SortedRowIdxs() []int {
	keyIdxs := make([]int, len(t.Key))
	for i, k := range t.Key {
		keyIdxs[i] = t.ColIndex(k)
	}
	ret := make([]int, len(t.Rows))
	for i := range ret {
		ret[i] = i
	}
	sort.SliceStable(ret, func(i, j int) bool {
		a, b := t.Rows[ret[i]], t.Rows[ret[j]]
		for _, idx := range keyIdxs {
			if c := comparectx.Compare(a[idx], b[idx]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return ret
}

// SortByKey returns a copy of the table ordered by its key.
func (t *Table) SortByKey() *Table {
	return t.Select(t.SortedRowIdxs())
}

// DuplicateKeys returns the positions of rows whose key repeats a key seen in
// an earlier row.
func (t *Table) DuplicateKeys() []int {
	if len(t.Key) == 0 {
		return nil
	}
	sorted := t.SortedRowIdxs()
	var dups []int
	for i := 1; i < len(sorted); i++ {
		if comparectx.CompareDatums(t.KeyValues(sorted[i-1]), t.KeyValues(sorted[i])) == 0 {
			dups = append(dups, sorted[i])
		}
	}
	sort.Ints(dups)
	return dups
}

// SameColumnNames reports whether two column lists hold the same names.
func SameColumnNames(a, b []tree.Name) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// JoinNames formats a list of names for messages.
func JoinNames(names []tree.Name) string {
	strs := make([]string, len(names))
	for i, n := range names {
		strs[i] = string(n)
	}
	return strings.Join(strs, ", ")
}
