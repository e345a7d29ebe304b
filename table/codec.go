package table

import (
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

type encodedColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type encodedTable struct {
	Name    string          `json:"name"`
	Columns []encodedColumn `json:"columns"`
	Key     []string        `json:"key,omitempty"`
	Rows    [][]*string     `json:"rows"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	enc := encodedTable{
		Name:    t.Name,
		Columns: make([]encodedColumn, len(t.Columns)),
		Rows:    make([][]*string, len(t.Rows)),
	}
	for i, col := range t.Columns {
		enc.Columns[i] = encodedColumn{Name: string(col.Name), Type: TypeName(col.Type)}
	}
	for _, k := range t.Key {
		enc.Key = append(enc.Key, string(k))
	}
	for i, row := range t.Rows {
		enc.Rows[i] = make([]*string, len(row))
		for j, d := range row {
			s, ok, err := EncodeDatum(d)
			if err != nil {
				return nil, errors.Wrapf(err, "error encoding row %d column %s", i, t.Columns[j].Name)
			}
			if ok {
				enc.Rows[i][j] = &s
			}
		}
	}
	return json.Marshal(enc)
}

func (t *Table) UnmarshalJSON(b []byte) error {
	var enc encodedTable
	if err := json.Unmarshal(b, &enc); err != nil {
		return errors.Wrap(err, "error decoding table")
	}
	ret := Table{Name: enc.Name}
	for _, col := range enc.Columns {
		typ, err := ParseType(col.Type)
		if err != nil {
			return errors.Wrapf(err, "column %s", col.Name)
		}
		ret.Columns = append(ret.Columns, Column{Name: tree.Name(col.Name), Type: typ})
	}
	for _, k := range enc.Key {
		ret.Key = append(ret.Key, tree.Name(k))
	}
	for i, encRow := range enc.Rows {
		if len(encRow) != len(ret.Columns) {
			return errors.Newf("row %d has %d values, expected %d", i, len(encRow), len(ret.Columns))
		}
		row := make(tree.Datums, len(encRow))
		for j, s := range encRow {
			if s == nil {
				row[j] = tree.DNull
				continue
			}
			d, err := DecodeDatum(*s, ret.Columns[j].Type)
			if err != nil {
				return errors.Wrapf(err, "error decoding row %d column %s", i, ret.Columns[j].Name)
			}
			row[j] = d
		}
		ret.Rows = append(ret.Rows, row)
	}
	if err := ret.Validate(); err != nil {
		return err
	}
	*t = ret
	return nil
}
