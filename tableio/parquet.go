package tableio

import (
	"io"
	"time"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

const parquetBatchSize = 1024

// parquetColumn maps a leaf column of a parquet file to a table column.
type parquetColumn struct {
	col     table.Column
	convert func(parquet.Value) (tree.Datum, error)
}

// ReadParquet reads a table from a parquet file. Only flat schemas are
// supported.
func ReadParquet(r io.ReaderAt, size int64, name string, o Options) (*table.Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening parquet file for %s", name)
	}
	fields := f.Schema().Fields()
	pcols := make([]parquetColumn, len(fields))
	cols := make([]table.Column, len(fields))
	for i, field := range fields {
		if !field.Leaf() || field.Repeated() {
			return nil, errors.Newf("%s: nested or repeated column %s is not supported", name, field.Name())
		}
		if pcols[i], err = parquetColumnFor(field); err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		cols[i] = pcols[i].col
	}
	t := table.New(name, cols...)
	m := loadedRows.WithLabelValues("parquet")

	buf := make([]parquet.Row, parquetBatchSize)
	for _, rg := range f.RowGroups() {
		if err := func() error {
			rows := rg.Rows()
			defer func() { _ = rows.Close() }()
			for {
				n, readErr := rows.ReadRows(buf)
				for _, row := range buf[:n] {
					datums := make(tree.Datums, len(cols))
					for i := range datums {
						datums[i] = tree.DNull
					}
					for _, v := range row {
						idx := v.Column()
						if idx < 0 || idx >= len(pcols) {
							return errors.AssertionFailedf("value for unknown column %d", idx)
						}
						if v.IsNull() {
							continue
						}
						d, err := pcols[idx].convert(v)
						if err != nil {
							return errors.Wrapf(err, "column %s", cols[idx].Name)
						}
						datums[idx] = d
					}
					if err := t.AppendRow(datums...); err != nil {
						return err
					}
					m.Inc()
				}
				if readErr != nil {
					if readErr == io.EOF {
						return nil
					}
					return readErr
				}
			}
		}(); err != nil {
			return nil, errors.Wrapf(err, "error reading parquet rows for %s", name)
		}
	}
	return finish(t, o)
}

func parquetColumnFor(field parquet.Field) (parquetColumn, error) {
	name := tree.Name(field.Name())
	typ := field.Type()
	lt := typ.LogicalType()
	switch typ.Kind() {
	case parquet.Boolean:
		return parquetColumn{
			col: table.Column{Name: name, Type: types.Bool},
			convert: func(v parquet.Value) (tree.Datum, error) {
				return tree.MakeDBool(tree.DBool(v.Boolean())), nil
			},
		}, nil
	case parquet.Int32, parquet.Int64:
		toInt := func(v parquet.Value) int64 {
			if v.Kind() == parquet.Int32 {
				return int64(v.Int32())
			}
			return v.Int64()
		}
		switch {
		case lt != nil && lt.Date != nil:
			return parquetColumn{
				col: table.Column{Name: name, Type: types.Timestamp},
				convert: func(v parquet.Value) (tree.Datum, error) {
					return tree.MakeDTimestamp(time.Unix(toInt(v)*24*60*60, 0).UTC(), time.Microsecond)
				},
			}, nil
		case lt != nil && lt.Timestamp != nil:
			unit := time.Millisecond
			switch {
			case lt.Timestamp.Unit.Micros != nil:
				unit = time.Microsecond
			case lt.Timestamp.Unit.Nanos != nil:
				unit = time.Nanosecond
			}
			return parquetColumn{
				col: table.Column{Name: name, Type: types.Timestamp},
				convert: func(v parquet.Value) (tree.Datum, error) {
					return tree.MakeDTimestamp(time.Unix(0, toInt(v)*int64(unit)).UTC(), time.Microsecond)
				},
			}, nil
		case lt != nil && lt.Decimal != nil:
			scale := lt.Decimal.Scale
			return parquetColumn{
				col: table.Column{Name: name, Type: types.Decimal},
				convert: func(v parquet.Value) (tree.Datum, error) {
					return &tree.DDecimal{Decimal: *apd.New(toInt(v), -scale)}, nil
				},
			}, nil
		}
		return parquetColumn{
			col: table.Column{Name: name, Type: types.Int},
			convert: func(v parquet.Value) (tree.Datum, error) {
				return tree.NewDInt(tree.DInt(toInt(v))), nil
			},
		}, nil
	case parquet.Float, parquet.Double:
		return parquetColumn{
			col: table.Column{Name: name, Type: types.Float},
			convert: func(v parquet.Value) (tree.Datum, error) {
				if v.Kind() == parquet.Float {
					return tree.NewDFloat(tree.DFloat(v.Float())), nil
				}
				return tree.NewDFloat(tree.DFloat(v.Double())), nil
			},
		}, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		if lt != nil && lt.Decimal != nil {
			return parquetColumn{}, errors.Newf("column %s: byte array decimals are not supported", name)
		}
		return parquetColumn{
			col: table.Column{Name: name, Type: types.String},
			convert: func(v parquet.Value) (tree.Datum, error) {
				return tree.NewDString(string(v.ByteArray())), nil
			},
		}, nil
	}
	return parquetColumn{}, errors.Newf("column %s has unsupported parquet type %s", name, typ)
}
