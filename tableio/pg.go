package tableio

import (
	"context"
	"time"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/cockroachdb-parser/pkg/util/uuid"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq/oid"
)

// LoadPGQuery loads the result of a query into a table.
func LoadPGQuery(
	ctx context.Context, conn *pgx.Conn, name string, o Options, query string, args ...any,
) (*table.Table, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "error querying %s", name)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]table.Column, len(fds))
	oids := make([]oid.Oid, len(fds))
	for i, fd := range fds {
		oids[i] = oid.Oid(fd.DataTypeOID)
		typ, err := pgColumnType(oids[i])
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", fd.Name)
		}
		cols[i] = table.Column{Name: tree.Name(fd.Name), Type: typ}
	}
	t := table.New(name, cols...)
	typMap := conn.TypeMap()
	m := loadedRows.WithLabelValues("postgres")
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading row %d of %s", t.NumRows(), name)
		}
		datums, err := convertPGRowValues(typMap, vals, oids)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d of %s", t.NumRows(), name)
		}
		if err := t.AppendRow(datums...); err != nil {
			return nil, err
		}
		m.Inc()
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", name)
	}
	return finish(t, o)
}

// pgColumnType maps a Postgres type to the column type its values are
// loaded as.
func pgColumnType(typOID oid.Oid) (*types.T, error) {
	switch typOID {
	case pgtype.BoolOID:
		return types.Bool, nil
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return types.Int, nil
	case pgtype.Float4OID, pgtype.Float8OID:
		return types.Float, nil
	case pgtype.NumericOID:
		return types.Decimal, nil
	case pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.DateOID:
		return types.Timestamp, nil
	case pgtype.VarcharOID, pgtype.TextOID, pgtype.BPCharOID, pgtype.NameOID, pgtype.UUIDOID:
		return types.String, nil
	}
	if typ, ok := types.OidToType[typOID]; ok {
		return nil, errors.Newf("type %s is not supported", typ.SQLString())
	}
	return nil, errors.Newf("type OID %d is not supported", typOID)
}

func convertPGRowValue(typMap *pgtype.Map, val any, typOID oid.Oid) (tree.Datum, error) {
	if val == nil {
		return tree.DNull, nil
	}
	switch typOID {
	case pgtype.BoolOID:
		return tree.MakeDBool(tree.DBool(val.(bool))), nil
	case pgtype.VarcharOID, pgtype.TextOID, pgtype.BPCharOID, pgtype.NameOID:
		return tree.NewDString(val.(string)), nil
	case pgtype.UUIDOID:
		b := val.([16]uint8)
		u, err := uuid.FromBytes(b[:])
		if err != nil {
			return nil, errors.Wrapf(err, "error decoding UUID %v", val)
		}
		return tree.NewDString(u.String()), nil
	case pgtype.Float4OID:
		return tree.NewDFloat(tree.DFloat(val.(float32))), nil
	case pgtype.Float8OID:
		return tree.NewDFloat(tree.DFloat(val.(float64))), nil
	case pgtype.Int2OID:
		return tree.NewDInt(tree.DInt(val.(int16))), nil
	case pgtype.Int4OID:
		return tree.NewDInt(tree.DInt(val.(int32))), nil
	case pgtype.Int8OID:
		return tree.NewDInt(tree.DInt(val.(int64))), nil
	case pgtype.TimestampOID, pgtype.DateOID:
		return tree.MakeDTimestamp(val.(time.Time), time.Microsecond)
	case pgtype.TimestamptzOID:
		return tree.MakeDTimestamp(val.(time.Time).UTC(), time.Microsecond)
	case pgtype.NumericOID:
		return convertNumeric(val.(pgtype.Numeric))
	}
	if typ, ok := typMap.TypeForOID(uint32(typOID)); ok {
		if _, isEnum := typ.Codec.(*pgtype.EnumCodec); isEnum {
			return tree.NewDString(val.(string)), nil
		}
	}
	return nil, errors.AssertionFailedf("value %v (%T) of type OID %d not yet translatable", val, val, typOID)
}

func convertNumeric(val pgtype.Numeric) (*tree.DDecimal, error) {
	switch {
	case val.NaN:
		return tree.ParseDDecimal("NaN")
	case val.InfinityModifier == pgtype.Infinity:
		return tree.ParseDDecimal("Inf")
	case val.InfinityModifier == pgtype.NegativeInfinity:
		return tree.ParseDDecimal("-Inf")
	}
	var coeff apd.BigInt
	coeff.SetMathBigInt(val.Int)
	return &tree.DDecimal{Decimal: *apd.NewWithBigInt(&coeff, val.Exp)}, nil
}

func convertPGRowValues(typMap *pgtype.Map, vals []any, typOIDs []oid.Oid) (tree.Datums, error) {
	if len(vals) != len(typOIDs) {
		return nil, errors.AssertionFailedf("val length != oid length: %v vs %v", vals, typOIDs)
	}
	ret := make(tree.Datums, len(vals))
	for i := range vals {
		var err error
		if ret[i], err = convertPGRowValue(typMap, vals[i], typOIDs[i]); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
