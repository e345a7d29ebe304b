package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/cockroachdb-parser/pkg/util/duration"
	"github.com/cockroachdb/cockroachdb-parser/pkg/util/timeutil/pgdate"
	"github.com/cockroachdb/errors"
)

// parseContext implements tree.ParseContext for timestamp parsing.
type parseContext struct{}

var _ tree.ParseContext = (*parseContext)(nil)

func (p parseContext) GetCollationEnv() *tree.CollationEnvironment {
	return nil
}

func (p parseContext) GetDateHelper() *pgdate.ParseHelper {
	return nil
}

func (p parseContext) GetRelativeParseTime() time.Time {
	return time.Now().UTC()
}

func (p parseContext) GetIntervalStyle() duration.IntervalStyle {
	return duration.IntervalStyle_POSTGRES
}

func (p parseContext) GetDateStyle() pgdate.DateStyle {
	return pgdate.DefaultDateStyle()
}

var parseCtx = &parseContext{}

var typeNames = []struct {
	name string
	typ  *types.T
}{
	{name: "string", typ: types.String},
	{name: "int", typ: types.Int},
	{name: "float", typ: types.Float},
	{name: "decimal", typ: types.Decimal},
	{name: "bool", typ: types.Bool},
	{name: "timestamp", typ: types.Timestamp},
}

// TypeName returns the short name of a supported column type.
func TypeName(typ *types.T) string {
	if typ == nil {
		return "unknown"
	}
	for _, tn := range typeNames {
		if tn.typ.Equivalent(typ) {
			return tn.name
		}
	}
	return strings.ToLower(typ.SQLString())
}

// ParseType is the inverse of TypeName.
func ParseType(name string) (*types.T, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, tn := range typeNames {
		if tn.name == name {
			return tn.typ, nil
		}
	}
	switch name {
	case "integer", "int8", "bigint":
		return types.Int, nil
	case "float8", "double":
		return types.Float, nil
	case "boolean":
		return types.Bool, nil
	case "datetime", "date":
		return types.Timestamp, nil
	case "text", "varchar":
		return types.String, nil
	}
	return nil, errors.Newf("unsupported column type %q", name)
}

// TypeCompatible reports whether a datum can be stored in a column of the
// given type. NULL fits every column.
func TypeCompatible(d tree.Datum, typ *types.T) bool {
	if d == tree.DNull {
		return true
	}
	return d.ResolvedType().Equivalent(typ)
}

// IsNumeric reports whether values of the type can be summed.
func IsNumeric(typ *types.T) bool {
	switch typ.Family() {
	case types.IntFamily, types.FloatFamily, types.DecimalFamily:
		return true
	}
	return false
}

// FormatDatum renders a datum for display.
func FormatDatum(d tree.Datum) string {
	f := tree.NewFmtCtx(tree.FmtBareStrings)
	f.FormatNode(d)
	return f.CloseAndGetString()
}

// ParseDatum converts a textual value into a datum of the given type.
func ParseDatum(s string, typ *types.T) (tree.Datum, error) {
	switch typ.Family() {
	case types.StringFamily:
		return tree.NewDString(s), nil
	case types.IntFamily:
		return tree.ParseDInt(strings.TrimSpace(s))
	case types.FloatFamily:
		return tree.ParseDFloat(strings.TrimSpace(s))
	case types.DecimalFamily:
		return tree.ParseDDecimal(strings.TrimSpace(s))
	case types.BoolFamily:
		return tree.ParseDBool(strings.TrimSpace(s))
	case types.TimestampFamily:
		ret, _, err := tree.ParseDTimestamp(parseCtx, strings.TrimSpace(s), time.Microsecond)
		return ret, err
	}
	return nil, errors.AssertionFailedf("value type %s not yet translatable", typ.SQLString())
}

const encodedTimeLayout = time.RFC3339Nano

// EncodeDatum converts a datum into a string which DecodeDatum restores
// exactly. The boolean result is false for NULL.
func EncodeDatum(d tree.Datum) (string, bool, error) {
	switch d := d.(type) {
	case *tree.DString:
		return string(*d), true, nil
	case *tree.DInt:
		return strconv.FormatInt(int64(*d), 10), true, nil
	case *tree.DFloat:
		return strconv.FormatFloat(float64(*d), 'g', -1, 64), true, nil
	case *tree.DDecimal:
		return d.Decimal.String(), true, nil
	case *tree.DBool:
		return strconv.FormatBool(bool(*d)), true, nil
	case *tree.DTimestamp:
		return d.Time.UTC().Format(encodedTimeLayout), true, nil
	}
	if d == tree.DNull {
		return "", false, nil
	}
	return "", false, errors.AssertionFailedf("cannot encode datum of type %T", d)
}

// DecodeDatum is the inverse of EncodeDatum.
func DecodeDatum(s string, typ *types.T) (tree.Datum, error) {
	if typ.Family() == types.TimestampFamily {
		t, err := time.Parse(encodedTimeLayout, s)
		if err != nil {
			return nil, errors.Wrapf(err, "error decoding timestamp %q", s)
		}
		return tree.MakeDTimestamp(t, time.Microsecond)
	}
	return ParseDatum(s, typ)
}
