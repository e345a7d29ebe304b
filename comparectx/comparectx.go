package comparectx

import (
	"time"

	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
)

// compareContext implements tree.CompareContext. Timestamps are compared in UTC.
type compareContext struct{}

func (c *compareContext) UnwrapDatum(d tree.Datum) tree.Datum {
	return d
}

func (c *compareContext) GetLocation() *time.Location {
	return time.UTC
}

func (c *compareContext) GetRelativeParseTime() time.Time {
	return time.Now().UTC()
}

func (c *compareContext) MustGetPlaceholderValue(p *tree.Placeholder) tree.Datum {
	return p
}

var CompareContext = &compareContext{}

// Compare orders two datums of the same type. NULL sorts before every other
// value and is equal to NULL.
func Compare(a, b tree.Datum) int {
	return a.Compare(CompareContext, b)
}

// Equal reports whether two datums hold the same value. Two NULLs are equal.
func Equal(a, b tree.Datum) bool {
	return Compare(a, b) == 0
}

// CompareDatums compares two tuples element by element, as rows are ordered
// by their key.
func CompareDatums(a, b tree.Datums) int {
	for i := range a {
		if i >= len(b) {
			return 1
		}
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	if len(a) < len(b) {
		return -1
	}
	return 0
}
