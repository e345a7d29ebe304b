package qc

import (
	"context"

	"github.com/blkbis/idxqc/checkstore"
	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

const blobVersion = 1

// checkSpec is the persisted configuration of a check. Only the fields
// relevant to Kind are set.
type checkSpec struct {
	Kind         Kind     `json:"kind"`
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Strict       bool     `json:"strict"`
	Columns      []string `json:"columns,omitempty"`
	Filter       string   `json:"filter,omitempty"`
	RawPredicate bool     `json:"raw_predicate,omitempty"`
	Value        string   `json:"value,omitempty"`
	Key          []string `json:"key,omitempty"`
	ColumnFilter string   `json:"column_filter,omitempty"`
	Convention   string   `json:"convention,omitempty"`
	DateColumn   string   `json:"date_column,omitempty"`
	IDColumn     string   `json:"id_column,omitempty"`
}

type encodedResult struct {
	State            string       `json:"state"`
	Successful       bool         `json:"successful"`
	ExceptionTable   *table.Table `json:"exception_table,omitempty"`
	ExceptionColumns []string     `json:"exception_columns,omitempty"`
	ExceptionInfo    string       `json:"exception_info,omitempty"`
}

type encodedCheck struct {
	Version int           `json:"version"`
	Spec    checkSpec     `json:"spec"`
	Result  encodedResult `json:"result"`
}

// Serialize encodes the configuration and last result of a check into an
// opaque blob. Checks built with a predicate function are restored without
// it; see ValueCheck.WithPredicate.
func Serialize(c Check) ([]byte, error) {
	b := c.base()
	spec := c.spec()
	spec.ID = b.cfg.ID
	spec.Description = b.cfg.Description
	spec.Strict = b.cfg.Strict
	enc := encodedCheck{
		Version: blobVersion,
		Spec:    spec,
		Result: encodedResult{
			State:            b.result.State.String(),
			Successful:       b.result.Successful,
			ExceptionTable:   b.result.Exceptions.Table,
			ExceptionColumns: b.result.Exceptions.Columns,
			ExceptionInfo:    b.result.Exceptions.Info,
		},
	}
	// A running check is persisted as not yet run.
	if b.result.State == Running {
		enc.Result = encodedResult{State: Created.String()}
	}
	data, err := json.Marshal(enc)
	if err != nil {
		return nil, errors.Wrapf(err, "error encoding check %s", c.ID())
	}
	return checkstore.Compress(data)
}

// Deserialize is the inverse of Serialize.
func Deserialize(blob []byte) (Check, error) {
	data, err := checkstore.Decompress(blob)
	if err != nil {
		return nil, err
	}
	var enc encodedCheck
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, errors.Wrap(err, "error decoding check")
	}
	if enc.Version != blobVersion {
		return nil, errors.Newf("unsupported check blob version %d", enc.Version)
	}
	c, err := fromSpec(enc.Spec)
	if err != nil {
		return nil, err
	}
	state, ok := parseState(enc.Result.State)
	if !ok {
		return nil, errors.Newf("unknown check state %q", enc.Result.State)
	}
	c.base().result = Result{
		State:      state,
		Successful: enc.Result.Successful,
		Exceptions: Exceptions{
			Table:   enc.Result.ExceptionTable,
			Columns: enc.Result.ExceptionColumns,
			Info:    enc.Result.ExceptionInfo,
		},
	}
	return c, nil
}

func fromSpec(s checkSpec) (Check, error) {
	cfg := Config{ID: s.ID, Description: s.Description, Strict: s.Strict}
	switch s.Kind {
	case KindValue:
		if s.RawPredicate {
			b, err := newBase(cfg)
			if err != nil {
				return nil, err
			}
			return &ValueCheck{
				checkBase:      b,
				columns:        stringsToNames(s.Columns),
				needsPredicate: true,
			}, nil
		}
		return NewValueCheck(cfg, stringsToNames(s.Columns), nil, s.Filter)
	case KindColumnsSum:
		v, _, err := apd.NewFromString(s.Value)
		if err != nil {
			return nil, configErrorf(s.ID, "invalid expected sum %q", s.Value)
		}
		return NewColumnsSumCheck(cfg, stringsToNames(s.Columns), *v)
	case KindIndex:
		return NewStructuralIndexCheck(cfg, stringsToNames(s.Key))
	case KindColumnsCase:
		conv, err := ParseConvention(s.Convention)
		if err != nil {
			return nil, err
		}
		return NewStructuralColumnsCheck(cfg, stringsToNames(s.Columns), conv)
	case KindComparison:
		return NewComparisonCheck(cfg, stringsToNames(s.Key), s.ColumnFilter)
	case KindUniqueKey:
		return NewUniqueKeyCheck(cfg, stringsToNames(s.Key))
	case KindPanelCoverage:
		return NewPanelCoverageCheck(cfg, tree.Name(s.DateColumn), tree.Name(s.IDColumn))
	}
	return nil, configErrorf(s.ID, "unknown check kind %q", s.Kind)
}

// SaveCheck persists a check to the given location.
func SaveCheck(ctx context.Context, store checkstore.Store, location string, c Check) error {
	blob, err := Serialize(c)
	if err != nil {
		return err
	}
	return errors.Wrapf(store.Put(ctx, location, blob), "error saving check %s to %s", c.ID(), location)
}

// LoadCheck restores a check saved with SaveCheck. A missing location
// returns an error matching checkstore.ErrNotFound.
func LoadCheck(ctx context.Context, store checkstore.Store, location string) (Check, error) {
	blob, err := store.Get(ctx, location)
	if err != nil {
		return nil, err
	}
	return Deserialize(blob)
}

func namesToStrings(names []tree.Name) []string {
	if len(names) == 0 {
		return nil
	}
	ret := make([]string, len(names))
	for i, n := range names {
		ret[i] = string(n)
	}
	return ret
}

func stringsToNames(strs []string) []tree.Name {
	if len(strs) == 0 {
		return nil
	}
	ret := make([]tree.Name, len(strs))
	for i, s := range strs {
		ret[i] = tree.Name(s)
	}
	return ret
}
