package qc

import (
	"context"
	"testing"

	"github.com/blkbis/idxqc/checkstore"
	"github.com/blkbis/idxqc/testutils"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := Config{ID: "c", Description: "a check", Strict: true}
	mustCheck := func(c Check, err error) Check {
		require.NoError(t, err)
		return c
	}
	for _, tc := range []struct {
		desc  string
		check Check
		run   bool
	}{
		{desc: "filter value check", check: mustCheck(NewValueCheck(cfg, names("sector"), nil, "non_empty_string")), run: true},
		{desc: "sum check", check: mustCheck(NewColumnsSumCheck(cfg, names("id"), decimal(t, "1.50"))), run: true},
		{desc: "index check", check: mustCheck(NewStructuralIndexCheck(cfg, names("id")))},
		{desc: "columns check", check: mustCheck(NewStructuralColumnsCheck(cfg, nil, Uppercase))},
		{desc: "comparison check", check: mustCheck(NewComparisonCheck(cfg, names("id"), "^v"))},
		{desc: "unique check", check: mustCheck(NewUniqueKeyCheck(cfg, names("id")))},
		{desc: "panel check", check: mustCheck(NewPanelCoverageCheck(cfg, "date", "id"))},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if tc.run {
				_ = tc.check.Run(ctx, &RunContext{StrictMode: StrictNever}, sectors(t))
			}
			blob, err := Serialize(tc.check)
			require.NoError(t, err)
			restored, err := Deserialize(blob)
			require.NoError(t, err)

			require.Equal(t, tc.check.ID(), restored.ID())
			require.Equal(t, tc.check.Kind(), restored.Kind())
			require.Equal(t, tc.check.Description(), restored.Description())
			require.Equal(t, tc.check.Strict(), restored.Strict())
			require.Equal(t, tc.check.spec(), restored.spec())

			origRes, origErr := tc.check.Result()
			res, err := restored.Result()
			if origErr != nil {
				require.True(t, errors.Is(err, ErrNotRun))
				return
			}
			require.NoError(t, err)
			require.Equal(t, origRes.State, res.State)
			require.Equal(t, origRes.Successful, res.Successful)
			require.Equal(t, origRes.Exceptions.Info, res.Exceptions.Info)
			if origRes.Exceptions.Table != nil {
				require.Equal(t, origRes.Exceptions.Table.Grid(), res.Exceptions.Table.Grid())
			}
		})
	}
}

func TestSerializeRawPredicate(t *testing.T) {
	ctx := context.Background()
	c, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities"}, names("sector"), notUtil, "")
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, nil, sectors(t)))

	blob, err := Serialize(c)
	require.NoError(t, err)
	restored, err := Deserialize(blob)
	require.NoError(t, err)

	res, err := restored.Result()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"id", "sector"}, {"2", "UTIL"}}, res.Exceptions.Table.Grid())

	// The predicate function is not persisted.
	restored.Reset()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(restored.Run(ctx, nil, sectors(t)), &cfgErr))

	vc := restored.(*ValueCheck)
	require.NoError(t, vc.WithPredicate(notUtil))
	require.NoError(t, vc.Run(ctx, nil, sectors(t)))
	res, err = vc.Result()
	require.NoError(t, err)
	require.False(t, res.Successful)
}

func TestDeserializeErrors(t *testing.T) {
	_, err := Deserialize([]byte("not a blob"))
	require.Error(t, err)

	enc, err := checkstore.Compress([]byte(`{"version": 2}`))
	require.NoError(t, err)
	_, err = Deserialize(enc)
	require.EqualError(t, err, "unsupported check blob version 2")

	enc, err = checkstore.Compress([]byte(`{"version": 1, "spec": {"kind": "bogus", "id": "x", "description": "y"}}`))
	require.NoError(t, err)
	_, err = Deserialize(enc)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestSaveAndLoadCheck(t *testing.T) {
	ctx := context.Background()
	store := checkstore.NewMemStore()
	c, err := NewUniqueKeyCheck(Config{ID: "u", Description: "unique"}, names("id"))
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, nil, testutils.MakeTable(t, "t", "id:int", "1", "2")))
	require.NoError(t, SaveCheck(ctx, store, "checks/u.qc", c))
	require.Equal(t, 1, store.Locations())

	loaded, err := LoadCheck(ctx, store, "checks/u.qc")
	require.NoError(t, err)
	res, err := loaded.Result()
	require.NoError(t, err)
	require.Equal(t, Succeeded, res.State)
	require.True(t, res.Successful)
}
