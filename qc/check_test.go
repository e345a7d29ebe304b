package qc

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/blkbis/idxqc/checkstore"
	"github.com/blkbis/idxqc/compare"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/table"
	"github.com/blkbis/idxqc/testutils"
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func notUtil(d tree.Datum) bool {
	s, ok := d.(*tree.DString)
	return !ok || string(*s) != "UTIL"
}

func names(strs ...string) []tree.Name {
	return stringsToNames(strs)
}

func decimal(t *testing.T, s string) apd.Decimal {
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return *d
}

func sectors(t *testing.T) *table.Table {
	return testutils.MakeTable(
		t,
		"sectors",
		"id:int,sector:string",
		"1,TECH",
		"2,UTIL",
		"3,ENERGY",
	)
}

func TestValueCheckLenient(t *testing.T) {
	ctx := context.Background()
	c, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities"}, names("sector"), notUtil, "")
	require.NoError(t, err)

	_, err = c.Result()
	require.True(t, errors.Is(err, ErrNotRun))

	reporter := &testutils.RecordingReporter{}
	require.NoError(t, c.Run(ctx, &RunContext{Reporter: reporter}, sectors(t)))

	res, err := c.Result()
	require.NoError(t, err)
	require.Equal(t, Failed, res.State)
	require.False(t, res.Successful)
	require.Equal(t, [][]string{{"id", "sector"}, {"2", "UTIL"}}, res.Exceptions.Table.Grid())

	failures := reporter.CheckFailures()
	require.Len(t, failures, 1)
	require.Equal(t, "no_util", failures[0].CheckID)
	require.False(t, failures[0].Strict)
	require.Equal(t, 1, failures[0].Rows.NumRows())
}

func TestColumnsSumCheckStrict(t *testing.T) {
	ctx := context.Background()
	tbl := testutils.MakeTable(t, "flows", "id:int,value:int", "1,0", "2,1", "3,0")
	c, err := NewColumnsSumCheck(
		Config{ID: "zero_sum", Description: "flows net to zero", Strict: true},
		names("value"),
		decimal(t, "0"),
	)
	require.NoError(t, err)

	err = c.Run(ctx, &RunContext{}, tbl)
	var failedErr *CheckFailedError
	require.True(t, errors.As(err, &failedErr), "%v", err)
	require.Equal(t, "zero_sum", failedErr.CheckID)
	require.Equal(t, [][]string{{"id", "value"}, {"2", "1"}}, failedErr.Exceptions.Table.Grid())

	res, err := c.Result()
	require.NoError(t, err)
	require.False(t, res.Successful)
}

func TestColumnsSum(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		desc          string
		header        string
		rows          []string
		columns       []tree.Name
		expected      string
		success       bool
		failingRows   int
		expectedError string
	}{
		{
			desc:     "weights sum to one",
			header:   "a:float,b:float,c:decimal",
			rows:     []string{"0.1,0.2,0.7", "0.5,0.5,0"},
			columns:  names("a", "b", "c"),
			expected: "1",
			success:  true,
		},
		{
			desc:        "nulls count as zero",
			header:      "a:int,b:int",
			rows:        []string{"1,NULL", "NULL,NULL", "0,1"},
			columns:     names("a", "b"),
			expected:    "1",
			success:     false,
			failingRows: 1,
		},
		{
			desc:        "nan never matches",
			header:      "a:float",
			rows:        []string{"NaN", "1"},
			columns:     names("a"),
			expected:    "1",
			success:     false,
			failingRows: 1,
		},
		{
			desc:          "non numeric column",
			header:        "a:string",
			rows:          []string{"x"},
			columns:       names("a"),
			expected:      "0",
			expectedError: "invalid configuration for check sum: column a string is not numeric",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tbl := testutils.MakeTable(t, "t", tc.header, tc.rows...)
			c, err := NewColumnsSumCheck(Config{ID: "sum", Description: "sum"}, tc.columns, decimal(t, tc.expected))
			require.NoError(t, err)
			err = c.Run(ctx, nil, tbl)
			if tc.expectedError != "" {
				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr), "%v", err)
				require.Contains(t, err.Error(), tc.expectedError)
				// A rule which could not be evaluated leaves the check runnable.
				_, err = c.Result()
				require.True(t, errors.Is(err, ErrNotRun))
				return
			}
			require.NoError(t, err)
			res, err := c.Result()
			require.NoError(t, err)
			require.Equal(t, tc.success, res.Successful)
			if !tc.success {
				require.Equal(t, tc.failingRows, res.Exceptions.Table.NumRows())
			}
		})
	}
}

func TestStructuralColumnsCheck(t *testing.T) {
	ctx := context.Background()
	tbl := testutils.MakeTable(t, "t", "Sector:string,id:int")
	for _, tc := range []struct {
		desc       string
		columns    []tree.Name
		convention Convention
		violating  []string
	}{
		{desc: "listed column", columns: names("Sector"), violating: []string{"Sector"}},
		{desc: "all columns", violating: []string{"Sector"}},
		{desc: "lowercase column", columns: names("id")},
		{desc: "uppercase", convention: Uppercase, violating: []string{"Sector", "id"}},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			c, err := NewStructuralColumnsCheck(Config{ID: "case", Description: "column case"}, tc.columns, tc.convention)
			require.NoError(t, err)
			require.NoError(t, c.Run(ctx, nil, tbl))
			res, err := c.Result()
			require.NoError(t, err)
			require.Equal(t, len(tc.violating) == 0, res.Successful)
			require.Equal(t, tc.violating, res.Exceptions.Columns)
		})
	}
}

func TestStructuralIndexCheck(t *testing.T) {
	ctx := context.Background()
	tbl := testutils.MakeTable(t, "prices", "date:string,id:int,px:float")
	c, err := NewStructuralIndexCheck(Config{ID: "index", Description: "indexed by date"}, names("date"))
	require.NoError(t, err)

	require.NoError(t, tbl.SetKey("date", "id"))
	require.NoError(t, c.Run(ctx, nil, tbl))
	res, err := c.Result()
	require.NoError(t, err)
	require.False(t, res.Successful)
	require.Equal(t, "table prices is indexed by (date, id) but expected (date)", res.Exceptions.Info)

	c.Reset()
	require.NoError(t, tbl.SetKey("date"))
	require.NoError(t, c.Run(ctx, nil, tbl))
	res, err = c.Result()
	require.NoError(t, err)
	require.True(t, res.Successful)
	require.True(t, res.Exceptions.Empty())
}

func TestStrictnessContract(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		desc        string
		strict      bool
		mode        StrictMode
		expectError bool
	}{
		{desc: "strict", strict: true, expectError: true},
		{desc: "lenient", strict: false},
		{desc: "forced strict", strict: false, mode: StrictForce, expectError: true},
		{desc: "never strict", strict: true, mode: StrictNever},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			c, err := NewValueCheck(
				Config{ID: "no_util", Description: "no utilities", Strict: tc.strict},
				names("sector"),
				notUtil,
				"",
			)
			require.NoError(t, err)
			err = c.Run(ctx, &RunContext{StrictMode: tc.mode}, sectors(t))
			if tc.expectError {
				var failedErr *CheckFailedError
				require.True(t, errors.As(err, &failedErr))
			} else {
				require.NoError(t, err)
			}
			res, err := c.Result()
			require.NoError(t, err)
			require.False(t, res.Successful)
		})
	}
}

func TestIdempotence(t *testing.T) {
	ctx := context.Background()
	tbl := sectors(t)
	c, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities"}, names("sector"), notUtil, "")
	require.NoError(t, err)

	require.NoError(t, c.Run(ctx, nil, tbl))
	first, err := c.Result()
	require.NoError(t, err)

	require.True(t, errors.Is(c.Run(ctx, nil, tbl), ErrAlreadyRun))

	c.Reset()
	_, err = c.Result()
	require.True(t, errors.Is(err, ErrNotRun))
	require.NoError(t, c.Run(ctx, nil, tbl))
	second, err := c.Result()
	require.NoError(t, err)

	require.Equal(t, first.Successful, second.Successful)
	require.Equal(t, first.Exceptions.Table.Grid(), second.Exceptions.Table.Grid())
	require.Equal(t, first.Exceptions.Info, second.Exceptions.Info)
}

func TestConfigurationErrors(t *testing.T) {
	cfg := Config{ID: "c", Description: "d"}
	for _, tc := range []struct {
		desc string
		fn   func() error
	}{
		{
			desc: "missing id",
			fn: func() error {
				_, err := NewValueCheck(Config{Description: "d"}, names("a"), notUtil, "")
				return err
			},
		},
		{
			desc: "missing description",
			fn: func() error {
				_, err := NewUniqueKeyCheck(Config{ID: "c"}, nil)
				return err
			},
		},
		{
			desc: "predicate and filter",
			fn: func() error {
				_, err := NewValueCheck(cfg, names("a"), notUtil, "not_null")
				return err
			},
		},
		{
			desc: "neither predicate nor filter",
			fn: func() error {
				_, err := NewValueCheck(cfg, names("a"), nil, "")
				return err
			},
		},
		{
			desc: "unknown filter",
			fn: func() error {
				_, err := NewValueCheck(cfg, names("a"), nil, "os.system")
				return err
			},
		},
		{
			desc: "no columns",
			fn: func() error {
				_, err := NewColumnsSumCheck(cfg, nil, decimal(t, "1"))
				return err
			},
		},
		{
			desc: "no expected index",
			fn: func() error {
				_, err := NewStructuralIndexCheck(cfg, nil)
				return err
			},
		},
		{
			desc: "same panel columns",
			fn: func() error {
				_, err := NewPanelCoverageCheck(cfg, "date", "date")
				return err
			},
		},
		{
			desc: "bad column filter",
			fn: func() error {
				_, err := NewComparisonCheck(cfg, names("id"), "[")
				return err
			},
		},
		{
			desc: "wrong number of tables",
			fn: func() error {
				c, err := NewComparisonCheck(cfg, names("id"), "")
				require.NoError(t, err)
				return c.Run(context.Background(), nil, sectors(t))
			},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.fn()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "%v", err)
		})
	}
}

func TestComparisonCheck(t *testing.T) {
	ctx := context.Background()
	left := testutils.MakeTable(t, "left", "id:int,v:int", "1,10", "2,20")
	for _, tc := range []struct {
		desc          string
		right         *table.Table
		key           []tree.Name
		success       bool
		exceptionRows int
		info          string
		incomparable  bool
	}{
		{
			desc:    "identical",
			right:   testutils.MakeTable(t, "right", "id:int,v:int", "2,20", "1,10"),
			key:     names("id"),
			success: true,
		},
		{
			desc:          "value differs",
			right:         testutils.MakeTable(t, "right", "id:int,v:int", "1,10", "2,99"),
			key:           names("id"),
			exceptionRows: 1,
		},
		{
			desc:  "structure differs",
			right: testutils.MakeTable(t, "right", "id:int,w:int", "1,10"),
			key:   names("id"),
			info:  "missing column v; extraneous column w found",
		},
		{
			desc:  "no key",
			right: testutils.MakeTable(t, "right", "id:int,v:int", "2,20", "1,10"),
			info:  "table values differ",
		},
		{
			desc:         "duplicate keys",
			right:        testutils.MakeTable(t, "right", "id:int,v:int", "1,10", "1,20"),
			key:          names("id"),
			incomparable: true,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			c, err := NewComparisonCheck(Config{ID: "cmp", Description: "tables agree", Strict: true}, tc.key, "")
			require.NoError(t, err)
			err = c.Run(ctx, nil, left, tc.right)
			if tc.incomparable {
				var incomparableErr *compare.IncomparableTablesError
				require.True(t, errors.As(err, &incomparableErr), "%v", err)
				return
			}
			if tc.success {
				require.NoError(t, err)
				require.True(t, c.Comparison().Matches())
				return
			}
			var failedErr *CheckFailedError
			require.True(t, errors.As(err, &failedErr))
			if tc.exceptionRows > 0 {
				require.Equal(t, tc.exceptionRows, failedErr.Exceptions.Table.NumRows())
			}
			if tc.info != "" {
				require.Equal(t, tc.info, failedErr.Exceptions.Info)
			}
		})
	}
}

func TestUniqueKeyCheck(t *testing.T) {
	ctx := context.Background()
	tbl := testutils.MakeTable(t, "t", "date:string,id:int", "d1,1", "d1,2", "d2,1", "d1,1")
	c, err := NewUniqueKeyCheck(Config{ID: "unique", Description: "unique key"}, names("date", "id"))
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, nil, tbl))
	res, err := c.Result()
	require.NoError(t, err)
	require.False(t, res.Successful)
	require.Equal(t, [][]string{{"date", "id"}, {"d1", "1"}, {"d1", "1"}}, res.Exceptions.Table.Grid())

	keyless, err := NewUniqueKeyCheck(Config{ID: "unique", Description: "unique key"}, nil)
	require.NoError(t, err)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(keyless.Run(ctx, nil, tbl), &cfgErr))
}

func TestPanelCoverageCheck(t *testing.T) {
	ctx := context.Background()
	c, err := NewPanelCoverageCheck(Config{ID: "panel", Description: "balanced panel"}, "date", "id")
	require.NoError(t, err)

	balanced := testutils.MakeTable(t, "p", "date:string,id:int,w:float", "d1,1,0.5", "d1,2,0.5", "d2,2,0.5", "d2,1,0.5")
	require.NoError(t, c.Run(ctx, nil, balanced))
	res, err := c.Result()
	require.NoError(t, err)
	require.True(t, res.Successful)

	c.Reset()
	unbalanced := testutils.MakeTable(
		t,
		"p",
		"date:string,id:int",
		"d1,1", "d1,2",
		"d2,2", "d2,3",
		"d3,2", "d3,3", "NULL,4",
	)
	require.NoError(t, c.Run(ctx, nil, unbalanced))
	res, err = c.Result()
	require.NoError(t, err)
	require.False(t, res.Successful)
	require.Equal(
		t,
		[][]string{{"date", "id", "event"}, {"d1", "1", "exit"}, {"d2", "3", "enter"}},
		res.Exceptions.Table.Grid(),
	)
	require.Equal(t, "1 ids entered and 1 ids exited the panel across 3 dates", res.Exceptions.Info)
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()
	lenient, err := NewStructuralColumnsCheck(Config{ID: "case", Description: "column case"}, nil, Lowercase)
	require.NoError(t, err)
	passing, err := NewValueCheck(Config{ID: "ids", Description: "ids present"}, names("id"), nil, "not_null")
	require.NoError(t, err)
	strict, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities", Strict: true}, names("sector"), notUtil, "")
	require.NoError(t, err)
	never, err := NewUniqueKeyCheck(Config{ID: "unique", Description: "unique"}, names("id"))
	require.NoError(t, err)

	tbl := testutils.MakeTable(t, "t", "id:int,Sector:string,sector:string", "1,a,UTIL")
	outcomes, err := RunAll(ctx, nil, []Check{lenient, passing, strict, never}, tbl)
	var failedErr *CheckFailedError
	require.True(t, errors.As(err, &failedErr))
	require.Equal(t, "no_util", failedErr.CheckID)
	require.Len(t, outcomes, 3)
	require.Len(t, outcomes.Failed(), 2)
	require.Equal(t, "3 checks run, 2 failed", outcomes.String())

	_, err = never.Result()
	require.True(t, errors.Is(err, ErrNotRun))
}

func TestRunAllStopsOnAlreadyRun(t *testing.T) {
	ctx := context.Background()
	first, err := NewValueCheck(Config{ID: "ids", Description: "ids present"}, names("id"), nil, "not_null")
	require.NoError(t, err)
	second, err := NewUniqueKeyCheck(Config{ID: "unique", Description: "unique"}, names("id"))
	require.NoError(t, err)
	tbl := testutils.MakeTable(t, "t", "id:int,sector:string", "1,a")

	require.NoError(t, second.Run(ctx, &RunContext{}, tbl))
	outcomes, err := RunAll(ctx, &RunContext{}, []Check{first, second}, tbl)
	require.True(t, errors.Is(err, ErrAlreadyRun), "%v", err)
	require.Len(t, outcomes, 1)
	require.Equal(t, "ids", outcomes[0].CheckID)
}

func TestNilRunContextLogs(t *testing.T) {
	var buf bytes.Buffer
	defer func(w io.Writer) { defaultLogOutput = w }(defaultLogOutput)
	defaultLogOutput = &buf

	c, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities"}, names("sector"), notUtil, "")
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background(), nil, sectors(t)))
	require.Contains(t, buf.String(), "check failed: no utilities")
	require.Contains(t, buf.String(), "continuing as the check is lenient")
}

func TestFailedChecksArePersisted(t *testing.T) {
	ctx := context.Background()
	store := checkstore.NewMemStore()
	var buf testutils.RecordingReporter
	rc := &RunContext{
		Reporter: inconsistency.CombinedReporter{Reporters: []inconsistency.Reporter{&buf}},
		Store:    store,
	}
	c, err := NewValueCheck(Config{ID: "no_util", Description: "no utilities"}, names("sector"), nil, "lowercase")
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, rc, sectors(t)))

	loaded, err := LoadCheck(ctx, store, DefaultLocation(c))
	require.NoError(t, err)
	res, err := loaded.Result()
	require.NoError(t, err)
	require.Equal(t, Failed, res.State)
	require.Equal(t, 3, res.Exceptions.Table.NumRows())

	_, err = LoadCheck(ctx, store, "checks/other.qc")
	require.True(t, errors.Is(err, checkstore.ErrNotFound))
}
