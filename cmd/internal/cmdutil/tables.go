package cmdutil

import (
	"context"
	"fmt"

	"github.com/blkbis/idxqc/compare"
	"github.com/blkbis/idxqc/table"
	"github.com/blkbis/idxqc/tableio"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/types"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type tablesConfig struct {
	key          []string
	types        map[string]string
	noInfer      bool
	columnFilter string
	pgURL        string
	queries      []string
}

var tablesCfg = tablesConfig{
	columnFilter: compare.DefaultFilterString,
}

func RegisterTableFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceVar(
		&tablesCfg.key,
		"key",
		nil,
		"key columns of the tables",
	)
	cmd.PersistentFlags().StringToStringVar(
		&tablesCfg.types,
		"type",
		nil,
		"column types, e.g. --type id=int,weight=decimal",
	)
	cmd.PersistentFlags().BoolVar(
		&tablesCfg.noInfer,
		"no-infer",
		false,
		"read columns without an explicit type as strings",
	)
}

func RegisterColumnFilterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&tablesCfg.columnFilter,
		"column-filter",
		tablesCfg.columnFilter,
		"POSIX regexp filter for columns to compare",
	)
}

func RegisterPGFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&tablesCfg.pgURL,
		"pg-url",
		"",
		"URL of a Postgres database to load tables from instead of files",
	)
	cmd.PersistentFlags().StringArrayVar(
		&tablesCfg.queries,
		"query",
		nil,
		"query loading a table from --pg-url; repeat for several tables",
	)
}

func KeyColumns() []tree.Name {
	var ret []tree.Name
	for _, k := range tablesCfg.key {
		ret = append(ret, tree.Name(k))
	}
	return ret
}

func ColumnFilter() compare.FilterString {
	return tablesCfg.columnFilter
}

// LoadOptions returns the table loading options set by flags.
func LoadOptions() (tableio.Options, error) {
	o := tableio.Options{
		Key:   KeyColumns(),
		Infer: !tablesCfg.noInfer,
	}
	if len(tablesCfg.types) > 0 {
		o.Types = make(map[string]*types.T, len(tablesCfg.types))
		for col, name := range tablesCfg.types {
			typ, err := table.ParseType(name)
			if err != nil {
				return tableio.Options{}, errors.Wrapf(err, "column %s", col)
			}
			o.Types[col] = typ
		}
	}
	return o, nil
}

// LoadTables loads tables from the given files or, if --pg-url is set, from
// the configured queries.
func LoadTables(ctx context.Context, logger zerolog.Logger, paths []string) ([]*table.Table, error) {
	o, err := LoadOptions()
	if err != nil {
		return nil, err
	}
	var ret []*table.Table
	if tablesCfg.pgURL != "" {
		if len(paths) > 0 {
			return nil, errors.New("files cannot be given with --pg-url")
		}
		conn, err := pgx.Connect(ctx, tablesCfg.pgURL)
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to postgres")
		}
		defer func() { _ = conn.Close(ctx) }()
		for i, q := range tablesCfg.queries {
			t, err := tableio.LoadPGQuery(ctx, conn, fmt.Sprintf("query_%d", i+1), o, q)
			if err != nil {
				return nil, err
			}
			logger.Debug().Str("table", t.Name).Int("rows", t.NumRows()).Msgf("loaded table")
			ret = append(ret, t)
		}
		return ret, nil
	}
	for _, path := range paths {
		t, err := tableio.LoadFile(path, o)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("table", t.Name).Int("rows", t.NumRows()).Msgf("loaded table")
		ret = append(ret, t)
	}
	return ret, nil
}
