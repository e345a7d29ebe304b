package comparecmd

import (
	"context"
	"os"

	"github.com/blkbis/idxqc/cmd/internal/cmdutil"
	"github.com/blkbis/idxqc/compare"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// ErrTablesDiffer is returned when the compared tables are not identical.
var ErrTablesDiffer = errors.New("tables differ")

func Command() *cobra.Command {
	var showDelta bool

	cmd := &cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Compare two tables.",
		Long: `Compare reports how the columns of two tables differ and, when they share a
structure, which rows differ by key.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			reporter := inconsistency.CombinedReporter{}
			reporter.Reporters = append(
				reporter.Reporters,
				inconsistency.LogReporter{Logger: logger},
				inconsistency.WriterReporter{W: cmd.OutOrStdout()},
			)
			defer reporter.Close()

			ctx := context.Background()
			tables, err := cmdutil.LoadTables(ctx, logger, args)
			if err != nil {
				return err
			}
			if len(tables) != 2 {
				return errors.Newf("expected 2 tables, got %d", len(tables))
			}
			res, err := compare.Compare(
				tables[0],
				tables[1],
				cmdutil.KeyColumns(),
				compare.WithColumnFilter(cmdutil.ColumnFilter()),
				compare.WithReporter(reporter),
			)
			if err != nil {
				return errors.Wrapf(err, "error comparing")
			}
			if showDelta && res.Delta != nil {
				out := cmd.OutOrStdout()
				if out == os.Stdout {
					compare.StyleDelta(res.Delta).Render(out)
				} else {
					res.Delta.Table.Render(out)
				}
			}
			if !res.Matches() {
				return ErrTablesDiffer
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(
		&showDelta,
		"show-delta",
		false,
		"print the delta table of the comparison",
	)
	cmdutil.RegisterTableFlags(cmd)
	cmdutil.RegisterColumnFilterFlags(cmd)
	cmdutil.RegisterPGFlags(cmd)
	cmdutil.RegisterLoggerFlags(cmd)
	cmdutil.RegisterMetricsFlags(cmd)
	return cmd
}
