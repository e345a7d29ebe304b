package backupcmd

import (
	"time"

	"github.com/blkbis/idxqc/cmd/internal/cmdutil"
	"github.com/blkbis/idxqc/compare"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/tableio"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		clean      bool
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "backup <file>",
		Short: "Back up a data file before it is overwritten.",
		Long: `Backup copies a file next to itself with a timestamp suffix. Unless disabled, the
file is first compared with its latest backup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			path := args[0]

			if clean {
				removed, err := tableio.CleanBackups(logger, path)
				if err != nil {
					return err
				}
				logger.Info().Int("removed", len(removed)).Str("file", path).Msgf("cleaned old backups")
			}

			if !skipVerify {
				latest, err := tableio.LatestBackup(path)
				switch {
				case errors.Is(err, tableio.ErrNoBackup):
					logger.Info().Str("file", path).Msgf("no previous backup to compare with")
				case err != nil:
					return err
				default:
					loadOpts, err := cmdutil.LoadOptions()
					if err != nil {
						return err
					}
					reporter := inconsistency.CombinedReporter{Reporters: []inconsistency.Reporter{
						inconsistency.LogReporter{Logger: logger},
						inconsistency.WriterReporter{W: cmd.OutOrStdout()},
					}}
					defer reporter.Close()
					res, err := compare.CompareFiles(
						path,
						latest,
						cmdutil.KeyColumns(),
						compare.WithLoadOptions(loadOpts),
						compare.WithReporter(reporter),
					)
					if err != nil {
						return errors.Wrapf(err, "error comparing %s with %s", path, latest)
					}
					logger.Info().
						Str("backup", latest).
						Bool("same_columns", res.SameColumns()).
						Bool("same_row_count", res.SameRowCount()).
						Bool("matches", res.Matches()).
						Msgf("compared with latest backup")
				}
			}

			dst, err := tableio.RotateFile(logger, path, time.Now())
			if err != nil {
				return err
			}
			if dst != "" {
				logger.Info().Str("file", path).Str("backup", dst).Msgf("backed up file")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(
		&clean,
		"clean",
		false,
		"remove all previous backups first",
	)
	cmd.PersistentFlags().BoolVar(
		&skipVerify,
		"skip-verify",
		false,
		"do not compare the file with its latest backup",
	)
	cmdutil.RegisterTableFlags(cmd)
	cmdutil.RegisterLoggerFlags(cmd)
	return cmd
}
