package checkcmd

import (
	"context"

	"github.com/blkbis/idxqc/cmd/internal/cmdutil"
	"github.com/blkbis/idxqc/inconsistency"
	"github.com/blkbis/idxqc/qc"
	"github.com/blkbis/idxqc/qcconfig"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		configPath  string
		forceStrict bool
		neverStrict bool
	)

	cmd := &cobra.Command{
		Use:   "check --config <checks.yaml> <table> [<table>]",
		Short: "Run quality checks against tables.",
		Long: `Check runs the checks defined in a YAML file against one or two tables. Checks
comparing tables receive both; all other checks receive the first.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceStrict && neverStrict {
				return errors.New("--force-strict and --never-strict are mutually exclusive")
			}
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)

			cfg, err := qcconfig.LoadFile(configPath)
			if err != nil {
				return err
			}
			checks, err := cfg.Build()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := cmdutil.Store(ctx, logger)
			if err != nil {
				return err
			}
			tables, err := cmdutil.LoadTables(ctx, logger, args)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return errors.New("no tables given")
			}

			reporter := inconsistency.CombinedReporter{}
			reporter.Reporters = append(
				reporter.Reporters,
				inconsistency.LogReporter{Logger: logger},
				inconsistency.WriterReporter{W: cmd.OutOrStdout()},
			)
			defer reporter.Close()

			rc := &qc.RunContext{
				Logger:   logger,
				Reporter: reporter,
				Store:    store,
			}
			switch {
			case forceStrict:
				rc.StrictMode = qc.StrictForce
			case neverStrict:
				rc.StrictMode = qc.StrictNever
			}
			outcomes, runErr := qc.RunAll(ctx, rc, checks, tables...)
			outcomes.Render(cmd.OutOrStdout())
			reporter.Report(inconsistency.StatusReport{Info: outcomes.String()})
			return runErr
		},
	}

	cmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"",
		"path to the YAML check definitions",
	)
	if err := cmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}
	cmd.PersistentFlags().BoolVar(
		&forceStrict,
		"force-strict",
		false,
		"fail on any failed check, regardless of its on_fail setting",
	)
	cmd.PersistentFlags().BoolVar(
		&neverStrict,
		"never-strict",
		false,
		"only warn on failed checks, regardless of their on_fail setting",
	)
	cmdutil.RegisterTableFlags(cmd)
	cmdutil.RegisterPGFlags(cmd)
	cmdutil.RegisterStoreFlags(cmd)
	cmdutil.RegisterLoggerFlags(cmd)
	cmdutil.RegisterMetricsFlags(cmd)
	return cmd
}
