package cmd

import (
	"fmt"
	"os"

	"github.com/blkbis/idxqc/cmd/backupcmd"
	"github.com/blkbis/idxqc/cmd/checkcmd"
	"github.com/blkbis/idxqc/cmd/comparecmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idxqc",
	Short: "Quality control for index and security datasets",
	Long: `idxqc compares tables, runs data quality checks against them and keeps backups
of data files so that each delivery can be compared with the previous one.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(comparecmd.Command())
	rootCmd.AddCommand(checkcmd.Command())
	rootCmd.AddCommand(backupcmd.Command())
}
