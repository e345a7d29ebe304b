package cmdutil

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type loggerConfig struct {
	level string
	json  bool
}

var loggerConfigInst = loggerConfig{
	level: zerolog.InfoLevel.String(),
}

func RegisterLoggerFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&loggerConfigInst.level,
		"level",
		loggerConfigInst.level,
		"what level to log at - maps to zerolog.Level",
	)
	cmd.PersistentFlags().BoolVar(
		&loggerConfigInst.json,
		"log-json",
		false,
		"log as JSON to stderr instead of the console format",
	)
}

func Logger() (zerolog.Logger, error) {
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
	if loggerConfigInst.json {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(loggerConfigInst.level)
	if err != nil {
		return logger, err
	}
	return logger.Level(lvl), err
}
