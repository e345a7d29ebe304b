package cmdutil

import (
	"context"

	"github.com/blkbis/idxqc/checkstore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var storeURI string

func RegisterStoreFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&storeURI,
		"store",
		"",
		"where failed checks are saved: a path, file://, s3://bucket/prefix or gs://bucket/prefix",
	)
}

// Store opens the configured check store. It returns nil if none is
// configured.
func Store(ctx context.Context, logger zerolog.Logger) (checkstore.Store, error) {
	if storeURI == "" {
		return nil, nil
	}
	return checkstore.Open(ctx, logger, storeURI)
}
