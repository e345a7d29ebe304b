package testutils

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// PGConnStr returns the Postgres instance used by integration tests. Tests
// which need it are skipped unless POSTGRES_URL is set.
func PGConnStr() (string, bool) {
	return os.LookupEnv("POSTGRES_URL")
}

// ConnectPG connects to the integration test instance, skipping the test if
// none is configured.
func ConnectPG(t *testing.T) *pgx.Conn {
	connStr, ok := PGConnStr()
	if !ok {
		t.Skip("POSTGRES_URL not set")
	}
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close(ctx)
	})
	return conn
}
