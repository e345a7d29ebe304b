package checkcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/blkbis/idxqc/qc"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

const checksConfig = `
version: "1"
checks:
  - id: sectors_known
    type: value
    description: every security has a sector
    on_fail: warn
    columns: [sector]
    filter: non_empty_string
  - id: unique_ids
    type: unique_key
    description: one row per security
    key: [id]
`

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "checks.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(checksConfig), 0o644))
	dataPath := filepath.Join(dir, "universe.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte("id,sector\n1,TECH\n2,\n2,UTIL\n"), 0o644))
	storeDir := filepath.Join(dir, "store")

	for _, tc := range []struct {
		desc        string
		flags       []string
		expectError bool
	}{
		{desc: "strict failure", expectError: true},
		{desc: "never strict", flags: []string{"--never-strict"}},
		{desc: "conflicting strictness", flags: []string{"--never-strict", "--force-strict"}, expectError: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cmd := Command()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			args := []string{
				"--config", configPath,
				"--store", storeDir,
				"--metrics-listen-addr", "",
				"--level", "error",
				dataPath,
			}
			cmd.SetArgs(append(args, tc.flags...))
			err := cmd.Execute()
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Contains(t, out.String(), "2 checks run, 2 failed")
		})
	}

	t.Run("strict failure is typed", func(t *testing.T) {
		cmd := Command()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config", configPath, "--metrics-listen-addr", "", dataPath})
		var failedErr *qc.CheckFailedError
		require.True(t, errors.As(cmd.Execute(), &failedErr))
		require.Equal(t, "unique_ids", failedErr.CheckID)
	})

	_, err := os.Stat(filepath.Join(storeDir, "checks", "unique_ids.qc"))
	require.NoError(t, err, "failed checks are saved to the store")
}
