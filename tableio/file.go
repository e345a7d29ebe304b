package tableio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blkbis/idxqc/table"
	"github.com/cockroachdb/errors"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	}
	return "unknown"
}

// DetectFormat returns the format of a file by its extension. Backups keep
// the format of the file they were taken of.
func DetectFormat(path string) Format {
	base := filepath.Base(path)
	if idx := strings.Index(base, backupInfix); idx != -1 {
		base = base[:idx]
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		return FormatCSV
	case ".parquet":
		return FormatParquet
	}
	return FormatUnknown
}

// LoadFile reads a table from a CSV or parquet file, or a backup of one. The
// table is named after the file.
func LoadFile(path string, o Options) (*table.Table, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, errors.Newf("unsupported file extension for %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	defer func() { _ = f.Close() }()
	name := filepath.Base(path)
	switch format {
	case FormatCSV:
		return ReadCSV(f, name, o)
	default:
		st, err := f.Stat()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", path)
		}
		return ReadParquet(f, st.Size(), name, o)
	}
}
