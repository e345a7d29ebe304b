package tableio

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	backupInfix  = ".back."
	BackupLayout = "2006-01-02:15:04:05"
)

// ErrNoBackup is returned by LatestBackup when a file has no backups.
var ErrNoBackup = errors.New("no backup found")

// BackupPath returns the path a backup of path taken at now is written to.
func BackupPath(path string, now time.Time) string {
	return path + backupInfix + now.Format(BackupLayout)
}

// RotateFile copies path to a timestamped backup next to it and returns the
// backup path. A missing file is not backed up and returns "".
func RotateFile(logger zerolog.Logger, path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("file", path).Msgf("nothing to back up")
			return "", nil
		}
		return "", errors.Wrapf(err, "error opening %s", path)
	}
	defer func() { _ = src.Close() }()

	dst := BackupPath(path, now)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "error creating backup %s", dst)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", errors.Wrapf(err, "error copying %s to %s", path, dst)
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrapf(err, "error closing backup %s", dst)
	}
	logger.Debug().Str("file", path).Str("backup", dst).Msgf("backed up file")
	return dst, nil
}

type backup struct {
	path string
	at   time.Time
}

func listBackups(path string) ([]backup, error) {
	matches, err := filepath.Glob(path + backupInfix + "*")
	if err != nil {
		return nil, errors.Wrapf(err, "error listing backups of %s", path)
	}
	var ret []backup
	prefix := path + backupInfix
	for _, m := range matches {
		at, err := time.Parse(BackupLayout, strings.TrimPrefix(m, prefix))
		if err != nil {
			// Not one of ours.
			continue
		}
		ret = append(ret, backup{path: m, at: at})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].at.Before(ret[j].at)
	})
	return ret, nil
}

// LatestBackup returns the newest backup of path.
func LatestBackup(path string) (string, error) {
	backups, err := listBackups(path)
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", errors.Wrapf(ErrNoBackup, "%s", path)
	}
	return backups[len(backups)-1].path, nil
}

// CleanBackups removes every backup of path, returning the removed files.
func CleanBackups(logger zerolog.Logger, path string) ([]string, error) {
	backups, err := listBackups(path)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, b := range backups {
		if err := os.Remove(b.path); err != nil {
			return removed, errors.Wrapf(err, "error removing backup %s", b.path)
		}
		logger.Debug().Str("backup", b.path).Msgf("removed backup")
		removed = append(removed, b.path)
	}
	return removed, nil
}
