package checkstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type LocalStore struct {
	logger   zerolog.Logger
	basePath string
}

func NewLocalStore(logger zerolog.Logger, basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "error creating %s", basePath)
	}
	return &LocalStore{
		logger:   logger,
		basePath: basePath,
	}, nil
}

func (l *LocalStore) String() string {
	return "file://" + l.basePath
}

func (l *LocalStore) path(location string) (string, error) {
	if !filepath.IsLocal(location) {
		return "", errors.Newf("location %q must be a relative path within the store", location)
	}
	return filepath.Join(l.basePath, location), nil
}

// Put writes to a temporary file which is then renamed into place, so
// readers never observe a partially written blob.
func (l *LocalStore) Put(ctx context.Context, location string, data []byte) error {
	p, err := l.path(location)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return err
	}
	logger := l.logger.With().Str("path", p).Logger()
	logger.Debug().Int("bytes", len(data)).Msgf("writing blob")
	f, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	cleanup := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "error writing %s", p)
	}
	if _, err := f.Write(data); err != nil {
		return cleanup(err)
	}
	if err := f.Sync(); err != nil {
		return cleanup(err)
	}
	if err := f.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "error renaming blob to %s", p)
	}
	logger.Debug().Msgf("wrote blob")
	return nil
}

func (l *LocalStore) Get(ctx context.Context, location string) ([]byte, error) {
	p, err := l.path(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Location: location}
		}
		return nil, errors.Wrapf(err, "error reading %s", p)
	}
	return data, nil
}
