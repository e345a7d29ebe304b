package checkstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/blkbis/idxqc/retry"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type GCSStore struct {
	logger   zerolog.Logger
	bucket   string
	prefix   string
	client   *storage.Client
	settings retry.Settings
}

func NewGCSStore(logger zerolog.Logger, client *storage.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{
		logger:   logger,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		settings: retry.DefaultSettings(),
	}
}

func (s *GCSStore) String() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.prefix)
}

func (s *GCSStore) Put(ctx context.Context, location string, data []byte) error {
	key := path.Join(s.prefix, location)
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msgf("uploading blob")
	return retry.Do(ctx, s.settings, func(ctx context.Context) error {
		// The object only becomes visible once the writer is closed
		// successfully.
		wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
		if _, err := wc.Write(data); err != nil {
			_ = wc.Close()
			return err
		}
		if err := wc.Close(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msgf("error uploading blob")
			return err
		}
		return nil
	})
}

func (s *GCSStore) Get(ctx context.Context, location string) ([]byte, error) {
	key := path.Join(s.prefix, location)
	var ret []byte
	err := retry.Do(ctx, s.settings, func(ctx context.Context) error {
		r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
				return retry.Permanent(&NotFoundError{Location: location})
			}
			return err
		}
		defer func() { _ = r.Close() }()
		data, err := io.ReadAll(r)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msgf("error downloading blob")
			return err
		}
		ret = data
		return nil
	})
	return ret, err
}
