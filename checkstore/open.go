package checkstore

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Open returns the store described by uri, which is one of file://path,
// s3://bucket/prefix, gs://bucket/prefix, mem:// or a bare local path.
func Open(ctx context.Context, logger zerolog.Logger, uri string) (Store, error) {
	if !strings.Contains(uri, "://") {
		return NewLocalStore(logger, uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing store uri %q", uri)
	}
	prefix := strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "file":
		return NewLocalStore(logger, u.Host+u.Path)
	case "mem":
		return NewMemStore(), nil
	case "s3":
		sess, err := session.NewSession()
		if err != nil {
			return nil, errors.Wrap(err, "error creating AWS session")
		}
		return NewS3Store(logger, sess, u.Host, prefix), nil
	case "gs":
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, errors.Wrap(err, "error finding GCP credentials")
		}
		client, err := storage.NewClient(ctx, option.WithCredentials(creds))
		if err != nil {
			return nil, errors.Wrap(err, "error creating GCS client")
		}
		return NewGCSStore(logger, client, u.Host, prefix), nil
	}
	return nil, errors.Newf("unsupported store scheme %q", u.Scheme)
}
