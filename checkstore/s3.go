package checkstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/blkbis/idxqc/retry"
	"github.com/rs/zerolog"
)

type S3Store struct {
	logger   zerolog.Logger
	bucket   string
	prefix   string
	session  *session.Session
	settings retry.Settings
}

func NewS3Store(logger zerolog.Logger, session *session.Session, bucket, prefix string) *S3Store {
	return &S3Store{
		logger:   logger,
		bucket:   bucket,
		prefix:   prefix,
		session:  session,
		settings: retry.DefaultSettings(),
	}
}

func (s *S3Store) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

func (s *S3Store) key(location string) string {
	return path.Join(s.prefix, location)
}

func (s *S3Store) Put(ctx context.Context, location string, data []byte) error {
	key := s.key(location)
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msgf("uploading blob")
	return retry.Do(ctx, s.settings, func(ctx context.Context) error {
		_, err := s3manager.NewUploader(s.session).UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msgf("error uploading blob")
		}
		return err
	})
}

func (s *S3Store) Get(ctx context.Context, location string) ([]byte, error) {
	key := s.key(location)
	var ret []byte
	err := retry.Do(ctx, s.settings, func(ctx context.Context) error {
		buf := aws.NewWriteAtBuffer(nil)
		_, err := s3manager.NewDownloader(s.session).DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isS3NotFound(err) {
				return retry.Permanent(&NotFoundError{Location: location})
			}
			s.logger.Warn().Err(err).Str("key", key).Msgf("error downloading blob")
			return err
		}
		ret = buf.Bytes()
		return nil
	})
	return ret, err
}

func isS3NotFound(err error) bool {
	if reqErr, ok := err.(awserr.RequestFailure); ok && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
