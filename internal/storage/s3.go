package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"

	"voicehost/internal/domain"
)

// S3Store keeps audio in an S3 bucket.
type S3Store struct {
	svc     s3iface.S3API
	bucket  string
	region  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store builds a store for bucket. When baseURL is empty public URLs use
// the bucket's virtual-hosted endpoint.
func NewS3Store(svc s3iface.S3API, bucket, region, baseURL string, logger zerolog.Logger) *S3Store {
	return &S3Store{svc: svc, bucket: bucket, region: region, baseURL: baseURL, logger: logger}
}

// Put uploads data unless an object already exists at key. The existence
// check and the upload are two requests, so two writers racing on one key in
// the same instant can still both succeed.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return fmt.Errorf("%w: s3://%s/%s", domain.ErrObjectExists, s.bucket, key)
	case !isS3NotFound(err):
		return fmt.Errorf("storage: head object: %w", err)
	}

	_, err = s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("storage: failed to upload object to S3")
		return fmt.Errorf("storage: put object: %w", err)
	}
	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("storage: uploaded object to S3")
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, "", fmt.Errorf("storage: get object: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("storage: read object: %w", err)
	}
	ct := aws.StringValue(out.ContentType)
	if ct == "" {
		ct = contentTypeFor(key)
	}
	return data, ct, nil
}

func (s *S3Store) PublicURL(key string) string {
	if s.baseURL != "" {
		return joinURL(s.baseURL, key)
	}
	return joinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region), key)
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchKey:
			return true
		}
	}
	return false
}

var (
	_ domain.ObjectStore  = (*S3Store)(nil)
	_ domain.ObjectReader = (*S3Store)(nil)
)
