package storage

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
)

// Backend is an object store that can also read objects back.
type Backend interface {
	domain.ObjectStore
	domain.ObjectReader
}

// Open builds the backend selected by cfg.StorageBackend. The returned close
// function releases any connection the backend holds.
func Open(cfg *infra.Config, sess *session.Session, logger zerolog.Logger) (Backend, func(), error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case infra.BackendFilesystem:
		store, err := NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Str("path", store.BasePath()).Msg("storage: using filesystem backend")
		return store, noop, nil

	case infra.BackendS3:
		if sess == nil {
			var err error
			if sess, err = infra.NewAWSSession(cfg); err != nil {
				return nil, noop, err
			}
		}
		logger.Info().Str("bucket", cfg.StorageBucket).Msg("storage: using s3 backend")
		return NewS3Store(s3.New(sess), cfg.StorageBucket, cfg.AWSRegion, cfg.S3PublicURL, logger), noop, nil

	case infra.BackendNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("voicehost"))
		if err != nil {
			return nil, noop, fmt.Errorf("storage: connect to nats: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, noop, fmt.Errorf("storage: jetstream context: %w", err)
		}
		store, err := NewNatsObjectStore(js, cfg.StorageBucket, cfg.StorageBaseURL)
		if err != nil {
			nc.Close()
			return nil, noop, err
		}
		logger.Info().Str("url", cfg.NATSURL).Str("bucket", cfg.StorageBucket).Msg("storage: using nats object store backend")
		return store, nc.Close, nil
	}
	return nil, noop, fmt.Errorf("%w: unsupported storage backend %q", domain.ErrConfiguration, cfg.StorageBackend)
}
