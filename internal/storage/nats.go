package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"voicehost/internal/domain"
)

// NatsObjectStore keeps audio in a NATS JetStream object store bucket.
type NatsObjectStore struct {
	bucket  string
	baseURL string
	store   nats.ObjectStore
}

// NewNatsObjectStore binds to bucket, creating it on first use.
func NewNatsObjectStore(js nats.JetStreamContext, bucket, baseURL string) (*NatsObjectStore, error) {
	store, err := js.ObjectStore(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) || errors.Is(err, nats.ErrStreamNotFound) {
		store, err = js.CreateObjectStore(&nats.ObjectStoreConfig{
			Bucket:      bucket,
			Description: fmt.Sprintf("Generated audio for the %s bucket.", bucket),
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("storage: bind object store bucket '%s': %w", bucket, err)
	}
	return &NatsObjectStore{bucket: bucket, baseURL: baseURL, store: store}, nil
}

// Put saves data under key unless the key is already taken.
func (n *NatsObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.store.GetInfo(key); err == nil {
		return fmt.Errorf("%w: %s/%s", domain.ErrObjectExists, n.bucket, key)
	} else if !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("storage: stat object '%s': %w", key, err)
	}
	_, err := n.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage: put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}
	return nil
}

func (n *NatsObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	data, err := n.store.GetBytes(key)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, "", fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, "", fmt.Errorf("storage: get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}
	return data, contentTypeFor(key), nil
}

func (n *NatsObjectStore) PublicURL(key string) string {
	return joinURL(n.baseURL, key)
}

var (
	_ domain.ObjectStore  = (*NatsObjectStore)(nil)
	_ domain.ObjectReader = (*NatsObjectStore)(nil)
)
