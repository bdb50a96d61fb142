package kvstore

import (
	"bytes"
	"context"
	"io"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/DukeRupert/readyhire/internal/storage"
)

// casAttempts bounds how often Update retries after losing a write race.
const casAttempts = 8

// ObjectBackend keeps each value as a JSON object in a storage.Storage,
// under state/{namespace}/{key}.json. Works with local files and R2.
type ObjectBackend struct {
	store     storage.Storage
	namespace string
}

// NewObjectBackend wraps an object store.
func NewObjectBackend(store storage.Storage, namespace string) *ObjectBackend {
	if namespace == "" {
		namespace = "default"
	}
	return &ObjectBackend{store: store, namespace: namespace}
}

func (b *ObjectBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, _, err := b.read(ctx, storage.StateKey(b.namespace, key))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNotFound
	}
	return value, nil
}

// read returns nil without error for a missing object.
func (b *ObjectBackend) read(ctx context.Context, objectKey string) ([]byte, string, error) {
	rc, info, err := b.store.Get(ctx, objectKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, "", nil
		}
		return nil, "", err
	}
	defer rc.Close()
	value, err := io.ReadAll(io.LimitReader(rc, storage.MaxStateObjectSize))
	if err != nil {
		return nil, "", err
	}
	return value, info.ETag, nil
}

func (b *ObjectBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.store.Put(ctx, storage.StateKey(b.namespace, key), bytes.NewReader(value), putOptions())
}

// Update is optimistic: the write is conditional on the ETag that was read,
// and a lost race reads again and retries.
func (b *ObjectBackend) Update(ctx context.Context, key string, fn UpdateFunc) error {
	objectKey := storage.StateKey(b.namespace, key)
	backoff := goretry.WithMaxRetries(casAttempts, goretry.WithJitter(5*time.Millisecond, goretry.NewExponential(10*time.Millisecond)))

	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		old, etag, err := b.read(ctx, objectKey)
		if err != nil {
			return err
		}
		next, err := fn(old)
		if err != nil || next == nil {
			return err
		}

		opts := putOptions()
		if old == nil {
			opts.IfNoneMatch = true
		} else {
			opts.IfMatch = etag
		}
		err = b.store.Put(ctx, objectKey, bytes.NewReader(next), opts)
		if storage.IsPreconditionFailed(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

func putOptions() storage.PutOptions {
	return storage.PutOptions{
		ContentType: "application/json",
		MaxSize:     storage.MaxStateObjectSize,
		Overwrite:   true,
	}
}

func (b *ObjectBackend) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, storage.StateKey(b.namespace, key))
}

func (b *ObjectBackend) Close() error { return nil }
