// Package kvstore persists device state as one JSON document per logical key.
//
// Reads never fail: a missing key, a backend error or a corrupt document
// leaves the caller's default in place and is logged. Writes are best effort
// and only logged on failure. Each key is independent, so damage to one
// document never affects the others.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/DukeRupert/readyhire/internal/metrics"
)

// ErrNotFound is returned by backends for keys with no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// Backend stores raw values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Update atomically replaces the value under key with fn's result. fn
	// receives nil when the key is missing and may be called more than once.
	// A nil result leaves the stored value alone.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	Close() error
}

// UpdateFunc computes the next value for a key from the current one.
type UpdateFunc func(old []byte) ([]byte, error)

// Store is the JSON adapter over a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps a backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Load decodes the value stored under key into dst and reports whether it
// did. dst is left untouched when nothing usable is stored, so callers
// pre-fill it with the documented default.
func (s *Store) Load(ctx context.Context, key Key, dst any) bool {
	raw, err := s.backend.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fail("load", key, err)
		}
		return false
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	if err := decodeInto(raw, dst); err != nil {
		s.fail("decode", key, err)
		return false
	}
	return true
}

// Save encodes value and writes it under key. Failures are logged, never returned.
func (s *Store) Save(ctx context.Context, key Key, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.fail("encode", key, err)
		return
	}
	if err := s.backend.Put(ctx, key.String(), raw); err != nil {
		s.fail("save", key, err)
	}
}

// Update reloads key into dst, calls mutate and writes dst back, all as one
// atomic step on the backend. Use it for read-check-write sequences that
// other processes sharing the backend may race with.
//
// When nothing usable is stored, dst keeps the value it had on entry. mutate
// returns false to skip the write. It may run more than once, so it must only
// touch dst and its own locals. If the backend cannot start the update at
// all, mutate still runs against dst and the result is saved best effort.
func (s *Store) Update(ctx context.Context, key Key, dst any, mutate func() bool) {
	base, err := json.Marshal(dst)
	if err != nil {
		s.fail("encode", key, err)
		return
	}

	called := false
	err = s.backend.Update(ctx, key.String(), func(old []byte) ([]byte, error) {
		called = true
		if err := s.reload(key, old, base, dst); err != nil {
			return nil, err
		}
		if !mutate() {
			return nil, nil
		}
		return json.Marshal(dst)
	})
	if err == nil {
		return
	}

	s.fail("update", key, err)
	if !called && mutate() {
		s.Save(ctx, key, dst)
	}
}

// reload sets dst from the stored value, or from base when the stored value
// is missing or unreadable.
func (s *Store) reload(key Key, old, base []byte, dst any) error {
	if old != nil && !bytes.Equal(bytes.TrimSpace(old), []byte("null")) {
		err := decodeInto(old, dst)
		if err == nil {
			return nil
		}
		s.fail("decode", key, err)
	}
	return decodeInto(base, dst)
}

// Delete removes keys, continuing past failures.
func (s *Store) Delete(ctx context.Context, keys ...Key) {
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key.String()); err != nil && !errors.Is(err, ErrNotFound) {
			s.fail("delete", key, err)
		}
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// decodeInto unmarshals into a fresh value and only assigns it to dst on
// success, so a document that fails halfway cannot leave dst half-written.
func decodeInto(raw []byte, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("kvstore: destination must be a non-nil pointer, got %T", dst)
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

func (s *Store) fail(op string, key Key, err error) {
	level := slog.LevelWarn
	if op == "save" || op == "encode" || op == "update" {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, "state store operation failed",
		"op", op,
		"key", key.String(),
		"error", err,
	)
	metrics.StateStoreErrorsTotal.WithLabelValues(op).Inc()
}
