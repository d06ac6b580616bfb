package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DiscardFunc is notified when a stored value is dropped as corrupt
type DiscardFunc func(key string, reason error)

// Entry is a typed, JSON encoded value living under a single key.
// Values that fail to decode or validate are deleted and read as absent.
type Entry[T any] struct {
	store     Store
	key       string
	validate  func(T) error
	onDiscard DiscardFunc
}

// NewEntry binds a typed value to key. validate may be nil.
func NewEntry[T any](store Store, key string, validate func(T) error) *Entry[T] {
	return &Entry[T]{store: store, key: key, validate: validate}
}

// OnDiscard registers a callback run after a corrupt value is purged
func (e *Entry[T]) OnDiscard(fn DiscardFunc) *Entry[T] {
	e.onDiscard = fn
	return e
}

// Key returns the key the entry is stored under
func (e *Entry[T]) Key() string {
	return e.key
}

// Load reads the value. found is false when the key is empty or held corrupt data.
// Only backend failures are returned as errors.
func (e *Entry[T]) Load(ctx context.Context) (value T, found bool, err error) {
	data, err := e.store.Get(ctx, e.key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		return value, false, e.discard(ctx, fmt.Errorf("malformed value: %w", err))
	}
	if e.validate != nil {
		if err := e.validate(decoded); err != nil {
			return value, false, e.discard(ctx, fmt.Errorf("invalid value: %w", err))
		}
	}
	return decoded, true, nil
}

// Save encodes and stores the value
func (e *Entry[T]) Save(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", e.key, err)
	}
	return e.store.Set(ctx, e.key, data)
}

// Remove deletes the value; removing an absent key is not an error
func (e *Entry[T]) Remove(ctx context.Context) error {
	return e.store.Delete(ctx, e.key)
}

func (e *Entry[T]) discard(ctx context.Context, reason error) error {
	zap.L().Warn("Discarding corrupt stored value",
		zap.String("key", e.key),
		zap.Error(reason))

	if err := e.store.Delete(ctx, e.key); err != nil {
		return fmt.Errorf("failed to purge corrupt %s: %w", e.key, err)
	}
	if e.onDiscard != nil {
		e.onDiscard(e.key, reason)
	}
	return nil
}
