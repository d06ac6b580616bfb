// Package storage provides the durable key/value space the storefront keeps
// per-client state in, with interchangeable memory, PostgreSQL and Redis backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value
var ErrNotFound = errors.New("storage: key not found")

// Store is a byte-oriented key/value store. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type scopedStore struct {
	base   Store
	prefix string
}

// Scope returns a view of base where every key is prefixed with prefix
func Scope(base Store, prefix string) Store {
	return &scopedStore{base: base, prefix: prefix}
}

// ClientScope returns the key space of one storefront client
func ClientScope(base Store, clientID string) Store {
	return Scope(base, "client:"+clientID+":")
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.base.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.base.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Delete(ctx context.Context, key string) error {
	return s.base.Delete(ctx, s.prefix+key)
}
