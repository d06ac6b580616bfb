package storage

import (
	"context"
	"time"
)

// ObserveFunc receives the duration of every call made through an observed store
type ObserveFunc func(operation string, elapsed time.Duration)

type observedStore struct {
	base    Store
	observe ObserveFunc
}

// Observe wraps base so each Get, Set and Delete is timed
func Observe(base Store, observe ObserveFunc) Store {
	return &observedStore{base: base, observe: observe}
}

func (s *observedStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer s.track("get", time.Now())
	return s.base.Get(ctx, key)
}

func (s *observedStore) Set(ctx context.Context, key string, value []byte) error {
	defer s.track("set", time.Now())
	return s.base.Set(ctx, key, value)
}

func (s *observedStore) Delete(ctx context.Context, key string) error {
	defer s.track("delete", time.Now())
	return s.base.Delete(ctx, key)
}

func (s *observedStore) track(operation string, start time.Time) {
	s.observe(operation, time.Since(start))
}
