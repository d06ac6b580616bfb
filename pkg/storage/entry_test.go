package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func validRecord(r record) error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte) error { return f.err }
func (f failingStore) Delete(context.Context, string) error { return f.err }

func TestEntryRoundTrip(t *testing.T) {
	ctx := context.Background()
	entry := NewEntry(NewMemoryStore(), "session.user", validRecord)

	_, found, err := entry.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, entry.Save(ctx, record{ID: "u1", Name: "Ana"}))

	got, found, err := entry.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record{ID: "u1", Name: "Ana"}, got)

	require.NoError(t, entry.Remove(ctx))
	_, found, err = entry.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEntryDiscardsCorruptValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"id":`},
		{"wrong shape", `[1,2,3]`},
		{"fails validation", `{"name":"no id"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			require.NoError(t, store.Set(ctx, "session.user", []byte(tt.raw)))

			var discarded []string
			entry := NewEntry(store, "session.user", validRecord).
				OnDiscard(func(key string, reason error) {
					discarded = append(discarded, key)
				})

			_, found, err := entry.Load(ctx)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Equal(t, []string{"session.user"}, discarded)

			_, err = store.Get(ctx, "session.user")
			assert.ErrorIs(t, err, ErrNotFound, "corrupt value should be purged")
		})
	}
}

func TestEntrySurfacesBackendErrors(t *testing.T) {
	boom := errors.New("connection refused")
	entry := NewEntry[record](failingStore{err: boom}, "k", nil)

	_, _, err := entry.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, entry.Save(context.Background(), record{ID: "x"}), boom)
}
