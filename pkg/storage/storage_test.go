package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return NewGormStore(db)
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestStoreBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"gorm":   func(t *testing.T) Store { return newGormStore(t) },
		"redis":  func(t *testing.T) Store { return newRedisStore(t) },
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build(t)

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`)))
			value, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(value))

			require.NoError(t, store.Set(ctx, "k", []byte(`{"a":2}`)))
			value, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, string(value))

			require.NoError(t, store.Delete(ctx, "k"))
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting twice is fine
			assert.NoError(t, store.Delete(ctx, "k"))
		})
	}
}

func TestClientScopeIsolatesKeys(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()

	a := ClientScope(base, "a")
	b := ClientScope(base, "b")

	require.NoError(t, a.Set(ctx, "cart", []byte("1")))

	_, err := b.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := base.Get(ctx, "client:a:cart")
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, store.Len())
}

func TestObserveTimesEveryCall(t *testing.T) {
	ctx := context.Background()
	var ops []string
	store := Observe(NewMemoryStore(), func(operation string, _ time.Duration) {
		ops = append(ops, operation)
	})

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))

	assert.Equal(t, []string{"set", "get", "delete"}, ops)
}
