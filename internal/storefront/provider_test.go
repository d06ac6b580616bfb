package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

func newProvider(t *testing.T, stripes int) (*Provider, *storage.MemoryStore) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	backend := storage.NewMemoryStore()
	return NewProvider(cat, backend, order.New(backend, cat.SeedOrders(), nil), stripes, nil), backend
}

func TestAcquireRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t, 0)

	shopper, release, err := p.Acquire(ctx, "client-1")
	require.NoError(t, err)
	ok, err := shopper.Session.Login(ctx, "ana.garcia@example.com", "password123")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = shopper.Cart.Add(ctx, "p1")
	require.NoError(t, err)
	release()

	shopper, release, err = p.Acquire(ctx, "client-1")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "u1", shopper.Session.UserID())
	assert.Equal(t, 1, shopper.Cart.TotalItems())

	other, releaseOther, err := p.Acquire(ctx, "client-2")
	require.NoError(t, err)
	defer releaseOther()
	assert.Nil(t, other.Session.Current())
	assert.True(t, other.Cart.IsEmpty())
}

func TestAcquireSerialisesSameClient(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t, 0)

	_, release, err := p.Acquire(ctx, "client-1")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, _, err = p.Acquire(waitCtx, "client-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		_, r, err := p.Acquire(ctx, "client-1")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never got the lock")
	}
}

func TestAcquireRejectsEmptyClient(t *testing.T) {
	p, _ := newProvider(t, 4)

	_, _, err := p.Acquire(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	p, backend := newProvider(t, 1)

	shopper, release, err := p.Acquire(ctx, "client-1")
	require.NoError(t, err)
	_, err = shopper.Session.Login(ctx, "juan.perez@example.com", "juan2024")
	require.NoError(t, err)
	_, err = shopper.Cart.Add(ctx, "p2")
	require.NoError(t, err)
	release()

	require.NoError(t, p.Reset(ctx, "client-1"))
	assert.Equal(t, 0, backend.Len())
}
