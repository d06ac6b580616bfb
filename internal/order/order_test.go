package order

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

var idPattern = regexp.MustCompile(`^order-\d+-[0-9a-f]{8}$`)

func newStore(t *testing.T) (*Store, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return New(storage.NewMemoryStore(), cat.SeedOrders(), nil), cat
}

func line(t *testing.T, cat *catalog.Catalog, id string, qty int) model.CartLine {
	t.Helper()
	p, ok := cat.ProductByID(id)
	require.True(t, ok)
	return model.CartLine{Product: p, Quantity: qty}
}

func TestCreateSnapshotsLines(t *testing.T) {
	ctx := context.Background()
	s, cat := newStore(t)

	o, err := s.Create(ctx, CreateInput{
		UserID:         "u2",
		DeliveryMethod: model.DeliveryHome,
		Lines:          []model.CartLine{line(t, cat, "p1", 2), line(t, cat, "p9", 1)},
		ShippingCost:   1500,
		PaymentMethod:  model.PaymentCash,
	})
	require.NoError(t, err)

	assert.Regexp(t, idPattern, o.ID)
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, 3850.0, o.Subtotal)
	assert.Equal(t, 5350.0, o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, model.OrderItem{ProductID: "p1", Name: "Ibuprofeno 400mg x 20 comprimidos", Brand: "Bagó", Quantity: 2, Price: 1200}, o.Items[0])

	stored, err := s.ByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, o.Total, stored.Total)
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Create(context.Background(), CreateInput{UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, cat := newStore(t)
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		o, err := s.Create(ctx, CreateInput{Lines: []model.CartLine{line(t, cat, "p2", 1)}})
		require.NoError(t, err)
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, cat := newStore(t)
	s.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	created, err := s.Create(ctx, CreateInput{UserID: "u1", Lines: []model.CartLine{line(t, cat, "p2", 1)}})
	require.NoError(t, err)

	orders, err := s.ByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, created.ID, orders[0].ID)
	assert.Equal(t, "order-1707991200000-e5f6a7b8", orders[1].ID)
	assert.Equal(t, "order-1705312800000-a1b2c3d4", orders[2].ID)

	none, err := s.ByUser(ctx, "u404")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestByIDMissing(t *testing.T) {
	s, _ := newStore(t)

	o, err := s.ByID(context.Background(), "order-0-deadbeef")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	o, err := s.UpdateStatus(ctx, "order-1709287200000-c9d0e1f2", model.StatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, model.StatusConfirmed, o.Status)

	reread, err := s.ByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, reread.Status)

	missing, err := s.UpdateStatus(ctx, "order-0-deadbeef", model.StatusConfirmed)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.UpdateStatus(ctx, o.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	ok, err := s.Delete(ctx, "order-1705312800000-a1b2c3d4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, "order-1705312800000-a1b2c3d4")
	require.NoError(t, err)
	assert.False(t, ok)

	orders, err := s.ByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCorruptListFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Default()
	require.NoError(t, err)
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(ctx, Key, []byte(`[{"id": ""}]`)))

	var discarded []string
	s := New(backend, cat.SeedOrders(), func(key string, _ error) { discarded = append(discarded, key) })

	orders, err := s.ByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, []string{Key}, discarded)
}

func TestConcurrentCreatesAreAllKept(t *testing.T) {
	ctx := context.Background()
	s, cat := newStore(t)
	l := line(t, cat, "p2", 1)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, CreateInput{UserID: "u2", Lines: []model.CartLine{l}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	orders, err := s.ByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, orders, 26)
}
