// Package storefront owns per-client state: it restores a client's session and
// cart and guarantees a single writer per client.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/victorcamacaro253/farmacia-web/internal/cart"
	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/internal/session"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

// DefaultStripes is the number of lock stripes used when none is configured
const DefaultStripes = 256

// ErrNoClient is returned when acquiring without a client id
var ErrNoClient = errors.New("missing client id")

// Shopper is one client's restored state. It is only valid until released.
type Shopper struct {
	ClientID string
	Session  *session.Store
	Cart     *cart.Cart
}

// Provider hands out Shoppers. Clients hashing to the same stripe share a lock.
type Provider struct {
	catalog   *catalog.Catalog
	store     storage.Store
	orders    *order.Store
	stripes   []chan struct{}
	onDiscard storage.DiscardFunc
}

// NewProvider creates a provider over the durable store. onDiscard may be nil.
func NewProvider(cat *catalog.Catalog, store storage.Store, orders *order.Store, stripes int, onDiscard storage.DiscardFunc) *Provider {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	p := &Provider{
		catalog:   cat,
		store:     store,
		orders:    orders,
		stripes:   make([]chan struct{}, stripes),
		onDiscard: onDiscard,
	}
	for i := range p.stripes {
		p.stripes[i] = make(chan struct{}, 1)
	}
	return p
}

// Catalog returns the static catalog
func (p *Provider) Catalog() *catalog.Catalog {
	return p.catalog
}

// Orders returns the shared order store
func (p *Provider) Orders() *order.Store {
	return p.orders
}

func (p *Provider) stripe(clientID string) chan struct{} {
	h := fnv.New32a()
	h.Write([]byte(clientID))
	return p.stripes[h.Sum32()%uint32(len(p.stripes))]
}

// Acquire locks the client and restores its session and cart. The caller must
// call release exactly once. Mutations are persisted as they happen.
func (p *Provider) Acquire(ctx context.Context, clientID string) (*Shopper, func(), error) {
	if clientID == "" {
		return nil, nil, ErrNoClient
	}

	lock := p.stripe(clientID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("waiting for client %s: %w", clientID, ctx.Err())
	}
	release := func() { <-lock }

	scoped := storage.ClientScope(p.store, clientID)
	shopper := &Shopper{
		ClientID: clientID,
		Session:  session.New(scoped, p.catalog, p.onDiscard),
		Cart:     cart.New(scoped, p.catalog, p.onDiscard),
	}

	if _, err := shopper.Session.Restore(ctx); err != nil {
		release()
		return nil, nil, err
	}
	if err := shopper.Cart.Load(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return shopper, release, nil
}

// Reset logs the client out and empties its cart
func (p *Provider) Reset(ctx context.Context, clientID string) error {
	shopper, release, err := p.Acquire(ctx, clientID)
	if err != nil {
		return err
	}
	defer release()

	if err := shopper.Session.Logout(ctx); err != nil {
		return err
	}
	return shopper.Cart.Clear(ctx)
}
