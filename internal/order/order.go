// Package order is the durable, append-only record of placed orders.
package order

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

// Key is the global storage key holding every order
const Key = "orders"

var (
	ErrEmptyOrder    = errors.New("order has no items")
	ErrInvalidStatus = errors.New("invalid order status")
)

// CreateInput describes a new order. Lines carry the product as priced at purchase time.
type CreateInput struct {
	UserID          string
	BranchID        *string
	DeliveryMethod  model.DeliveryMethod
	Lines           []model.CartLine
	ShippingCost    float64
	ShippingAddress *model.ShippingAddress
	PaymentMethod   model.PaymentMethod
}

// Store keeps the order list under Key. Read-modify-write cycles are serialised.
type Store struct {
	mu    sync.Mutex
	entry *storage.Entry[[]model.Order]
	seed  []model.Order
	now   func() time.Time
}

// New creates an order store over the global key space. seed is used while no list has been written.
func New(store storage.Store, seed []model.Order, onDiscard storage.DiscardFunc) *Store {
	return &Store{
		entry: storage.NewEntry(store, Key, validateOrders).OnDiscard(onDiscard),
		seed:  seed,
		now:   time.Now,
	}
}

func validateOrders(orders []model.Order) error {
	for i, o := range orders {
		if o.ID == "" {
			return fmt.Errorf("order %d: missing id", i)
		}
	}
	return nil
}

func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("order-%d-%s", now.UnixMilli(), suffix)
}

func (s *Store) load(ctx context.Context) ([]model.Order, error) {
	orders, found, err := s.entry.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if !found {
		return slices.Clone(s.seed), nil
	}
	return orders, nil
}

func (s *Store) save(ctx context.Context, orders []model.Order) error {
	if err := s.entry.Save(ctx, orders); err != nil {
		return fmt.Errorf("failed to save orders: %w", err)
	}
	return nil
}

// Create snapshots the lines into a pending order and appends it. The cart is not touched.
func (s *Store) Create(ctx context.Context, in CreateInput) (*model.Order, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]model.OrderItem, len(in.Lines))
	subtotal := decimal.Zero
	for i, l := range in.Lines {
		items[i] = model.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Brand:     l.Product.Brand,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		}
		subtotal = subtotal.Add(model.LineTotal(l.Product.Price, l.Quantity))
	}
	shipping := decimal.NewFromFloat(in.ShippingCost)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	o := model.Order{
		ID:              newID(now),
		UserID:          in.UserID,
		BranchID:        in.BranchID,
		Status:          model.StatusPending,
		DeliveryMethod:  in.DeliveryMethod,
		Items:           items,
		Subtotal:        model.Amount(subtotal),
		ShippingCost:    model.Amount(shipping),
		Total:           model.Amount(subtotal.Add(shipping)),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       now,
	}

	orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, append(orders, o)); err != nil {
		return nil, err
	}
	return &o, nil
}

// ByUser returns the user's orders, newest first
func (s *Store) ByUser(ctx context.Context, userID string) ([]model.Order, error) {
	s.mu.Lock()
	orders, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := []model.Order{}
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Order) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, nil
}

// ByID returns the order, or nil when there is none
func (s *Store) ByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	orders, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if i := indexOf(orders, id); i >= 0 {
		return &orders[i], nil
	}
	return nil, nil
}

// UpdateStatus changes an order's status. It returns nil when the order does not exist.
func (s *Store) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(orders, id)
	if i < 0 {
		return nil, nil
	}
	orders[i].Status = status
	if err := s.save(ctx, orders); err != nil {
		return nil, err
	}
	updated := orders[i]
	return &updated, nil
}

// Delete removes an order, reporting whether it existed
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(orders, id)
	if i < 0 {
		return false, nil
	}
	if err := s.save(ctx, slices.Delete(orders, i, i+1)); err != nil {
		return false, err
	}
	return true, nil
}

func indexOf(orders []model.Order, id string) int {
	return slices.IndexFunc(orders, func(o model.Order) bool { return o.ID == id })
}
