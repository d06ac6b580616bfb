package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/pkg/config"
	"github.com/victorcamacaro253/farmacia-web/pkg/events"
	"github.com/victorcamacaro253/farmacia-web/pkg/logger"
	"github.com/victorcamacaro253/farmacia-web/prometheus"
)

// CreatedEvent is published once an order is stored
type CreatedEvent struct {
	OrderID        string               `json:"order_id"`
	UserID         string               `json:"user_id"`
	Status         model.OrderStatus    `json:"status"`
	DeliveryMethod model.DeliveryMethod `json:"delivery_method"`
	PaymentMethod  model.PaymentMethod  `json:"payment_method"`
	BranchID       *string              `json:"branch_id"`
	ItemCount      int                  `json:"item_count"`
	Total          float64              `json:"total"`
	CreatedAt      time.Time            `json:"created_at"`
}

// StatusUpdatedEvent is published after a status change
type StatusUpdatedEvent struct {
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	Status    model.OrderStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Notifier publishes order events. Publishing is best effort: failures are logged, never returned.
type Notifier struct {
	publisher    events.Publisher
	createdTopic string
	statusTopic  string
}

// NewNotifier creates a notifier publishing to the configured topics
func NewNotifier(publisher events.Publisher, cfg config.EventsConfig) *Notifier {
	return &Notifier{
		publisher:    publisher,
		createdTopic: cfg.OrderCreatedTopic,
		statusTopic:  cfg.OrderStatusTopic,
	}
}

// OrderCreated announces a new order
func (n *Notifier) OrderCreated(ctx context.Context, o model.Order) {
	n.publish(ctx, n.createdTopic, o.ID, CreatedEvent{
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		DeliveryMethod: o.DeliveryMethod,
		PaymentMethod:  o.PaymentMethod,
		BranchID:       o.BranchID,
		ItemCount:      o.ItemCount(),
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
	})
}

// StatusUpdated announces a status change
func (n *Notifier) StatusUpdated(ctx context.Context, o model.Order) {
	n.publish(ctx, n.statusTopic, o.ID, StatusUpdatedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		UpdatedAt: time.Now().UTC(),
	})
}

func (n *Notifier) publish(ctx context.Context, topic, key string, event any) {
	err := n.publisher.PublishEvent(ctx, topic, key, event)
	prometheus.RecordEventPublished(topic, err)
	if err != nil {
		logger.FromStdContext(ctx).Error("Failed to publish order event",
			zap.String("topic", topic),
			zap.String("order_id", key),
			zap.Error(err))
	}
}
