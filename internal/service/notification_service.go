package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/realtime"
)

// FeedPublisher forwards serialized price events to other instances. The
// Redis bridge implements it; a nil publisher keeps delivery purely local.
type FeedPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// PriceUpdateMessage is the wire format pushed to streaming clients.
type PriceUpdateMessage struct {
	Type      string  `json:"type"`
	ProductID string  `json:"productId"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	Currency  string  `json:"currency"`
}

// NotificationService fans price-change events out to streaming clients.
// Delivery is fire-and-forget, at most once per connected client per call;
// a disconnected client simply misses the update.
type NotificationService struct {
	dispatcher events.Dispatcher
	registry   *realtime.Registry
	feed       FeedPublisher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, registry *realtime.Registry, feed FeedPublisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		registry:   registry,
		feed:       feed,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to price events so any service publishing on
// the dispatcher reaches connected clients.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPriceChanged, n.handlePriceChanged)
}

// PublishPriceChange builds the event and hands it to the dispatcher. Errors
// from individual deliveries are absorbed downstream; the only error surfaced
// here is a dispatcher failure.
func (n *NotificationService) PublishPriceChange(ctx context.Context, productID string, oldPrice, newPrice float64, currency string) error {
	return n.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPriceChanged,
		Timestamp: time.Now(),
		Payload: events.PriceChangedPayload{
			ProductID: productID,
			OldPrice:  oldPrice,
			NewPrice:  newPrice,
			Currency:  currency,
		},
	})
}

func (n *NotificationService) handlePriceChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PriceChangedPayload)
	if !ok {
		n.logger.Warn("price event with unexpected payload", zap.String("event_id", event.ID))
		return nil
	}

	message, err := json.Marshal(PriceUpdateMessage{
		Type:      string(events.EventPriceChanged),
		ProductID: payload.ProductID,
		OldPrice:  payload.OldPrice,
		NewPrice:  payload.NewPrice,
		Currency:  payload.Currency,
	})
	if err != nil {
		n.logger.Error("failed to marshal price update", zap.Error(err))
		return nil
	}

	delivered := n.registry.Broadcast(message)
	n.logger.Info("price change broadcast",
		zap.String("product_id", payload.ProductID),
		zap.Float64("new_price", payload.NewPrice),
		zap.Int("delivered", delivered))

	if n.feed != nil {
		if err := n.feed.Publish(ctx, message); err != nil {
			n.logger.Warn("price feed publish failed", zap.Error(err))
		}
	}
	return nil
}
