package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/realtime"
)

// feedEnvelope tags a serialized price message with its origin instance so a
// subscriber never re-delivers its own broadcasts.
type feedEnvelope struct {
	Instance string          `json:"instance"`
	Payload  json.RawMessage `json:"payload"`
}

// PriceFeedBridge relays price updates between instances over a Redis
// pub/sub channel. Each instance broadcasts locally first, then publishes;
// the bridge re-broadcasts only messages originating elsewhere.
type PriceFeedBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
	registry   *realtime.Registry
	logger     *zap.Logger
}

// NewPriceFeedBridge constructs the bridge.
func NewPriceFeedBridge(client *redis.Client, channel string, registry *realtime.Registry, logger *zap.Logger) *PriceFeedBridge {
	return &PriceFeedBridge{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		registry:   registry,
		logger:     logger,
	}
}

// Publish forwards a serialized price message to the feed channel.
func (b *PriceFeedBridge) Publish(ctx context.Context, payload []byte) error {
	envelope, err := json.Marshal(feedEnvelope{Instance: b.instanceID, Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, envelope).Err()
}

// Run subscribes to the feed channel and re-broadcasts foreign messages to
// local connections. It returns when ctx is cancelled. Intended to be run in
// its own goroutine from main.
func (b *PriceFeedBridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close() //nolint:errcheck

	b.logger.Info("price feed bridge subscribed",
		zap.String("channel", b.channel),
		zap.String("instance", b.instanceID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope feedEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.logger.Warn("malformed feed message", zap.Error(err))
				continue
			}
			if envelope.Instance == b.instanceID {
				continue
			}
			b.registry.Broadcast(envelope.Payload)
		}
	}
}
