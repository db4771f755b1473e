package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/store"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topic constants for storefront events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicWishlistUpdated = "storefront.wishlist.updated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string          `json:"session_id"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event. Action
// is the store event type, e.g. wishlist.item_added.
type WishlistUpdatedData struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	ProductID int    `json:"product_id,omitempty"`
	Name      string `json:"name,omitempty"`
	ItemCount int    `json:"item_count"`
}

// Publisher is the part of pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka    Publisher
	logger   *slog.Logger
	currency string
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:    kafka,
		logger:   logger,
		currency: "USD",
	}
}

func (p *Producer) publish(ctx context.Context, topic string, agg pkgkafka.Aggregate, data any) error {
	event, err := pkgkafka.NewEvent(topic, agg, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("session_id", agg.ID),
	)
	return nil
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, itemCount int, total decimal.Decimal) error {
	return p.publish(ctx, TopicCartUpdated, pkgkafka.Aggregate{Type: AggregateTypeCart, ID: sessionID}, CartUpdatedData{
		SessionID:   sessionID,
		ItemCount:   itemCount,
		TotalAmount: total,
		Currency:    p.currency,
	})
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	return p.publish(ctx, TopicCartCleared, pkgkafka.Aggregate{Type: AggregateTypeCart, ID: sessionID}, CartClearedData{SessionID: sessionID})
}

// PublishWishlistUpdated publishes a wishlist.updated event for any
// wishlist change.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, e store.Event) error {
	return p.publish(ctx, TopicWishlistUpdated, pkgkafka.Aggregate{Type: AggregateTypeWishlist, ID: e.Session}, WishlistUpdatedData{
		SessionID: e.Session,
		Action:    string(e.Type),
		ProductID: e.ProductID,
		Name:      e.Name,
		ItemCount: e.ItemCount,
	})
}

// Listener returns a store listener that publishes every event. Publishing
// errors are logged and never reach the store.
func (p *Producer) Listener() store.Listener {
	return func(ctx context.Context, e store.Event) {
		var err error
		switch e.Type {
		case store.EventCartUpdated:
			err = p.PublishCartUpdated(ctx, e.Session, e.ItemCount, e.Total)
		case store.EventCartCleared:
			err = p.PublishCartCleared(ctx, e.Session)
		case store.EventWishlistItemAdded, store.EventWishlistItemRemoved,
			store.EventWishlistCleared, store.EventWishlistReordered:
			err = p.PublishWishlistUpdated(ctx, e)
		default:
			return
		}
		if err != nil {
			p.logger.WarnContext(ctx, "failed to publish store event",
				slog.String("event_type", string(e.Type)),
				slog.String("session_id", e.Session),
				slog.String("error", err.Error()),
			)
		}
	}
}
