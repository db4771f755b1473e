package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// SchemaVersion is stamped on every envelope.
const SchemaVersion = 1

// Aggregate names the entity an event is about. Events of one aggregate
// share a partition key and therefore stay ordered.
type Aggregate struct {
	Type string
	ID   string
}

// Key is the partition key of the aggregate.
func (a Aggregate) Key() string {
	return a.Type + ":" + a.ID
}

// Event is the envelope for every message published by the storefront.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

var now = time.Now

// NewEvent builds an envelope around data.
func NewEvent(eventType string, agg Aggregate, source string, data any) (*Event, error) {
	if eventType == "" || agg.ID == "" {
		return nil, errors.New("kafka event: type and aggregate id are required")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   agg.ID,
		AggregateType: agg.Type,
		Version:       SchemaVersion,
		Timestamp:     now().UTC(),
		Source:        source,
		Data:          payload,
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Aggregate returns the aggregate the event belongs to.
func (e *Event) Aggregate() Aggregate {
	return Aggregate{Type: e.AggregateType, ID: e.AggregateID}
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}

// message encodes the event for topic. Routing fields are duplicated into
// headers so consumers can filter without decoding the body.
func (e *Event) message(topic string) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(e.EventType)},
		{Key: "aggregate_type", Value: []byte(e.AggregateType)},
		{Key: "source", Value: []byte(e.Source)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}

	return kafka.Message{
		Topic:   topic,
		Key:     []byte(e.Aggregate().Key()),
		Value:   value,
		Headers: headers,
	}, nil
}
