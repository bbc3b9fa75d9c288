package bus

import (
	"context"
	"encoding/json"
	"time"
)

type Keyer interface {
	PartitionKey() string
}

// La semántica de topic/nombre y formato del payload la decides en los adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}

// IntegrationEvent es el sobre común de los eventos que salen del proceso.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func (e IntegrationEvent) PartitionKey() string { return e.Key }

// NewIntegrationEvent serializa data dentro del sobre.
func NewIntegrationEvent(eventType, key string, at time.Time, data interface{}) (IntegrationEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{Type: eventType, Key: key, Timestamp: at.UTC(), Data: raw}, nil
}

var _ Keyer = IntegrationEvent{}
