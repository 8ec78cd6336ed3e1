package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. The alert store's change
// feed is a single channel on it: one producer, many aggregator consumers.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
