// Package events publishes account lifecycle events to a message broker for
// downstream consumers (analytics, audit, welcome mailers). Publishing is
// best-effort: failures are reported to the caller for logging but never
// surface to API clients.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Account event types.
const (
	TypeSignedUp        = "account.signed_up"
	TypePasswordChanged = "account.password_changed"
	TypePasswordReset   = "account.password_reset"
)

// AccountEvent is the payload published to the account-events channel.
type AccountEvent struct {
	Type   string    `json:"type"`
	UserID int       `json:"user_id"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

// Backend abstracts the broker. Implementations exist for RabbitMQ and
// Google Cloud Pub/Sub.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher serializes account events onto a fixed channel.
type Publisher struct {
	backend Backend
	channel string
}

func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish sends one account event. The broker message id is returned for
// logging.
func (p *Publisher) Publish(ctx context.Context, event AccountEvent) (string, error) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, p.channel, data, map[string]string{"type": event.Type})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
