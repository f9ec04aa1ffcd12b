// Package events announces directory changes to other services over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/UnknownOlympus/locus/internal/models"
	"github.com/nats-io/nats.go"
)

// SubjectRegistered receives one message per stored profile.
const SubjectRegistered = "locus.profiles.registered"

// Publisher announces stored profiles.
type Publisher interface {
	PublishRegistered(ctx context.Context, profile models.Profile) error
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Registered is the payload sent on SubjectRegistered. Contact details are never included.
type Registered struct {
	ID        string    `json:"id"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRegistered builds the event payload for a stored profile.
func NewRegistered(profile models.Profile) Registered {
	event := Registered{
		ID:        profile.ID,
		Pending:   profile.Coordinates == nil,
		CreatedAt: profile.CreatedAt,
	}
	if profile.Coordinates != nil {
		lat, lng := profile.Coordinates.Latitude, profile.Coordinates.Longitude
		event.Latitude, event.Longitude = &lat, &lng
	}

	return event
}

// NATSPublisher publishes events on a core NATS connection.
type NATSPublisher struct {
	conn  Conn
	close func()
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("locus"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSPublisher{conn: conn, close: func() { _ = conn.Drain() }}, nil
}

// NewNATSPublisherWithConn wraps an existing connection.
func NewNATSPublisherWithConn(conn Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn, close: func() {}}
}

// PublishRegistered sends the registration event of profile.
func (p *NATSPublisher) PublishRegistered(_ context.Context, profile models.Profile) error {
	data, err := json.Marshal(NewRegistered(profile))
	if err != nil {
		return fmt.Errorf("failed to encode registration event: %w", err)
	}

	if err = p.conn.Publish(SubjectRegistered, data); err != nil {
		return fmt.Errorf("failed to publish registration event: %w", err)
	}

	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	p.close()
}

// Noop discards every event. It is used when no NATS server is configured.
type Noop struct{}

func (Noop) PublishRegistered(context.Context, models.Profile) error { return nil }
