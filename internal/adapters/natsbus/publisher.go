// Package natsbus publishes breach alerts as JSON events on NATS.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

const AlertsSubject = "breach.alerts"

// AlertEvent is the payload published for every delivered alert.
type AlertEvent struct {
	ID             string    `json:"id"`
	Identity       string    `json:"identity"`
	IdentityDomain string    `json:"identity_domain,omitempty"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	PublishedAt    time.Time `json:"published_at"`
}

type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

type Publisher struct {
	Conn    *nats.Conn
	subject string
	pub     conn
	now     func() time.Time
}

func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: NATS_URL", domain.ErrConfigurationMissing)
	}
	c, err := nats.Connect(url, nats.Name("breachmonitor"))
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: c, subject: AlertsSubject, pub: c, now: time.Now}, nil
}

func (p *Publisher) Close() {
	if p.Conn != nil {
		_ = p.Conn.Drain()
		p.Conn.Close()
	}
}

// Notify publishes msg and waits for the server to acknowledge the flush.
func (p *Publisher) Notify(ctx context.Context, identity domain.Identity, msg ports.Message) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("%w: NATS_URL", domain.ErrConfigurationMissing)
	}
	evt := AlertEvent{
		ID:             uuid.NewString(),
		Identity:       identity.String(),
		IdentityDomain: identity.Domain(),
		Subject:        msg.Subject,
		Body:           msg.TextBody,
		PublishedAt:    p.now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	if err := p.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}
