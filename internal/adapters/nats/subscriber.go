package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// Subscriber consumes coverage-plan events from NATS JetStream with a
// durable consumer.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCoveragePlans delivers each generated coverage plan to the
// handler. Failed handlers trigger redelivery up to three times.
func (s *Subscriber) SubscribeCoveragePlans(ctx context.Context, handler func(ctx context.Context, plan *domain.CoveragePlan) error) error {
	sub, err := s.js.Subscribe("places.coverage.>", func(msg *nats.Msg) {
		var plan domain.CoveragePlan
		if err := json.Unmarshal(msg.Data, &plan); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &plan); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("coverage-plan-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
