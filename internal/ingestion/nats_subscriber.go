package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// RawEvent is an undecoded ledger event, ready for the runner to parse
// into a typed event.Event before sending it to the indexer.
type RawEvent struct {
	Subject  string
	Data     []byte
	Received time.Time
	AckFunc  func() // processed and committed
	NakFunc  func() // failed, redeliver
	TermFunc func() // undecodable, never redeliver
	// DoneFunc, when set, receives the processing outcome.
	DoneFunc func(error)
}

func (r RawEvent) done(err error) {
	if r.DoneFunc != nil {
		r.DoneFunc(err)
	}
}

func (r RawEvent) ack() {
	if r.AckFunc != nil {
		r.AckFunc()
	}
}

func (r RawEvent) nak() {
	if r.NakFunc != nil {
		r.NakFunc()
	}
}

func (r RawEvent) term() {
	if r.TermFunc != nil {
		r.TermFunc()
		return
	}
	r.ack()
}

// SubjectPrefix is the prefix of inbound subjects; the final token names
// the event type, e.g. land.events.Transfer.
const SubjectPrefix = "land.events."

// SubscriberConfig describes the ingest stream and its durable consumer.
type SubscriberConfig struct {
	StreamName   string
	Subject      string
	ConsumerName string
	AckWait      time.Duration
	MaxAge       time.Duration
}

func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		StreamName:   "LAND_EVENTS",
		Subject:      SubjectPrefix + ">",
		ConsumerName: "landledger",
		AckWait:      30 * time.Second,
		MaxAge:       7 * 24 * time.Hour,
	}
}

// EventTypeName returns the event type token of an inbound subject.
func EventTypeName(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// NATSSubscriber feeds JetStream messages into eventChan. The consumer
// allows a single unacknowledged message, so events reach the indexer in
// stream order and the next one is delivered only after the ack.
type NATSSubscriber struct {
	js        jetstream.JetStream
	eventChan chan<- RawEvent
	logger    zerolog.Logger
	consumer  jetstream.ConsumeContext
}

func NewNATSSubscriber(js jetstream.JetStream, eventChan chan<- RawEvent, logger zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		js:        js,
		eventChan: eventChan,
		logger:    logger.With().Str("component", "nats_subscriber").Logger(),
	}
}

// Subscribe creates the durable consumer and starts delivery.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, cfg SubscriberConfig) error {
	consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxAckPending: 1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		raw := RawEvent{
			Subject:  msg.Subject(),
			Data:     msg.Data(),
			Received: time.Now(),
			AckFunc:  func() { _ = msg.Ack() },
			NakFunc:  func() { _ = msg.Nak() },
			TermFunc: func() { _ = msg.Term() },
		}

		select {
		case ns.eventChan <- raw:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
	}

	ns.consumer = cc
	ns.logger.Info().Str("subject", cfg.Subject).Str("consumer", cfg.ConsumerName).Msg("subscribed")
	return nil
}

// EnsureStream creates the ingest stream if it does not exist.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg SubscriberConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    cfg.MaxAge,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// Stop stops message delivery.
func (ns *NATSSubscriber) Stop() {
	if ns.consumer != nil {
		ns.consumer.Stop()
	}
	ns.logger.Info().Msg("subscriber stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.Name("landledger"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
