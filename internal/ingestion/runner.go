package ingestion

import (
	"LandLedger/internal/event"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// EventProcessor applies one typed event. core.Indexer implements it.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, evt event.Event) error
}

// ErrParse wraps payloads that can never be applied.
var ErrParse = errors.New("unparseable event")

// Runner is the single consumer of the raw event channel. It parses each
// message, hands it to the processor and settles the delivery: ack on
// commit, nak on failure, term on parse errors and rejected changesets.
type Runner struct {
	processor EventProcessor
	events    <-chan RawEvent
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewRunner(processor EventProcessor, events <-chan RawEvent, logger zerolog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		processor: processor,
		events:    events,
		logger:    logger.With().Str("component", "runner").Logger(),
		metrics:   metrics,
	}
}

// Run blocks until ctx is canceled or the channel is closed.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-r.events:
			if !ok {
				return nil
			}
			r.handle(ctx, raw)
		}
	}
}

func (r *Runner) handle(ctx context.Context, raw RawEvent) {
	evt, err := ParseRawEvent(raw)
	if err != nil {
		r.logger.Error().Err(err).Str("subject", raw.Subject).Msg("dropping unparseable event")
		if r.metrics != nil {
			r.metrics.IngestParseErrors.WithLabelValues(raw.Subject).Inc()
		}
		raw.term()
		raw.done(fmt.Errorf("%w: %w", ErrParse, err))
		return
	}

	if err := r.processor.ProcessEvent(ctx, evt); err != nil {
		if errors.Is(err, store.ErrRejected) {
			r.logger.Error().Err(err).
				Str("event_type", evt.EventType().String()).
				Str("key", evt.IdempotencyKey()).
				Msg("dropping event rejected by the store")
			raw.term()
			raw.done(err)
			return
		}
		r.logger.Warn().Err(err).
			Str("event_type", evt.EventType().String()).
			Str("key", evt.IdempotencyKey()).
			Msg("event not applied, requesting redelivery")
		raw.nak()
		raw.done(err)
		return
	}

	raw.ack()
	raw.done(nil)
}

// Injector submits events through the runner channel, so injected events
// are serialized with the stream.
type Injector struct {
	events chan<- RawEvent
}

func NewInjector(events chan<- RawEvent) *Injector {
	return &Injector{events: events}
}

// Inject enqueues one event and waits for its outcome.
func (in *Injector) Inject(ctx context.Context, eventType string, data []byte) error {
	result := make(chan error, 1)
	raw := RawEvent{
		Subject:  SubjectPrefix + eventType,
		Data:     data,
		Received: time.Now(),
		DoneFunc: func(err error) { result <- err },
	}

	select {
	case in.events <- raw:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
