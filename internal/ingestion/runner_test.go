package ingestion_test

import (
	"LandLedger/internal/event"
	"LandLedger/internal/ingestion"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingProcessor) ProcessEvent(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type settlement struct {
	mu      sync.Mutex
	outcome string
}

func (s *settlement) set(v string) {
	s.mu.Lock()
	s.outcome = v
	s.mu.Unlock()
}

func (s *settlement) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func startRunner(t *testing.T, p ingestion.EventProcessor) (chan ingestion.RawEvent, *observability.Metrics) {
	t.Helper()
	ch := make(chan ingestion.RawEvent)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	r := ingestion.NewRunner(p, ch, zerolog.Nop(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ch, metrics
}

func send(t *testing.T, ch chan<- ingestion.RawEvent, subject string, data []byte) *settlement {
	t.Helper()
	s := &settlement{}
	ch <- ingestion.RawEvent{
		Subject:  subject,
		Data:     data,
		AckFunc:  func() { s.set("ack") },
		NakFunc:  func() { s.set("nak") },
		TermFunc: func() { s.set("term") },
	}
	return s
}

func transferPayload(t *testing.T) []byte {
	return payload(t, map[string]any{"from": zero, "to": alice, "token_id": "1"})
}

func TestRunnerAcksCommittedEvents(t *testing.T) {
	p := &recordingProcessor{}
	ch, _ := startRunner(t, p)

	s := send(t, ch, "land.events.Transfer", transferPayload(t))
	require.Eventually(t, func() bool { return s.get() == "ack" }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, p.count())
}

func TestRunnerTerminatesUnparseableEvents(t *testing.T) {
	p := &recordingProcessor{}
	ch, metrics := startRunner(t, p)

	s := send(t, ch, "land.events.Bogus", []byte(`{}`))
	require.Eventually(t, func() bool { return s.get() == "term" }, time.Second, 5*time.Millisecond)
	require.Zero(t, p.count())
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.IngestParseErrors.WithLabelValues("land.events.Bogus")))
}

func TestRunnerNaksFailedEvents(t *testing.T) {
	p := &recordingProcessor{err: errors.New("rpc unavailable")}
	ch, _ := startRunner(t, p)

	s := send(t, ch, "land.events.Transfer", transferPayload(t))
	require.Eventually(t, func() bool { return s.get() == "nak" }, time.Second, 5*time.Millisecond)
}

func TestRunnerTerminatesRejectedEvents(t *testing.T) {
	p := &recordingProcessor{err: fmt.Errorf("commit Transfer: %w", store.ErrRejected)}
	ch, _ := startRunner(t, p)

	s := send(t, ch, "land.events.Transfer", transferPayload(t))
	require.Eventually(t, func() bool { return s.get() == "term" }, time.Second, 5*time.Millisecond)
}

func TestInjectorReturnsOutcome(t *testing.T) {
	p := &recordingProcessor{}
	ch, _ := startRunner(t, p)
	in := ingestion.NewInjector(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, in.Inject(ctx, "Transfer", transferPayload(t)))
	require.Equal(t, 1, p.count())

	err := in.Inject(ctx, "Transfer", []byte(`{"from":"nope"}`))
	require.ErrorIs(t, err, ingestion.ErrParse)
	require.Equal(t, 1, p.count())
}
