// Package core runs the single-threaded event pipeline: route each event
// to its reducer, chain the resulting changeset into the state hash and
// commit it atomically with the checkpoint.
package core

import (
	"LandLedger/internal/event"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Output describes one committed event.
type Output struct {
	Checkpoint store.Checkpoint
	Changes    []store.Change
}

type Options struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	// Outputs receives committed changesets. Sends never block; a full
	// channel drops the output.
	Outputs chan<- Output
	// RetryInitial and RetryMax bound the commit backoff. Commits are
	// retried until they succeed or the context is canceled.
	RetryInitial time.Duration
	RetryMax     time.Duration
	// Now stamps checkpoints; defaults to time.Now.
	Now func() time.Time
}

const (
	DefaultRetryInitial = 100 * time.Millisecond
	DefaultRetryMax     = 30 * time.Second
)

// Indexer is the event processor. Not thread-safe: ProcessEvent must be
// called from a single goroutine. Checkpoint may be read concurrently.
type Indexer struct {
	store   store.Store
	router  *Router
	hasher  *StateHasher
	order   *OrderValidator
	logger  zerolog.Logger
	metrics *observability.Metrics
	outputs chan<- Output

	retryInitial time.Duration
	retryMax     time.Duration
	now          func() time.Time

	events     int64
	checkpoint atomic.Pointer[store.Checkpoint]
}

func NewIndexer(st store.Store, router *Router, opts Options) *Indexer {
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = DefaultRetryInitial
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = DefaultRetryMax
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Indexer{
		store:        st,
		router:       router,
		hasher:       NewStateHasher(),
		order:        NewOrderValidator(),
		logger:       opts.Logger.With().Str("component", "indexer").Logger(),
		metrics:      opts.Metrics,
		outputs:      opts.Outputs,
		retryInitial: opts.RetryInitial,
		retryMax:     opts.RetryMax,
		now:          opts.Now,
	}
}

// Restore resumes the hash chain, event count and ledger position from the
// last committed checkpoint. A store without checkpoint starts at genesis.
func (ix *Indexer) Restore(ctx context.Context) error {
	cp, err := ix.store.LastCheckpoint(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil {
		ix.logger.Info().Msg("no checkpoint, starting from genesis")
		return nil
	}
	if err := ix.hasher.Restore(cp.ChainHash); err != nil {
		return err
	}
	ix.order.Restore(cp.Position)
	ix.events = cp.Events
	ix.checkpoint.Store(cp)

	ix.logger.Info().
		Str("position", cp.Position.String()).
		Int64("events", cp.Events).
		Str("chain_hash", cp.ChainHash).
		Msg("restored from checkpoint")
	return nil
}

// ProcessEvent applies evt and commits its changes with the checkpoint.
// On error nothing is committed and the event may be retried.
func (ix *Indexer) ProcessEvent(ctx context.Context, evt event.Event) error {
	start := time.Now()
	eventType := evt.EventType().String()
	pos := evt.Log().Position()

	if !ix.order.Observe(pos) {
		last, _ := ix.order.Last()
		ix.logger.Warn().
			Str("event_type", eventType).
			Str("position", pos.String()).
			Str("last", last.String()).
			Msg("event out of ledger order")
		if ix.metrics != nil {
			ix.metrics.EventOutOfOrder.Inc()
		}
	}

	tx := store.NewTx(ix.store)
	if err := ix.router.Route(ctx, tx, evt); err != nil {
		if ix.metrics != nil {
			ix.metrics.CoreEventsRejected.WithLabelValues(eventType, "reducer").Inc()
		}
		return fmt.Errorf("reduce %s %s: %w", eventType, evt.IdempotencyKey(), err)
	}

	cs := tx.Changeset()
	hash := ix.hasher.ComputeHash(pos, cs.Digest())
	cp := &store.Checkpoint{
		Position:       pos,
		EventType:      eventType,
		IdempotencyKey: evt.IdempotencyKey(),
		ChainHash:      hex.EncodeToString(hash[:]),
		Events:         ix.events + 1,
		UpdatedAt:      ix.now().UTC(),
	}
	cs.Checkpoint = cp

	if err := ix.commitWithRetry(ctx, cs); err != nil {
		if ix.metrics != nil {
			ix.metrics.CoreEventsRejected.WithLabelValues(eventType, "commit").Inc()
		}
		return fmt.Errorf("commit %s %s: %w", eventType, evt.IdempotencyKey(), err)
	}

	ix.hasher.Advance(hash)
	ix.order.Commit(pos)
	ix.events++
	ix.checkpoint.Store(cp)

	ix.logger.Debug().
		Str("event_type", eventType).
		Str("position", pos.String()).
		Int("changes", cs.Len()).
		Int("reads", tx.Reads()).
		Msg("event committed")

	if ix.metrics != nil {
		saved, removed := cs.CountByKind()
		for kind, n := range saved {
			ix.metrics.RecordsSaved.WithLabelValues(string(kind)).Add(float64(n))
		}
		for kind, n := range removed {
			ix.metrics.RecordsRemoved.WithLabelValues(string(kind)).Add(float64(n))
		}
		ix.metrics.CoreEventsApplied.WithLabelValues(eventType).Inc()
		ix.metrics.CoreEventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		ix.metrics.CoreEventsTotal.Set(float64(ix.events))
		ix.metrics.CoreLastBlock.Set(float64(pos.Block))
	}

	ix.emit(Output{Checkpoint: *cp, Changes: cs.Changes})
	return nil
}

// commitWithRetry commits cs, retrying store failures with exponential
// backoff until success, ctx cancellation or a store.ErrRejected failure.
func (ix *Indexer) commitWithRetry(ctx context.Context, cs *store.Changeset) error {
	bOff := backoff.NewExponentialBackOff()
	bOff.InitialInterval = ix.retryInitial
	bOff.MaxInterval = ix.retryMax
	bOff.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := ix.store.Commit(ctx, cs)
			if err != nil && (ctx.Err() != nil || errors.Is(err, store.ErrRejected)) {
				return backoff.Permanent(err)
			}
			if err == nil && attempt > 1 {
				ix.logger.Info().Int("attempts", attempt).Msg("commit succeeded after retries")
			}
			return err
		},
		backoff.WithContext(bOff, ctx),
		func(err error, d time.Duration) {
			ix.logger.Warn().Err(err).Dur("backoff", d).Int("attempt", attempt).Msg("commit failed, retrying")
			if ix.metrics != nil {
				ix.metrics.PersistRetry.Inc()
			}
		},
	)
}

func (ix *Indexer) emit(out Output) {
	if ix.outputs == nil {
		return
	}
	select {
	case ix.outputs <- out:
	default:
		if ix.metrics != nil {
			ix.metrics.PublishDrops.Inc()
		}
	}
}

// Checkpoint returns the last committed checkpoint, or nil.
func (ix *Indexer) Checkpoint() *store.Checkpoint {
	return ix.checkpoint.Load()
}

// StateHash returns the current chain tip. Call it from the indexer
// goroutine; concurrent readers use Checkpoint().ChainHash.
func (ix *Indexer) StateHash() [32]byte {
	return ix.hasher.PrevHash()
}

// OutOfOrder returns how many events arrived out of ledger order.
func (ix *Indexer) OutOfOrder() int64 {
	return ix.order.OutOfOrder()
}
