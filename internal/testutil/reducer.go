package testutil

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/identity"
	"LandLedger/internal/observability"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// LandContract is the registry address used across reducer tests.
const LandContract = "0x1111111111111111111111111111111111111111"

// NewDeps wires reducer dependencies around reader with a private
// metrics registry and a discarding logger.
func NewDeps(reader *FakeReader) reducer.Deps {
	logger := zerolog.New(io.Discard)
	return reducer.Deps{
		Config:   reducer.DefaultConfig(LandContract),
		Identity: identity.NewResolver(identity.DefaultConfig(), reader, logger),
		Reader:   reader,
		Logger:   logger,
		Metrics:  observability.NewMetricsWith(prometheus.NewRegistry()),
	}
}

// Meta builds log metadata for an event emitted by the land contract.
func Meta(block, timestamp uint64, txHash string, logIndex uint64) event.LogMeta {
	return event.LogMeta{
		BlockNumber:    block,
		BlockTimestamp: timestamp,
		TxHash:         txHash,
		LogIndex:       logIndex,
		Contract:       LandContract,
	}
}

// Apply runs fn in a fresh transaction over s and commits the result.
func Apply(t testing.TB, s store.Store, fn func(ctx context.Context, tx *store.Tx) error) *store.Changeset {
	t.Helper()
	ctx := context.Background()
	tx := store.NewTx(s)
	if err := fn(ctx, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	cs := tx.Changeset()
	if err := s.Commit(ctx, cs); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return cs
}

// MustGet loads a committed record or fails the test.
func MustGet[T any, PT interface {
	*T
	entity.Record
}](t testing.TB, r store.Reader, id string) PT {
	t.Helper()
	rec, found, err := store.Get[T, PT](context.Background(), r, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	if !found {
		var zero T
		t.Fatalf("%s %q not found", PT(&zero).Kind(), id)
	}
	return rec
}

// Absent fails the test if a record of kind exists under id.
func Absent(t testing.TB, r store.Reader, kind entity.Kind, id string) {
	t.Helper()
	_, found, err := r.Load(context.Background(), kind, id)
	if err != nil {
		t.Fatalf("load %s %s: %v", kind, id, err)
	}
	if found {
		t.Fatalf("%s %q exists, want absent", kind, id)
	}
}

// Big parses a base-10 integer.
func Big(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("testutil: bad integer " + s)
	}
	return n
}
