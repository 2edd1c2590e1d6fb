// Package store defines the entity store port consumed by the reducers and
// the unit of work that turns one event's writes into one atomic changeset.
package store

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when a required backend has no settings.
var ErrNotConfigured = errors.New("store: not configured")

// ErrRejected marks a changeset the backend will never accept as written.
// Retrying it cannot succeed.
var ErrRejected = errors.New("store: changeset rejected")

// Reader loads one stored record document. A missing record is
// (nil, false, nil); errors are reserved for transport failures.
type Reader interface {
	Load(ctx context.Context, kind entity.Kind, id string) ([]byte, bool, error)
}

// Store is the keyed record repository. Commit applies every change of a
// changeset atomically together with its checkpoint.
type Store interface {
	Reader
	Commit(ctx context.Context, cs *Changeset) error
	LastCheckpoint(ctx context.Context) (*Checkpoint, error)
}

// Checkpoint records the last event whose changes were committed.
type Checkpoint struct {
	Position       event.Position `json:"position"`
	EventType      string         `json:"event_type"`
	IdempotencyKey string         `json:"idempotency_key"`
	// ChainHash is the hex SHA-256 chain over all committed changesets.
	ChainHash string    `json:"chain_hash"`
	Events    int64     `json:"events"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get loads and decodes a record of type T. found is false when the record
// does not exist.
func Get[T any, PT interface {
	*T
	entity.Record
}](ctx context.Context, r Reader, id string) (PT, bool, error) {
	var zero T
	kind := PT(&zero).Kind()

	doc, found, err := r.Load(ctx, kind, id)
	if err != nil {
		return nil, false, fmt.Errorf("load %s %q: %w", kind, id, err)
	}
	if !found {
		return nil, false, nil
	}

	rec := PT(new(T))
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, false, fmt.Errorf("decode %s %q: %w", kind, id, err)
	}
	return rec, true, nil
}
