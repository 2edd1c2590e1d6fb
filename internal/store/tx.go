package store

import (
	"LandLedger/internal/entity"
	"context"
	"encoding/json"
	"fmt"
)

// Tx is the unit of work for a single event. Reads see the event's own
// staged writes first. Save encodes the record immediately, so mutating a
// record after saving it has no effect unless it is saved again.
// Not thread-safe: one Tx per event on the processing goroutine.
type Tx struct {
	base  Reader
	cs    *Changeset
	reads int
}

func NewTx(base Reader) *Tx {
	return &Tx{base: base, cs: NewChangeset()}
}

// Load implements Reader.
func (t *Tx) Load(ctx context.Context, kind entity.Kind, id string) ([]byte, bool, error) {
	t.reads++
	if c, ok := t.cs.lookup(kind, id); ok {
		if c.Op == OpRemove {
			return nil, false, nil
		}
		return c.Doc, true, nil
	}
	return t.base.Load(ctx, kind, id)
}

// Save stages an upsert of r.
func (t *Tx) Save(r entity.Record) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", r.Kind(), r.Key(), err)
	}
	t.cs.put(Change{Kind: r.Kind(), ID: r.Key(), Op: OpSave, Doc: doc})
	return nil
}

// Remove stages a delete.
func (t *Tx) Remove(kind entity.Kind, id string) {
	t.cs.put(Change{Kind: kind, ID: id, Op: OpRemove})
}

// Changeset returns the staged writes.
func (t *Tx) Changeset() *Changeset {
	return t.cs
}

// Reads returns how many loads the event performed.
func (t *Tx) Reads() int {
	return t.reads
}
