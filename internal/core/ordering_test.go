package core_test

import (
	"LandLedger/internal/core"
	"LandLedger/internal/event"
	"encoding/hex"
	"testing"
)

func TestOrderValidator(t *testing.T) {
	v := core.NewOrderValidator()

	steps := []struct {
		pos  event.Position
		want bool
	}{
		{event.Position{Block: 10, TxIndex: 0, LogIndex: 3}, true},
		{event.Position{Block: 10, TxIndex: 0, LogIndex: 4}, true},
		{event.Position{Block: 10, TxIndex: 2, LogIndex: 0}, true},
		{event.Position{Block: 10, TxIndex: 2, LogIndex: 0}, false},
		{event.Position{Block: 9, TxIndex: 5, LogIndex: 5}, false},
		{event.Position{Block: 11}, true},
	}
	for i, s := range steps {
		if got := v.Observe(s.pos); got != s.want {
			t.Errorf("step %d %s: got %v, want %v", i, s.pos, got, s.want)
		}
		v.Commit(s.pos)
	}
	if v.OutOfOrder() != 2 {
		t.Errorf("out of order: got %d, want 2", v.OutOfOrder())
	}
	if last, _ := v.Last(); last != (event.Position{Block: 11}) {
		t.Errorf("last: got %s", last)
	}
}

func TestOrderValidatorIgnoresUncommittedPositions(t *testing.T) {
	v := core.NewOrderValidator()
	pos := event.Position{Block: 10, LogIndex: 1}

	// A failed event is observed but never committed; its redelivery is in order.
	if !v.Observe(pos) || !v.Observe(pos) {
		t.Fatal("redelivered uncommitted event must be in order")
	}
	if v.OutOfOrder() != 0 {
		t.Errorf("out of order: got %d, want 0", v.OutOfOrder())
	}
}

func TestStateHasherRestore(t *testing.T) {
	h := core.NewStateHasher()
	hash := h.ComputeHash(event.Position{Block: 1}, []byte("digest"))
	if h.PrevHash() == hash {
		t.Fatal("ComputeHash advanced the chain")
	}
	h.Advance(hash)

	restored := core.NewStateHasher()
	if err := restored.Restore(hex.EncodeToString(hash[:])); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.PrevHash() != hash {
		t.Fatal("restored tip differs")
	}
	if err := restored.Restore("abcd"); err == nil {
		t.Fatal("expected short hash to fail")
	}
}
