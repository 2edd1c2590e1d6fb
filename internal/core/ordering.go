package core

import (
	"LandLedger/internal/event"
	"sync/atomic"
)

// OrderValidator checks that events arrive in ledger order.
// Observe and Restore are called only from the indexer goroutine;
// OutOfOrder may be read concurrently.
type OrderValidator struct {
	last       event.Position
	seen       bool
	outOfOrder atomic.Int64
}

func NewOrderValidator() *OrderValidator {
	return &OrderValidator{}
}

// Observe reports whether pos follows the last committed position and
// counts it when it does not. Out-of-order events are still processed; the
// caller only reports them.
func (v *OrderValidator) Observe(pos event.Position) bool {
	if v.seen && !v.last.Less(pos) {
		v.outOfOrder.Add(1)
		return false
	}
	return true
}

// Commit advances the last position to pos unless pos is behind it.
func (v *OrderValidator) Commit(pos event.Position) {
	if !v.seen || v.last.Less(pos) {
		v.last = pos
		v.seen = true
	}
}

// Last returns the latest committed position.
func (v *OrderValidator) Last() (event.Position, bool) {
	return v.last, v.seen
}

// Restore initializes the last position (used during recovery)
func (v *OrderValidator) Restore(pos event.Position) {
	v.last = pos
	v.seen = true
}

func (v *OrderValidator) OutOfOrder() int64 {
	return v.outOfOrder.Load()
}
