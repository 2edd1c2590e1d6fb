// Package reducer holds what the registry, exchange and auction reducers
// share: configuration, collaborators and data-inconsistency reporting.
package reducer

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/identity"
	"LandLedger/internal/observability"
	"strings"

	"github.com/rs/zerolog"
)

// Labels are the tags written into archival records.
type Labels struct {
	Removed   entity.InactiveReason
	Finalized entity.InactiveReason
	Content   entity.URIKind
	Metadata  entity.URIKind
	Pending   entity.ListingStatus
	Finished  entity.ListingStatus
	Canceled  entity.ListingStatus
	Active    entity.ReserveBidType
	Refunded  entity.ReserveBidType
	Final     entity.ReserveBidType
}

// DefaultLabels returns the stored status and type strings.
func DefaultLabels() Labels {
	return Labels{
		Removed:   entity.InactiveRemoved,
		Finalized: entity.InactiveFinalized,
		Content:   entity.URIContent,
		Metadata:  entity.URIMetadata,
		Pending:   entity.ListingPending,
		Finished:  entity.ListingFinished,
		Canceled:  entity.ListingCanceled,
		Active:    entity.ReserveBidActive,
		Refunded:  entity.ReserveBidRefunded,
		Final:     entity.ReserveBidFinal,
	}
}

// Config is passed to every reducer.
type Config struct {
	// ZeroAddress marks mint (as sender) and burn (as recipient).
	ZeroAddress string
	// LandContract is the registry address; reserve listings of its tokens
	// reference the Land record.
	LandContract string
	Labels       Labels
}

// DefaultConfig returns the configuration for the given land registry contract.
func DefaultConfig(landContract string) Config {
	return Config{
		ZeroAddress:  entity.ZeroAddress,
		LandContract: strings.ToLower(landContract),
		Labels:       DefaultLabels(),
	}
}

// IsLandContract reports whether addr is the configured registry.
func (c Config) IsLandContract(addr string) bool {
	return c.LandContract != "" && strings.EqualFold(c.LandContract, addr)
}

// Deps bundles reducer collaborators.
type Deps struct {
	Config   Config
	Identity *identity.Resolver
	Reader   chain.ContractReader
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
}

// Policy is what a reducer does when a record it expects is missing.
type Policy string

const (
	// PolicySkip drops the event without writes.
	PolicySkip Policy = "skip"
	// PolicyDefault continues with a documented placeholder record.
	PolicyDefault Policy = "default"
	// PolicyContinue continues without the record.
	PolicyContinue Policy = "continue"
)

// EventLogger returns a logger carrying the event's position.
func (d *Deps) EventLogger(evt event.Event) zerolog.Logger {
	meta := evt.Log()
	return d.Logger.With().
		Str("event_type", evt.EventType().String()).
		Uint64("block", meta.BlockNumber).
		Str("tx_hash", meta.TxHash).
		Uint64("log_index", meta.LogIndex).
		Logger()
}

// Missing reports a data inconsistency: evt references a record that
// should exist but does not.
func (d *Deps) Missing(logger zerolog.Logger, evt event.Event, kind entity.Kind, id string, policy Policy) {
	logger.Warn().
		Str("kind", string(kind)).
		Str("record_id", id).
		Str("policy", string(policy)).
		Msg("expected record is missing")
	if d.Metrics != nil {
		d.Metrics.MissingRecords.WithLabelValues(evt.EventType().String(), string(kind)).Inc()
	}
}

// Noop reports an event that is a defined no-op.
func (d *Deps) Noop(logger zerolog.Logger, evt event.Event, reason string) {
	logger.Info().Str("reason", reason).Msg("event is a no-op")
	if d.Metrics != nil {
		d.Metrics.NoopEvents.WithLabelValues(evt.EventType().String()).Inc()
	}
}
