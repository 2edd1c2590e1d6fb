package event

import (
	"fmt"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota

	// NFT registry
	EventTypeTransfer
	EventTypeApproval
	EventTypeApprovalForAll
	EventTypeTokenURIUpdated
	EventTypeTokenMetadataURIUpdated

	// Exchange
	EventTypeBidShareUpdated
	EventTypeAskCreated
	EventTypeAskRemoved
	EventTypeBidCreated
	EventTypeBidRemoved
	EventTypeBidFinalized

	// Reserve listings
	EventTypeReserveListingCreated
	EventTypeReserveListingApprovalUpdated
	EventTypeReserveListingPriceUpdated
	EventTypeReserveListingBid
	EventTypeReserveListingDurationExtended
	EventTypeReserveListingFinalized
	EventTypeReserveListingCanceled
)

// LogMeta locates an event in the ledger. Every event embeds it.
type LogMeta struct {
	BlockNumber    uint64
	BlockTimestamp uint64
	TxHash         string
	TxIndex        uint64
	// LogIndex is transaction-scoped.
	LogIndex uint64
	// Contract is the emitting contract address.
	Contract string
}

// Log returns the ledger position of the event.
func (m LogMeta) Log() LogMeta {
	return m
}

// IdempotencyKey is stable across redeliveries of the same log.
func (m LogMeta) IdempotencyKey() string {
	return fmt.Sprintf("%s-%d", m.TxHash, m.LogIndex)
}

// Position returns the total-order key of the log.
func (m LogMeta) Position() Position {
	return Position{Block: m.BlockNumber, TxIndex: m.TxIndex, LogIndex: m.LogIndex}
}

// Position orders events by (block, tx index, log index).
type Position struct {
	Block    uint64 `json:"block"`
	TxIndex  uint64 `json:"tx_index"`
	LogIndex uint64 `json:"log_index"`
}

// Less reports whether p sorts strictly before q.
func (p Position) Less(q Position) bool {
	if p.Block != q.Block {
		return p.Block < q.Block
	}
	if p.TxIndex != q.TxIndex {
		return p.TxIndex < q.TxIndex
	}
	return p.LogIndex < q.LogIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d/%d", p.Block, p.TxIndex, p.LogIndex)
}

// Event is the interface all event payloads must implement
type Event interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// EventType returns the discriminator
	EventType() EventType

	// Log returns block, transaction and log position
	Log() LogMeta
}

var eventTypeNames = map[EventType]string{
	EventTypeTransfer:                       "Transfer",
	EventTypeApproval:                       "Approval",
	EventTypeApprovalForAll:                 "ApprovalForAll",
	EventTypeTokenURIUpdated:                "TokenURIUpdated",
	EventTypeTokenMetadataURIUpdated:        "TokenMetadataURIUpdated",
	EventTypeBidShareUpdated:                "BidShareUpdated",
	EventTypeAskCreated:                     "AskCreated",
	EventTypeAskRemoved:                     "AskRemoved",
	EventTypeBidCreated:                     "BidCreated",
	EventTypeBidRemoved:                     "BidRemoved",
	EventTypeBidFinalized:                   "BidFinalized",
	EventTypeReserveListingCreated:          "ReserveListingCreated",
	EventTypeReserveListingApprovalUpdated:  "ReserveListingApprovalUpdated",
	EventTypeReserveListingPriceUpdated:     "ReserveListingPriceUpdated",
	EventTypeReserveListingBid:              "ReserveListingBid",
	EventTypeReserveListingDurationExtended: "ReserveListingDurationExtended",
	EventTypeReserveListingFinalized:        "ReserveListingFinalized",
	EventTypeReserveListingCanceled:         "ReserveListingCanceled",
}

func (et EventType) String() string {
	if name, ok := eventTypeNames[et]; ok {
		return name
	}
	return "Unknown"
}

// ParseEventType is the inverse of EventType.String.
func ParseEventType(name string) (EventType, bool) {
	for et, n := range eventTypeNames {
		if n == name {
			return et, true
		}
	}
	return EventTypeUnknown, false
}
