package event

import "math/big"

// ListingRef identifies a reserve listing on the exchange.
type ListingRef struct {
	ListingID     *big.Int
	TokenID       *big.Int
	TokenContract string
}

type ReserveListingCreated struct {
	LogMeta
	ListingRef
	StartsAt                  uint64
	Duration                  uint64
	ListPrice                 *big.Int
	ListType                  uint8
	IntermediaryFeePercentage uint8
	TokenOwner                string
	Intermediary              string
	ListCurrency              string
}

func (e *ReserveListingCreated) EventType() EventType {
	return EventTypeReserveListingCreated
}

// ReserveListingApprovalUpdated is emitted by the intermediary.
type ReserveListingApprovalUpdated struct {
	LogMeta
	ListingRef
	Approved bool
}

func (e *ReserveListingApprovalUpdated) EventType() EventType {
	return EventTypeReserveListingApprovalUpdated
}

type ReserveListingPriceUpdated struct {
	LogMeta
	ListingRef
	ListPrice *big.Int
}

func (e *ReserveListingPriceUpdated) EventType() EventType {
	return EventTypeReserveListingPriceUpdated
}

// ReserveListingBid is a bid accepted by the listing. FirstBid is set by the
// contract when the listing had no bid before.
type ReserveListingBid struct {
	LogMeta
	ListingRef
	Sender   string
	Value    *big.Int
	FirstBid bool
}

func (e *ReserveListingBid) EventType() EventType {
	return EventTypeReserveListingBid
}

type ReserveListingDurationExtended struct {
	LogMeta
	ListingRef
	Duration uint64
}

func (e *ReserveListingDurationExtended) EventType() EventType {
	return EventTypeReserveListingDurationExtended
}

// ReserveListingFinalized settles the listing to the current highest bidder.
type ReserveListingFinalized struct {
	LogMeta
	ListingRef
	TokenOwner      string
	Intermediary    string
	Winner          string
	Amount          *big.Int
	IntermediaryFee *big.Int
}

func (e *ReserveListingFinalized) EventType() EventType {
	return EventTypeReserveListingFinalized
}

type ReserveListingCanceled struct {
	LogMeta
	ListingRef
	TokenOwner string
}

func (e *ReserveListingCanceled) EventType() EventType {
	return EventTypeReserveListingCanceled
}
