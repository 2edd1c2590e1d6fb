// Package entity holds the records derived from the land registry and
// exchange event log, and the deterministic keys they are stored under.
package entity

// ZeroAddress is the reserved account used as sender on mint and recipient
// on burn. It also denotes the native coin when used as a currency.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Kind names a record table.
type Kind string

const (
	KindUser                      Kind = "User"
	KindCurrency                  Kind = "Currency"
	KindLand                      Kind = "Land"
	KindAsk                       Kind = "Ask"
	KindInactiveAsk               Kind = "InactiveAsk"
	KindBid                       Kind = "Bid"
	KindInactiveBid               Kind = "InactiveBid"
	KindTransfer                  Kind = "Transfer"
	KindURIUpdate                 Kind = "URIUpdate"
	KindReserveListing            Kind = "ReserveListing"
	KindReserveListingBid         Kind = "ReserveListingBid"
	KindInactiveReserveListingBid Kind = "InactiveReserveListingBid"
)

// Kinds lists every record kind.
var Kinds = []Kind{
	KindUser,
	KindCurrency,
	KindLand,
	KindAsk,
	KindInactiveAsk,
	KindBid,
	KindInactiveBid,
	KindTransfer,
	KindURIUpdate,
	KindReserveListing,
	KindReserveListingBid,
	KindInactiveReserveListingBid,
}

// Record is implemented by every stored entity.
type Record interface {
	Kind() Kind
	Key() string
}

// InactiveReason labels why an ask or bid was archived.
type InactiveReason string

const (
	InactiveRemoved   InactiveReason = "Removed"
	InactiveFinalized InactiveReason = "Finalized"
)

// URIKind labels which URI a URIUpdate changed.
type URIKind string

const (
	URIContent  URIKind = "Content"
	URIMetadata URIKind = "Metadata"
)

// ListingStatus is the stored status of a reserve listing. A live listing
// stays Pending; it is active once FirstBidTime is set.
type ListingStatus string

const (
	ListingPending  ListingStatus = "Pending"
	ListingFinished ListingStatus = "Finished"
	ListingCanceled ListingStatus = "Canceled"
)

// ReserveBidType labels a reserve listing bid.
type ReserveBidType string

const (
	ReserveBidActive   ReserveBidType = "Active"
	ReserveBidRefunded ReserveBidType = "Refunded"
	ReserveBidFinal    ReserveBidType = "Final"
)
