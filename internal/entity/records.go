package entity

import "math/big"

// DecimalsUnknown marks a currency whose decimals() read reverted.
const DecimalsUnknown = -1

// User is an address that appears in any indexed event.
type User struct {
	ID string `json:"id"`
	// AuthorizedUsers are operators approved for all of the user's tokens.
	// Duplicates are kept as emitted.
	AuthorizedUsers []string `json:"authorizedUsers,omitempty"`
}

func (r *User) Kind() Kind  { return KindUser }
func (r *User) Key() string { return r.ID }

// Currency is a payment token; the zero address is the native coin.
type Currency struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	// Liquidity is the sum of active bid amounts in this currency.
	Liquidity *big.Int `json:"liquidity"`
}

func (r *Currency) Kind() Kind  { return KindCurrency }
func (r *Currency) Key() string { return r.ID }

// HasDecimals reports whether the decimals read succeeded.
func (r *Currency) HasDecimals() bool {
	return r.Decimals != DecimalsUnknown
}

// Land is one registry token with its owner, shares and URIs.
type Land struct {
	ID              string `json:"id"`
	TransactionHash string `json:"transactionHash"`
	Owner           string `json:"owner"`
	Creator         string `json:"creator"`
	PrevOwner       string `json:"prevOwner"`
	// Approved is empty when no spender is approved.
	Approved          string   `json:"approved,omitempty"`
	ContentURI        string   `json:"contentURI"`
	ContentHash       string   `json:"contentHash"`
	MetadataURI       string   `json:"metadataURI"`
	MetadataHash      string   `json:"metadataHash"`
	XCoordinate       *big.Int `json:"xCoordinate"`
	YCoordinate       *big.Int `json:"yCoordinate"`
	CreatorBidShare   *big.Int `json:"creatorBidShare"`
	OwnerBidShare     *big.Int `json:"ownerBidShare"`
	PrevOwnerBidShare *big.Int `json:"prevOwnerBidShare"`

	CreatedAtTimestamp   uint64  `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64  `json:"createdAtBlockNumber"`
	BurnedAtTimestamp    *uint64 `json:"burnedAtTimeStamp,omitempty"`
	BurnedAtBlockNumber  *uint64 `json:"burnedAtBlockNumber,omitempty"`
}

func (r *Land) Kind() Kind  { return KindLand }
func (r *Land) Key() string { return r.ID }

// Burned reports whether the token was transferred to the zero address.
func (r *Land) Burned() bool {
	return r.BurnedAtBlockNumber != nil
}

// Ask is the live ask on a land, keyed by land and owner.
type Ask struct {
	ID                   string   `json:"id"`
	TransactionHash      string   `json:"transactionHash"`
	Land                 string   `json:"land"`
	Owner                string   `json:"owner"`
	Amount               *big.Int `json:"amount"`
	Currency             string   `json:"currency"`
	CreatedAtTimestamp   uint64   `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64   `json:"createdAtBlockNumber"`
}

func (r *Ask) Kind() Kind  { return KindAsk }
func (r *Ask) Key() string { return r.ID }

// InactiveAsk archives an ask that was replaced or removed.
type InactiveAsk struct {
	ID                       string         `json:"id"`
	TransactionHash          string         `json:"transactionHash"`
	Land                     string         `json:"land"`
	Type                     InactiveReason `json:"type"`
	Amount                   *big.Int       `json:"amount"`
	Currency                 string         `json:"currency"`
	Owner                    string         `json:"owner"`
	CreatedAtTimestamp       uint64         `json:"createdAtTimestamp"`
	CreatedAtBlockNumber     uint64         `json:"createdAtBlockNumber"`
	InactivatedAtTimestamp   uint64         `json:"inactivatedAtTimestamp"`
	InactivatedAtBlockNumber uint64         `json:"inactivatedAtBlockNumber"`
}

func (r *InactiveAsk) Kind() Kind  { return KindInactiveAsk }
func (r *InactiveAsk) Key() string { return r.ID }

// Bid is a live bid, keyed by land and bidder.
type Bid struct {
	ID                   string   `json:"id"`
	TransactionHash      string   `json:"transactionHash"`
	Land                 string   `json:"land"`
	Amount               *big.Int `json:"amount"`
	Currency             string   `json:"currency"`
	SellOnShare          *big.Int `json:"sellOnShare"`
	Bidder               string   `json:"bidder"`
	Recipient            string   `json:"recipient"`
	CreatedAtTimestamp   uint64   `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64   `json:"createdAtBlockNumber"`
}

func (r *Bid) Kind() Kind  { return KindBid }
func (r *Bid) Key() string { return r.ID }

// InactiveBid archives a removed or finalized bid.
type InactiveBid struct {
	ID                       string         `json:"id"`
	TransactionHash          string         `json:"transactionHash"`
	Type                     InactiveReason `json:"type"`
	Land                     string         `json:"land"`
	Amount                   *big.Int       `json:"amount"`
	Currency                 string         `json:"currency"`
	SellOnShare              *big.Int       `json:"sellOnShare"`
	Bidder                   string         `json:"bidder"`
	Recipient                string         `json:"recipient"`
	CreatedAtTimestamp       uint64         `json:"createdAtTimestamp"`
	CreatedAtBlockNumber     uint64         `json:"createdAtBlockNumber"`
	InactivatedAtTimestamp   uint64         `json:"inactivatedAtTimestamp"`
	InactivatedAtBlockNumber uint64         `json:"inactivatedAtBlockNumber"`
}

func (r *InactiveBid) Kind() Kind  { return KindInactiveBid }
func (r *InactiveBid) Key() string { return r.ID }

// Transfer records one ownership change of a land.
type Transfer struct {
	ID                   string `json:"id"`
	TransactionHash      string `json:"transactionHash"`
	Land                 string `json:"land"`
	From                 string `json:"from"`
	To                   string `json:"to"`
	CreatedAtTimestamp   uint64 `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64 `json:"createdAtBlockNumber"`
}

func (r *Transfer) Kind() Kind  { return KindTransfer }
func (r *Transfer) Key() string { return r.ID }

// URIUpdate records a content or metadata URI change.
type URIUpdate struct {
	ID                   string  `json:"id"`
	TransactionHash      string  `json:"transactionHash"`
	Land                 string  `json:"land"`
	Type                 URIKind `json:"type"`
	From                 string  `json:"from"`
	To                   string  `json:"to"`
	Updater              string  `json:"updater"`
	Owner                string  `json:"owner"`
	CreatedAtTimestamp   uint64  `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64  `json:"createdAtBlockNumber"`
}

func (r *URIUpdate) Kind() Kind  { return KindURIUpdate }
func (r *URIUpdate) Key() string { return r.ID }

// ReserveListing is a reserve auction for one token.
type ReserveListing struct {
	ID              string   `json:"id"`
	TransactionHash string   `json:"transactionHash"`
	TokenID         *big.Int `json:"tokenId"`
	TokenContract   string   `json:"tokenContract"`
	Token           string   `json:"token"`
	// Land is set when the listed token belongs to the land contract.
	Land                      string   `json:"land,omitempty"`
	Approved                  bool     `json:"approved"`
	ApprovedTimestamp         *uint64  `json:"approvedTimestamp"`
	ApprovedBlockNumber       *uint64  `json:"approvedBlockNumber"`
	StartsAt                  uint64   `json:"startsAt"`
	Duration                  uint64   `json:"duration"`
	FirstBidTime              uint64   `json:"firstBidTime"`
	ExpectedEndTimestamp      *uint64  `json:"expectedEndTimestamp"`
	ListPrice                 *big.Int `json:"listPrice"`
	ListType                  uint8    `json:"listType"`
	IntermediaryFeePercentage uint8    `json:"intermediaryFeePercentage"`
	TokenOwner                string   `json:"tokenOwner"`
	Intermediary              string   `json:"intermediary"`
	ListCurrency              string   `json:"listCurrency"`
	// CurrentBid is the id of the latest accepted bid, empty before the first bid.
	CurrentBid             string        `json:"currentBid,omitempty"`
	Status                 ListingStatus `json:"status"`
	CreatedAtTimestamp     uint64        `json:"createdAtTimestamp"`
	CreatedAtBlockNumber   uint64        `json:"createdAtBlockNumber"`
	FinalizedAtTimestamp   *uint64       `json:"finalizedAtTimestamp"`
	FinalizedAtBlockNumber *uint64       `json:"finalizedAtBlockNumber"`
}

func (r *ReserveListing) Kind() Kind  { return KindReserveListing }
func (r *ReserveListing) Key() string { return r.ID }

// Active reports whether the listing has received its first bid and is not closed.
func (r *ReserveListing) Active() bool {
	return r.FirstBidTime != 0 && r.Status == ListingPending
}

// ReserveListingBid is the active bid on a reserve listing.
type ReserveListingBid struct {
	ID                   string         `json:"id"`
	TransactionHash      string         `json:"transactionHash"`
	ReserveListing       string         `json:"reserveListing"`
	Amount               *big.Int       `json:"amount"`
	Bidder               string         `json:"bidder"`
	BidType              ReserveBidType `json:"bidType"`
	CreatedAtTimestamp   uint64         `json:"createdAtTimestamp"`
	CreatedAtBlockNumber uint64         `json:"createdAtBlockNumber"`
}

func (r *ReserveListingBid) Kind() Kind  { return KindReserveListingBid }
func (r *ReserveListingBid) Key() string { return r.ID }

// InactiveReserveListingBid archives a refunded or final bid.
type InactiveReserveListingBid struct {
	ID                          string         `json:"id"`
	TransactionHash             string         `json:"transactionHash"`
	ReserveListing              string         `json:"reserveListing"`
	Amount                      *big.Int       `json:"amount"`
	Bidder                      string         `json:"bidder"`
	BidType                     ReserveBidType `json:"bidType"`
	CreatedAtTimestamp          uint64         `json:"createdAtTimestamp"`
	CreatedAtBlockNumber        uint64         `json:"createdAtBlockNumber"`
	BidInactivatedAtTimestamp   uint64         `json:"bidInactivatedAtTimestamp"`
	BidInactivatedAtBlockNumber uint64         `json:"bidInactivatedAtBlockNumber"`
}

func (r *InactiveReserveListingBid) Kind() Kind  { return KindInactiveReserveListingBid }
func (r *InactiveReserveListingBid) Key() string { return r.ID }
