package event

import "math/big"

// BidShares are the sale-proceeds fractions of a token, in 18-decimal
// percentage units.
type BidShares struct {
	PrevOwner *big.Int
	Creator   *big.Int
	Owner     *big.Int
}

// Ask is the on-chain ask tuple.
type Ask struct {
	Amount   *big.Int
	Currency string
}

// Bid is the on-chain bid tuple.
type Bid struct {
	Amount      *big.Int
	Currency    string
	Bidder      string
	Recipient   string
	SellOnShare *big.Int
}

type BidShareUpdated struct {
	LogMeta
	TokenID   *big.Int
	BidShares BidShares
}

func (e *BidShareUpdated) EventType() EventType {
	return EventTypeBidShareUpdated
}

type AskCreated struct {
	LogMeta
	TokenID *big.Int
	Ask     Ask
}

func (e *AskCreated) EventType() EventType {
	return EventTypeAskCreated
}

// AskRemoved with a zero amount carries nothing to remove.
type AskRemoved struct {
	LogMeta
	TokenID *big.Int
	Ask     Ask
}

func (e *AskRemoved) EventType() EventType {
	return EventTypeAskRemoved
}

type BidCreated struct {
	LogMeta
	TokenID *big.Int
	Bid     Bid
}

func (e *BidCreated) EventType() EventType {
	return EventTypeBidCreated
}

type BidRemoved struct {
	LogMeta
	TokenID *big.Int
	Bid     Bid
}

func (e *BidRemoved) EventType() EventType {
	return EventTypeBidRemoved
}

// BidFinalized is emitted by the exchange after it moves the token, so the
// matching Transfer log precedes it in the same transaction.
type BidFinalized struct {
	LogMeta
	TokenID *big.Int
	Bid     Bid
}

func (e *BidFinalized) EventType() EventType {
	return EventTypeBidFinalized
}
