package event

import "math/big"

// Transfer is the ERC-721 Transfer log. From is the zero address on mint,
// To is the zero address on burn.
type Transfer struct {
	LogMeta
	From    string
	To      string
	TokenID *big.Int
}

func (e *Transfer) EventType() EventType {
	return EventTypeTransfer
}

// Approval sets or clears (zero address) the single approved spender of a token.
type Approval struct {
	LogMeta
	Owner    string
	Approved string
	TokenID  *big.Int
}

func (e *Approval) EventType() EventType {
	return EventTypeApproval
}

type ApprovalForAll struct {
	LogMeta
	Owner    string
	Operator string
	Approved bool
}

func (e *ApprovalForAll) EventType() EventType {
	return EventTypeApprovalForAll
}

// TokenURIUpdated changes the content URI of a token. Owner is the updater.
type TokenURIUpdated struct {
	LogMeta
	TokenID *big.Int
	Owner   string
	URI     string
}

func (e *TokenURIUpdated) EventType() EventType {
	return EventTypeTokenURIUpdated
}

type TokenMetadataURIUpdated struct {
	LogMeta
	TokenID *big.Int
	Owner   string
	URI     string
}

func (e *TokenMetadataURIUpdated) EventType() EventType {
	return EventTypeTokenMetadataURIUpdated
}
