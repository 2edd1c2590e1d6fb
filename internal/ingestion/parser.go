package ingestion

import (
	"LandLedger/internal/event"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseRawEvent converts a RawEvent into a typed event.Event. The event
// type is the last token of the subject.
func ParseRawEvent(raw RawEvent) (event.Event, error) {
	return ParseEvent(EventTypeName(raw.Subject), raw.Data)
}

// ParseEvent decodes the JSON payload of the named event type.
func ParseEvent(name string, data []byte) (event.Event, error) {
	et, ok := event.ParseEventType(name)
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", name)
	}

	var (
		evt event.Event
		err error
	)
	switch et {
	case event.EventTypeTransfer:
		evt, err = parseTransfer(data)
	case event.EventTypeApproval:
		evt, err = parseApproval(data)
	case event.EventTypeApprovalForAll:
		evt, err = parseApprovalForAll(data)
	case event.EventTypeTokenURIUpdated:
		evt, err = parseURIUpdate(data, false)
	case event.EventTypeTokenMetadataURIUpdated:
		evt, err = parseURIUpdate(data, true)
	case event.EventTypeBidShareUpdated:
		evt, err = parseBidShareUpdated(data)
	case event.EventTypeAskCreated, event.EventTypeAskRemoved:
		evt, err = parseAskEvent(et, data)
	case event.EventTypeBidCreated, event.EventTypeBidRemoved, event.EventTypeBidFinalized:
		evt, err = parseBidEvent(et, data)
	case event.EventTypeReserveListingCreated:
		evt, err = parseListingCreated(data)
	case event.EventTypeReserveListingApprovalUpdated,
		event.EventTypeReserveListingPriceUpdated,
		event.EventTypeReserveListingBid,
		event.EventTypeReserveListingDurationExtended,
		event.EventTypeReserveListingFinalized,
		event.EventTypeReserveListingCanceled:
		evt, err = parseListingEvent(et, data)
	default:
		return nil, fmt.Errorf("unsupported event type: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return evt, nil
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers. Integers wider
// than 64 bits are base-10 strings (0x hex is accepted too).

type logJSON struct {
	BlockNumber    uint64 `json:"block_number"`
	BlockTimestamp uint64 `json:"block_timestamp"`
	TxHash         string `json:"tx_hash"`
	TxIndex        uint64 `json:"tx_index"`
	LogIndex       uint64 `json:"log_index"`
	Contract       string `json:"contract"`
}

// uint256 decodes an unsigned integer from a JSON string or number:
// base 10, or base 16 with a 0x prefix.
type uint256 struct {
	v *big.Int
}

func (u *uint256) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	base, digits := 10, s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base, digits = 16, s[2:]
	}
	if digits == "" || strings.ContainsAny(digits, "+_") {
		return fmt.Errorf("invalid integer %s", b)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return fmt.Errorf("invalid integer %s", b)
	}
	if n.Sign() < 0 || n.BitLen() > 256 {
		return fmt.Errorf("integer %s out of uint256 range", b)
	}
	u.v = n
	return nil
}

// fields validates and normalizes wire values, keeping the first error.
type fields struct {
	err error
}

func (f *fields) fail(format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf(format, args...)
	}
}

func (f *fields) address(name, s string) string {
	if !common.IsHexAddress(s) {
		f.fail("%s: invalid address %q", name, s)
		return ""
	}
	return strings.ToLower(common.HexToAddress(s).Hex())
}

func (f *fields) hash(name, s string) string {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		f.fail("%s: invalid hash %q", name, s)
		return ""
	}
	return common.BytesToHash(b).Hex()
}

func (f *fields) uint(name string, u uint256) *big.Int {
	if u.v == nil {
		f.fail("%s: missing", name)
		return nil
	}
	return u.v
}

func (f *fields) log(j logJSON) event.LogMeta {
	return event.LogMeta{
		BlockNumber:    j.BlockNumber,
		BlockTimestamp: j.BlockTimestamp,
		TxHash:         f.hash("tx_hash", j.TxHash),
		TxIndex:        j.TxIndex,
		LogIndex:       j.LogIndex,
		Contract:       f.address("contract", j.Contract),
	}
}

// --- Registry ---

type transferJSON struct {
	logJSON
	From    string  `json:"from"`
	To      string  `json:"to"`
	TokenID uint256 `json:"token_id"`
}

func parseTransfer(data []byte) (*event.Transfer, error) {
	var j transferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	evt := &event.Transfer{
		LogMeta: f.log(j.logJSON),
		From:    f.address("from", j.From),
		To:      f.address("to", j.To),
		TokenID: f.uint("token_id", j.TokenID),
	}
	return evt, f.err
}

type approvalJSON struct {
	logJSON
	Owner    string  `json:"owner"`
	Approved string  `json:"approved"`
	TokenID  uint256 `json:"token_id"`
}

func parseApproval(data []byte) (*event.Approval, error) {
	var j approvalJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	evt := &event.Approval{
		LogMeta:  f.log(j.logJSON),
		Owner:    f.address("owner", j.Owner),
		Approved: f.address("approved", j.Approved),
		TokenID:  f.uint("token_id", j.TokenID),
	}
	return evt, f.err
}

type approvalForAllJSON struct {
	logJSON
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func parseApprovalForAll(data []byte) (*event.ApprovalForAll, error) {
	var j approvalForAllJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	evt := &event.ApprovalForAll{
		LogMeta:  f.log(j.logJSON),
		Owner:    f.address("owner", j.Owner),
		Operator: f.address("operator", j.Operator),
		Approved: j.Approved,
	}
	return evt, f.err
}

type uriUpdateJSON struct {
	logJSON
	TokenID uint256 `json:"token_id"`
	Owner   string  `json:"owner"`
	URI     string  `json:"uri"`
}

func parseURIUpdate(data []byte, metadata bool) (event.Event, error) {
	var j uriUpdateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	meta := f.log(j.logJSON)
	tokenID := f.uint("token_id", j.TokenID)
	owner := f.address("owner", j.Owner)
	if f.err != nil {
		return nil, f.err
	}
	if metadata {
		return &event.TokenMetadataURIUpdated{LogMeta: meta, TokenID: tokenID, Owner: owner, URI: j.URI}, nil
	}
	return &event.TokenURIUpdated{LogMeta: meta, TokenID: tokenID, Owner: owner, URI: j.URI}, nil
}

// --- Exchange ---

type bidSharesJSON struct {
	PrevOwner uint256 `json:"prev_owner"`
	Creator   uint256 `json:"creator"`
	Owner     uint256 `json:"owner"`
}

type bidShareUpdatedJSON struct {
	logJSON
	TokenID   uint256       `json:"token_id"`
	BidShares bidSharesJSON `json:"bid_shares"`
}

func parseBidShareUpdated(data []byte) (*event.BidShareUpdated, error) {
	var j bidShareUpdatedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	evt := &event.BidShareUpdated{
		LogMeta: f.log(j.logJSON),
		TokenID: f.uint("token_id", j.TokenID),
		BidShares: event.BidShares{
			PrevOwner: f.uint("bid_shares.prev_owner", j.BidShares.PrevOwner),
			Creator:   f.uint("bid_shares.creator", j.BidShares.Creator),
			Owner:     f.uint("bid_shares.owner", j.BidShares.Owner),
		},
	}
	return evt, f.err
}

type askJSON struct {
	Amount   uint256 `json:"amount"`
	Currency string  `json:"currency"`
}

type askEventJSON struct {
	logJSON
	TokenID uint256 `json:"token_id"`
	Ask     askJSON `json:"ask"`
}

func parseAskEvent(et event.EventType, data []byte) (event.Event, error) {
	var j askEventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	meta := f.log(j.logJSON)
	tokenID := f.uint("token_id", j.TokenID)
	ask := event.Ask{
		Amount:   f.uint("ask.amount", j.Ask.Amount),
		Currency: f.address("ask.currency", j.Ask.Currency),
	}
	if f.err != nil {
		return nil, f.err
	}
	if et == event.EventTypeAskRemoved {
		return &event.AskRemoved{LogMeta: meta, TokenID: tokenID, Ask: ask}, nil
	}
	return &event.AskCreated{LogMeta: meta, TokenID: tokenID, Ask: ask}, nil
}

type bidJSON struct {
	Amount      uint256 `json:"amount"`
	Currency    string  `json:"currency"`
	Bidder      string  `json:"bidder"`
	Recipient   string  `json:"recipient"`
	SellOnShare uint256 `json:"sell_on_share"`
}

type bidEventJSON struct {
	logJSON
	TokenID uint256 `json:"token_id"`
	Bid     bidJSON `json:"bid"`
}

func parseBidEvent(et event.EventType, data []byte) (event.Event, error) {
	var j bidEventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	meta := f.log(j.logJSON)
	tokenID := f.uint("token_id", j.TokenID)
	bid := event.Bid{
		Amount:      f.uint("bid.amount", j.Bid.Amount),
		Currency:    f.address("bid.currency", j.Bid.Currency),
		Bidder:      f.address("bid.bidder", j.Bid.Bidder),
		Recipient:   f.address("bid.recipient", j.Bid.Recipient),
		SellOnShare: f.uint("bid.sell_on_share", j.Bid.SellOnShare),
	}
	if f.err != nil {
		return nil, f.err
	}
	switch et {
	case event.EventTypeBidRemoved:
		return &event.BidRemoved{LogMeta: meta, TokenID: tokenID, Bid: bid}, nil
	case event.EventTypeBidFinalized:
		return &event.BidFinalized{LogMeta: meta, TokenID: tokenID, Bid: bid}, nil
	default:
		return &event.BidCreated{LogMeta: meta, TokenID: tokenID, Bid: bid}, nil
	}
}

// --- Reserve listings ---

type listingRefJSON struct {
	ListingID     uint256 `json:"listing_id"`
	TokenID       uint256 `json:"token_id"`
	TokenContract string  `json:"token_contract"`
}

func (f *fields) listingRef(j listingRefJSON) event.ListingRef {
	return event.ListingRef{
		ListingID:     f.uint("listing_id", j.ListingID),
		TokenID:       f.uint("token_id", j.TokenID),
		TokenContract: f.address("token_contract", j.TokenContract),
	}
}

type listingCreatedJSON struct {
	logJSON
	listingRefJSON
	StartsAt                  uint64  `json:"starts_at"`
	Duration                  uint64  `json:"duration"`
	ListPrice                 uint256 `json:"list_price"`
	ListType                  uint8   `json:"list_type"`
	IntermediaryFeePercentage uint8   `json:"intermediary_fee_percentage"`
	TokenOwner                string  `json:"token_owner"`
	Intermediary              string  `json:"intermediary"`
	ListCurrency              string  `json:"list_currency"`
}

func parseListingCreated(data []byte) (*event.ReserveListingCreated, error) {
	var j listingCreatedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	evt := &event.ReserveListingCreated{
		LogMeta:                   f.log(j.logJSON),
		ListingRef:                f.listingRef(j.listingRefJSON),
		StartsAt:                  j.StartsAt,
		Duration:                  j.Duration,
		ListPrice:                 f.uint("list_price", j.ListPrice),
		ListType:                  j.ListType,
		IntermediaryFeePercentage: j.IntermediaryFeePercentage,
		TokenOwner:                f.address("token_owner", j.TokenOwner),
		Intermediary:              f.address("intermediary", j.Intermediary),
		ListCurrency:              f.address("list_currency", j.ListCurrency),
	}
	return evt, f.err
}

// listingEventJSON is the union of the remaining listing payloads.
type listingEventJSON struct {
	logJSON
	listingRefJSON
	Approved        bool    `json:"approved"`
	ListPrice       uint256 `json:"list_price"`
	Sender          string  `json:"sender"`
	Value           uint256 `json:"value"`
	FirstBid        bool    `json:"first_bid"`
	Duration        uint64  `json:"duration"`
	TokenOwner      string  `json:"token_owner"`
	Intermediary    string  `json:"intermediary"`
	Winner          string  `json:"winner"`
	Amount          uint256 `json:"amount"`
	IntermediaryFee uint256 `json:"intermediary_fee"`
}

func parseListingEvent(et event.EventType, data []byte) (event.Event, error) {
	var j listingEventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	var f fields
	meta := f.log(j.logJSON)
	ref := f.listingRef(j.listingRefJSON)

	var evt event.Event
	switch et {
	case event.EventTypeReserveListingApprovalUpdated:
		evt = &event.ReserveListingApprovalUpdated{LogMeta: meta, ListingRef: ref, Approved: j.Approved}
	case event.EventTypeReserveListingPriceUpdated:
		evt = &event.ReserveListingPriceUpdated{LogMeta: meta, ListingRef: ref, ListPrice: f.uint("list_price", j.ListPrice)}
	case event.EventTypeReserveListingBid:
		evt = &event.ReserveListingBid{
			LogMeta:    meta,
			ListingRef: ref,
			Sender:     f.address("sender", j.Sender),
			Value:      f.uint("value", j.Value),
			FirstBid:   j.FirstBid,
		}
	case event.EventTypeReserveListingDurationExtended:
		evt = &event.ReserveListingDurationExtended{LogMeta: meta, ListingRef: ref, Duration: j.Duration}
	case event.EventTypeReserveListingFinalized:
		evt = &event.ReserveListingFinalized{
			LogMeta:         meta,
			ListingRef:      ref,
			TokenOwner:      f.address("token_owner", j.TokenOwner),
			Intermediary:    f.address("intermediary", j.Intermediary),
			Winner:          f.address("winner", j.Winner),
			Amount:          f.uint("amount", j.Amount),
			IntermediaryFee: f.uint("intermediary_fee", j.IntermediaryFee),
		}
	case event.EventTypeReserveListingCanceled:
		evt = &event.ReserveListingCanceled{
			LogMeta:    meta,
			ListingRef: ref,
			TokenOwner: f.address("token_owner", j.TokenOwner),
		}
	default:
		return nil, fmt.Errorf("not a listing event: %s", et)
	}
	if f.err != nil {
		return nil, f.err
	}
	return evt, nil
}
