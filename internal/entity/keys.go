package entity

import (
	"math/big"
	"strconv"
	"strings"
)

const keySep = "-"

// JoinKey joins key parts with the record key separator.
func JoinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}

// LandID is the base-10 token id.
func LandID(tokenID *big.Int) string {
	if tokenID == nil {
		return "0"
	}
	return tokenID.String()
}

// AskID keys the active ask of an owner on a land.
func AskID(landID, owner string) string {
	return JoinKey(landID, owner)
}

// BidID keys the active bid of a bidder on a land.
func BidID(landID, bidder string) string {
	return JoinKey(landID, bidder)
}

// LogScopedID keys append-only records (Transfer, URIUpdate, InactiveAsk,
// InactiveBid) as tokenId-txHash-logIndex.
func LogScopedID(tokenID, txHash string, logIndex uint64) string {
	return JoinKey(tokenID, txHash, strconv.FormatUint(logIndex, 10))
}

// TokenRef is the tokenContract-tokenId reference stored on a listing.
func TokenRef(tokenContract string, tokenID *big.Int) string {
	return JoinKey(tokenContract, LandID(tokenID))
}

// ReserveListingID keys a listing as tokenContract-tokenId-listingId.
func ReserveListingID(tokenContract string, tokenID, listingID *big.Int) string {
	return JoinKey(tokenContract, LandID(tokenID), LandID(listingID))
}

// ReserveListingBidID keys a listing bid as listingKey-txHash-logIndex.
func ReserveListingBidID(listingID, txHash string, logIndex uint64) string {
	return JoinKey(listingID, txHash, strconv.FormatUint(logIndex, 10))
}
