// Package chain reads auxiliary on-chain facts at a given block. Expected
// failures (reverts, non-contracts, undecodable return data) are values,
// not errors: every read returns a Result whose Reverted flag is set.
package chain

import (
	"context"
	"math/big"
)

// Result is the outcome of a contract read that may revert.
type Result[T any] struct {
	Value    T
	Reverted bool
}

// Ok wraps a successful read.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Revert is the result of a reverted read.
func Revert[T any]() Result[T] {
	return Result[T]{Reverted: true}
}

// Or returns the value, or fallback if the read reverted.
func (r Result[T]) Or(fallback T) T {
	if r.Reverted {
		return fallback
	}
	return r.Value
}

// BidShares are the fractional sale splits configured for a token.
type BidShares struct {
	PrevOwner *big.Int
	Creator   *big.Int
	Owner     *big.Int
}

// ContractReader is the point-in-time read port. Addresses are 0x hex
// strings. block is the block the read is evaluated at. Errors are
// transport failures only.
type ContractReader interface {
	// Land (ERC-721 registry)
	TokenURI(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[string], error)
	TokenMetadataURI(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[string], error)
	TokenContentHash(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[[32]byte], error)
	TokenMetadataHash(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[[32]byte], error)
	TokenXCoordinate(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[*big.Int], error)
	TokenYCoordinate(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[*big.Int], error)
	LandExchangeContract(ctx context.Context, block uint64, land string) (Result[string], error)

	// Exchange
	BidSharesForToken(ctx context.Context, block uint64, exchange string, tokenID *big.Int) (Result[BidShares], error)

	// ERC-20, string and bytes32 calling conventions
	Name(ctx context.Context, block uint64, token string) (Result[string], error)
	NameBytes32(ctx context.Context, block uint64, token string) (Result[[32]byte], error)
	Symbol(ctx context.Context, block uint64, token string) (Result[string], error)
	SymbolBytes32(ctx context.Context, block uint64, token string) (Result[[32]byte], error)
	Decimals(ctx context.Context, block uint64, token string) (Result[uint8], error)
}
