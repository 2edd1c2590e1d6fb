package testutil

import (
	"LandLedger/internal/chain"
	"context"
	"math/big"
	"sync"
)

// FakeToken is the on-chain state of one land token.
type FakeToken struct {
	ContentURI   string
	MetadataURI  string
	ContentHash  [32]byte
	MetadataHash [32]byte
	X, Y         *big.Int
}

// FakeERC20 holds the ERC-20 accessor results of one currency.
type FakeERC20 struct {
	Name          chain.Result[string]
	NameBytes32   chain.Result[[32]byte]
	Symbol        chain.Result[string]
	SymbolBytes32 chain.Result[[32]byte]
	Decimals      chain.Result[uint8]
}

// NewFakeERC20 returns a token with string accessors.
func NewFakeERC20(name, symbol string, decimals uint8) FakeERC20 {
	return FakeERC20{
		Name:          chain.Ok(name),
		NameBytes32:   chain.Revert[[32]byte](),
		Symbol:        chain.Ok(symbol),
		SymbolBytes32: chain.Revert[[32]byte](),
		Decimals:      chain.Ok(decimals),
	}
}

// NewBytes32ERC20 returns a token whose name and symbol are bytes32 and
// whose decimals() reverts.
func NewBytes32ERC20(name, symbol string) FakeERC20 {
	var n, s [32]byte
	copy(n[:], name)
	copy(s[:], symbol)
	return FakeERC20{
		Name:          chain.Revert[string](),
		NameBytes32:   chain.Ok(n),
		Symbol:        chain.Revert[string](),
		SymbolBytes32: chain.Ok(s),
		Decimals:      chain.Revert[uint8](),
	}
}

// FakeReader is an in-memory chain.ContractReader. Unknown tokens and
// contracts revert. Err, when set, fails every call as a transport error.
type FakeReader struct {
	mu sync.Mutex

	Tokens    map[string]FakeToken // by token id
	Exchange  string               // landExchangeContract(); empty reverts
	BidShares map[string]chain.BidShares
	ERC20     map[string]FakeERC20 // by currency address
	Err       error

	calls map[string]int
}

func NewFakeReader() *FakeReader {
	return &FakeReader{
		Tokens:    make(map[string]FakeToken),
		BidShares: make(map[string]chain.BidShares),
		ERC20:     make(map[string]FakeERC20),
		calls:     make(map[string]int),
	}
}

// Calls returns how often a method was called.
func (f *FakeReader) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of reads across all methods.
func (f *FakeReader) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeReader) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.Err
}

func (f *FakeReader) token(id *big.Int) (FakeToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tokens[id.String()]
	return t, ok
}

func tokenRead[T any](f *FakeReader, method string, id *big.Int, get func(FakeToken) T) (chain.Result[T], error) {
	if err := f.record(method); err != nil {
		return chain.Result[T]{}, err
	}
	t, ok := f.token(id)
	if !ok {
		return chain.Revert[T](), nil
	}
	return chain.Ok(get(t)), nil
}

func (f *FakeReader) TokenURI(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[string], error) {
	return tokenRead(f, "tokenURI", id, func(t FakeToken) string { return t.ContentURI })
}

func (f *FakeReader) TokenMetadataURI(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[string], error) {
	return tokenRead(f, "tokenMetadataURI", id, func(t FakeToken) string { return t.MetadataURI })
}

func (f *FakeReader) TokenContentHash(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[[32]byte], error) {
	return tokenRead(f, "tokenContentHashes", id, func(t FakeToken) [32]byte { return t.ContentHash })
}

func (f *FakeReader) TokenMetadataHash(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[[32]byte], error) {
	return tokenRead(f, "tokenMetadataHashes", id, func(t FakeToken) [32]byte { return t.MetadataHash })
}

func (f *FakeReader) TokenXCoordinate(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[*big.Int], error) {
	return tokenRead(f, "tokenXCoordinates", id, func(t FakeToken) *big.Int { return t.X })
}

func (f *FakeReader) TokenYCoordinate(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[*big.Int], error) {
	return tokenRead(f, "tokenYCoordinates", id, func(t FakeToken) *big.Int { return t.Y })
}

func (f *FakeReader) LandExchangeContract(_ context.Context, _ uint64, _ string) (chain.Result[string], error) {
	if err := f.record("landExchangeContract"); err != nil {
		return chain.Result[string]{}, err
	}
	if f.Exchange == "" {
		return chain.Revert[string](), nil
	}
	return chain.Ok(f.Exchange), nil
}

func (f *FakeReader) BidSharesForToken(_ context.Context, _ uint64, _ string, id *big.Int) (chain.Result[chain.BidShares], error) {
	if err := f.record("bidSharesForToken"); err != nil {
		return chain.Result[chain.BidShares]{}, err
	}
	f.mu.Lock()
	shares, ok := f.BidShares[id.String()]
	f.mu.Unlock()
	if !ok {
		return chain.Revert[chain.BidShares](), nil
	}
	return chain.Ok(shares), nil
}

func erc20Read[T any](f *FakeReader, method, token string, get func(FakeERC20) chain.Result[T]) (chain.Result[T], error) {
	if err := f.record(method); err != nil {
		return chain.Result[T]{}, err
	}
	f.mu.Lock()
	t, ok := f.ERC20[token]
	f.mu.Unlock()
	if !ok {
		return chain.Revert[T](), nil
	}
	return get(t), nil
}

func (f *FakeReader) Name(_ context.Context, _ uint64, token string) (chain.Result[string], error) {
	return erc20Read(f, "name", token, func(t FakeERC20) chain.Result[string] { return t.Name })
}

func (f *FakeReader) NameBytes32(_ context.Context, _ uint64, token string) (chain.Result[[32]byte], error) {
	return erc20Read(f, "name_bytes32", token, func(t FakeERC20) chain.Result[[32]byte] { return t.NameBytes32 })
}

func (f *FakeReader) Symbol(_ context.Context, _ uint64, token string) (chain.Result[string], error) {
	return erc20Read(f, "symbol", token, func(t FakeERC20) chain.Result[string] { return t.Symbol })
}

func (f *FakeReader) SymbolBytes32(_ context.Context, _ uint64, token string) (chain.Result[[32]byte], error) {
	return erc20Read(f, "symbol_bytes32", token, func(t FakeERC20) chain.Result[[32]byte] { return t.SymbolBytes32 })
}

func (f *FakeReader) Decimals(_ context.Context, _ uint64, token string) (chain.Result[uint8], error) {
	return erc20Read(f, "decimals", token, func(t FakeERC20) chain.Result[uint8] { return t.Decimals })
}

var _ chain.ContractReader = (*FakeReader)(nil)
