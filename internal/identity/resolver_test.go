package identity_test

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/entity"
	"LandLedger/internal/identity"
	"LandLedger/internal/store"
	"LandLedger/internal/testutil"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

const weth = "0x00000000000000000000000000000000000000e1"

func newResolver(reader chain.ContractReader) *identity.Resolver {
	return identity.NewResolver(identity.DefaultConfig(), reader, zerolog.Nop())
}

func TestFindOrCreateUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tx := store.NewTx(store.NewMemoryStore())
	r := newResolver(testutil.NewFakeReader())

	a, err := r.FindOrCreateUser(ctx, tx, "0xa")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := r.FindOrCreateUser(ctx, tx, "0xa")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("ids differ: %q vs %q", a.ID, b.ID)
	}
	if n := tx.Changeset().Len(); n != 1 {
		t.Errorf("changes: got %d, want 1", n)
	}
}

func TestNativeCurrencySkipsReads(t *testing.T) {
	reader := testutil.NewFakeReader()
	r := newResolver(reader)

	c, err := r.FindOrCreateCurrency(context.Background(), store.NewTx(store.NewMemoryStore()), entity.ZeroAddress, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Name != "Ethereum" || c.Symbol != "ETH" || c.Decimals != 18 {
		t.Errorf("native currency: got %+v", c)
	}
	if c.Liquidity.Sign() != 0 {
		t.Errorf("liquidity: got %s, want 0", c.Liquidity)
	}
	if reader.TotalCalls() != 0 {
		t.Errorf("contract reads: got %d, want 0", reader.TotalCalls())
	}
}

func TestCurrencyFetchedOnce(t *testing.T) {
	ctx := context.Background()
	reader := testutil.NewFakeReader()
	reader.ERC20[weth] = testutil.NewFakeERC20("Wrapped Ether", "WETH", 18)
	r := newResolver(reader)

	mem := store.NewMemoryStore()
	tx := store.NewTx(mem)
	if _, err := r.FindOrCreateCurrency(ctx, tx, weth, 1); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := mem.Commit(ctx, tx.Changeset()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	c, err := r.FindOrCreateCurrency(ctx, store.NewTx(mem), weth, 2)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if c.Name != "Wrapped Ether" || c.Symbol != "WETH" || c.Decimals != 18 {
		t.Errorf("currency: got %+v", c)
	}
	if n := reader.Calls("name"); n != 1 {
		t.Errorf("name reads: got %d, want 1", n)
	}
}

func TestBytes32FallbackAndUnknownDecimals(t *testing.T) {
	reader := testutil.NewFakeReader()
	reader.ERC20[weth] = testutil.NewBytes32ERC20("Maker", "MKR")
	r := newResolver(reader)

	c, err := r.FindOrCreateCurrency(context.Background(), store.NewTx(store.NewMemoryStore()), weth, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Name != "Maker" || c.Symbol != "MKR" {
		t.Errorf("labels: got %q/%q, want Maker/MKR", c.Name, c.Symbol)
	}
	if c.Decimals != entity.DecimalsUnknown || c.HasDecimals() {
		t.Errorf("decimals: got %d, want unknown", c.Decimals)
	}
}

func TestNullSentinelAndRevertsFallBackToUnknown(t *testing.T) {
	reader := testutil.NewFakeReader()
	reader.ERC20[weth] = testutil.FakeERC20{
		Name:          chain.Revert[string](),
		NameBytes32:   chain.Ok(identity.NullBytes32),
		Symbol:        chain.Revert[string](),
		SymbolBytes32: chain.Revert[[32]byte](),
		Decimals:      chain.Ok(uint8(6)),
	}
	r := newResolver(reader)

	c, err := r.FindOrCreateCurrency(context.Background(), store.NewTx(store.NewMemoryStore()), weth, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Name != "unknown" || c.Symbol != "unknown" {
		t.Errorf("labels: got %q/%q, want unknown/unknown", c.Name, c.Symbol)
	}
	if c.Decimals != 6 {
		t.Errorf("decimals: got %d, want 6", c.Decimals)
	}
}

func TestTransportErrorAbortsCurrencyCreation(t *testing.T) {
	reader := testutil.NewFakeReader()
	reader.Err = errors.New("connection refused")
	tx := store.NewTx(store.NewMemoryStore())

	if _, err := newResolver(reader).FindOrCreateCurrency(context.Background(), tx, weth, 1); err == nil {
		t.Fatal("expected transport error")
	}
	if !tx.Changeset().Empty() {
		t.Error("nothing may be staged on transport failure")
	}
}

func TestBytes32String(t *testing.T) {
	var b [32]byte
	copy(b[:], "DAI")
	if got := identity.Bytes32String(b); got != "DAI" {
		t.Errorf("got %q, want DAI", got)
	}
}
