package registry_test

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/registry"
	"LandLedger/internal/store"
	"LandLedger/internal/testutil"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x000000000000000000000000000000000000a11c"
	bob   = "0x0000000000000000000000000000000000000b0b"
	carol = "0x00000000000000000000000000000000000ca201"
)

func newFixture() (*testutil.FakeReader, *store.MemoryStore, *registry.Reducer, func(eventType, kind string) float64) {
	reader := testutil.NewFakeReader()
	deps := testutil.NewDeps(reader)
	missing := func(eventType, kind string) float64 {
		return promtest.ToFloat64(deps.Metrics.MissingRecords.WithLabelValues(eventType, kind))
	}
	return reader, store.NewMemoryStore(), registry.New(deps), missing
}

func transfer(block uint64, txHash string, logIndex uint64, from, to string, tokenID int64) *event.Transfer {
	return &event.Transfer{
		LogMeta: testutil.Meta(block, block*10, txHash, logIndex),
		From:    from,
		To:      to,
		TokenID: big.NewInt(tokenID),
	}
}

func mint(t *testing.T, mem *store.MemoryStore, r *registry.Reducer, to string, tokenID int64) {
	t.Helper()
	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Transfer(ctx, tx, transfer(1, "0xmint", 0, entity.ZeroAddress, to, tokenID))
	})
}

func TestMintReadsTokenState(t *testing.T) {
	reader, mem, r, _ := newFixture()
	contentHash := [32]byte{31: 0xab}
	reader.Tokens["5"] = testutil.FakeToken{
		ContentURI:  "ipfs://content",
		MetadataURI: "ipfs://meta",
		ContentHash: contentHash,
		X:           big.NewInt(-4),
		Y:           big.NewInt(9),
	}
	reader.Exchange = "0x2222222222222222222222222222222222222222"
	reader.BidShares["5"] = chain.BidShares{
		PrevOwner: big.NewInt(10),
		Creator:   big.NewInt(5),
		Owner:     big.NewInt(85),
	}

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Transfer(ctx, tx, transfer(7, "0xt1", 3, entity.ZeroAddress, alice, 5))
	})

	land := testutil.MustGet[entity.Land](t, mem, "5")
	require.Equal(t, alice, land.Owner)
	require.Equal(t, alice, land.Creator)
	require.Equal(t, alice, land.PrevOwner)
	require.Equal(t, "0xt1", land.TransactionHash)
	require.Equal(t, "ipfs://content", land.ContentURI)
	require.Equal(t, "ipfs://meta", land.MetadataURI)
	require.Equal(t, common.Hash(contentHash).Hex(), land.ContentHash)
	require.Equal(t, int64(-4), land.XCoordinate.Int64())
	require.Equal(t, int64(9), land.YCoordinate.Int64())
	require.Equal(t, int64(5), land.CreatorBidShare.Int64())
	require.Equal(t, int64(85), land.OwnerBidShare.Int64())
	require.Equal(t, int64(10), land.PrevOwnerBidShare.Int64())
	require.Equal(t, uint64(70), land.CreatedAtTimestamp)
	require.Equal(t, uint64(7), land.CreatedAtBlockNumber)
	require.False(t, land.Burned())

	tr := testutil.MustGet[entity.Transfer](t, mem, "5-0xt1-3")
	require.Equal(t, entity.ZeroAddress, tr.From)
	require.Equal(t, alice, tr.To)

	testutil.MustGet[entity.User](t, mem, entity.ZeroAddress)
	testutil.MustGet[entity.User](t, mem, alice)
}

func TestMintWithRevertedReads(t *testing.T) {
	reader, mem, r, _ := newFixture()

	mint(t, mem, r, alice, 9)

	land := testutil.MustGet[entity.Land](t, mem, "9")
	require.Empty(t, land.ContentURI)
	require.Empty(t, land.ContentHash)
	require.Nil(t, land.XCoordinate)
	require.Equal(t, 0, land.CreatorBidShare.Sign())
	require.Equal(t, 0, land.OwnerBidShare.Sign())
	require.Equal(t, 0, land.PrevOwnerBidShare.Sign())
	require.Equal(t, 0, reader.Calls("bidSharesForToken"), "exchange lookup reverted")
}

func TestTransferThenBurn(t *testing.T) {
	_, mem, r, _ := newFixture()
	mint(t, mem, r, alice, 5)

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Approval(ctx, tx, &event.Approval{
			LogMeta:  testutil.Meta(2, 20, "0xa1", 0),
			Owner:    alice,
			Approved: carol,
			TokenID:  big.NewInt(5),
		})
	})
	require.Equal(t, carol, testutil.MustGet[entity.Land](t, mem, "5").Approved)

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Transfer(ctx, tx, transfer(3, "0xt2", 1, alice, bob, 5))
	})
	land := testutil.MustGet[entity.Land](t, mem, "5")
	require.Equal(t, bob, land.Owner)
	require.Equal(t, alice, land.Creator)
	require.Empty(t, land.Approved, "transfer clears approval")
	testutil.MustGet[entity.Transfer](t, mem, "5-0xt2-1")

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Transfer(ctx, tx, transfer(4, "0xt3", 0, bob, entity.ZeroAddress, 5))
	})
	land = testutil.MustGet[entity.Land](t, mem, "5")
	require.True(t, land.Burned())
	require.Equal(t, entity.ZeroAddress, land.Owner)
	require.Equal(t, entity.ZeroAddress, land.PrevOwner)
	require.Equal(t, uint64(40), *land.BurnedAtTimestamp)
	require.Equal(t, uint64(4), *land.BurnedAtBlockNumber)
}

func TestTransferOfUnknownLandCreatesPlaceholder(t *testing.T) {
	_, mem, r, missing := newFixture()

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Transfer(ctx, tx, transfer(3, "0xt2", 1, alice, bob, 77))
	})

	land := testutil.MustGet[entity.Land](t, mem, "77")
	require.Equal(t, bob, land.Owner)
	require.Equal(t, "0xt2", land.TransactionHash)
	require.Empty(t, land.Creator)
	require.Equal(t, float64(1), missing("Transfer", "Land"))
}

func TestApprovalToZeroClears(t *testing.T) {
	_, mem, r, _ := newFixture()
	mint(t, mem, r, alice, 5)

	for _, approved := range []string{carol, entity.ZeroAddress} {
		testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
			return r.Approval(ctx, tx, &event.Approval{
				LogMeta:  testutil.Meta(2, 20, "0xa1", 0),
				Owner:    alice,
				Approved: approved,
				TokenID:  big.NewInt(5),
			})
		})
	}
	require.Empty(t, testutil.MustGet[entity.Land](t, mem, "5").Approved)
}

func TestApprovalOfUnknownLandIsSkipped(t *testing.T) {
	_, mem, r, missing := newFixture()

	cs := testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.Approval(ctx, tx, &event.Approval{
			LogMeta:  testutil.Meta(2, 20, "0xa1", 0),
			Owner:    alice,
			Approved: carol,
			TokenID:  big.NewInt(404),
		})
	})
	require.True(t, cs.Empty())
	require.Equal(t, float64(1), missing("Approval", "Land"))
}

func TestApprovalForAllKeepsDuplicatesAndRevokesFirst(t *testing.T) {
	_, mem, r, _ := newFixture()
	apply := func(operator string, approved bool) {
		testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
			return r.ApprovalForAll(ctx, tx, &event.ApprovalForAll{
				LogMeta:  testutil.Meta(2, 20, "0xa1", 0),
				Owner:    alice,
				Operator: operator,
				Approved: approved,
			})
		})
	}

	apply(bob, true)
	apply(carol, true)
	apply(bob, true)
	require.Equal(t, []string{bob, carol, bob}, testutil.MustGet[entity.User](t, mem, alice).AuthorizedUsers)

	apply(bob, false)
	require.Equal(t, []string{carol, bob}, testutil.MustGet[entity.User](t, mem, alice).AuthorizedUsers)

	apply(entity.ZeroAddress, false)
	require.Equal(t, []string{carol, bob}, testutil.MustGet[entity.User](t, mem, alice).AuthorizedUsers)
	testutil.MustGet[entity.User](t, mem, bob)
}

func TestRevokeWithoutAuthorizationsIsNoop(t *testing.T) {
	_, mem, r, _ := newFixture()

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.ApprovalForAll(ctx, tx, &event.ApprovalForAll{
			LogMeta:  testutil.Meta(2, 20, "0xa1", 0),
			Owner:    alice,
			Operator: bob,
		})
	})
	require.Empty(t, testutil.MustGet[entity.User](t, mem, alice).AuthorizedUsers)
}

func TestURIUpdatesAreRecorded(t *testing.T) {
	reader, mem, r, _ := newFixture()
	reader.Tokens["5"] = testutil.FakeToken{ContentURI: "ipfs://a", MetadataURI: "ipfs://m"}
	mint(t, mem, r, alice, 5)

	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.TokenURIUpdated(ctx, tx, &event.TokenURIUpdated{
			LogMeta: testutil.Meta(5, 50, "0xu1", 2),
			TokenID: big.NewInt(5),
			Owner:   bob,
			URI:     "ipfs://b",
		})
	})
	testutil.Apply(t, mem, func(ctx context.Context, tx *store.Tx) error {
		return r.TokenMetadataURIUpdated(ctx, tx, &event.TokenMetadataURIUpdated{
			LogMeta: testutil.Meta(6, 60, "0xu2", 0),
			TokenID: big.NewInt(5),
			Owner:   alice,
			URI:     "ipfs://m2",
		})
	})

	land := testutil.MustGet[entity.Land](t, mem, "5")
	require.Equal(t, "ipfs://b", land.ContentURI)
	require.Equal(t, "ipfs://m2", land.MetadataURI)

	content := testutil.MustGet[entity.URIUpdate](t, mem, "5-0xu1-2")
	require.Equal(t, entity.URIContent, content.Type)
	require.Equal(t, "ipfs://a", content.From)
	require.Equal(t, "ipfs://b", content.To)
	require.Equal(t, bob, content.Updater)
	require.Equal(t, alice, content.Owner)
	testutil.MustGet[entity.User](t, mem, bob)

	meta := testutil.MustGet[entity.URIUpdate](t, mem, "5-0xu2-0")
	require.Equal(t, entity.URIMetadata, meta.Type)
	require.Equal(t, "ipfs://m", meta.From)
}

func TestTransportErrorAbortsMint(t *testing.T) {
	reader, mem, r, _ := newFixture()
	reader.Err = errors.New("connection refused")

	tx := store.NewTx(mem)
	err := r.Transfer(context.Background(), tx, transfer(1, "0xmint", 0, entity.ZeroAddress, alice, 5))
	require.ErrorIs(t, err, reader.Err)
	require.Equal(t, 0, mem.Commits())
	testutil.Absent(t, mem, entity.KindLand, "5")
}
