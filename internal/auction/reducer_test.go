package auction_test

import (
	"LandLedger/internal/auction"
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"LandLedger/internal/testutil"
	"context"
	"math/big"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	alice         = "0x000000000000000000000000000000000000a11c"
	bob           = "0x0000000000000000000000000000000000000b0b"
	carol         = "0x00000000000000000000000000000000000ca201"
	curator       = "0x00000000000000000000000000000000c0a7c0a7"
	otherNFT      = "0x9999999999999999999999999999999999999999"
	listingOfFive = testutil.LandContract + "-5-1"
)

type harness struct {
	deps reducer.Deps
	mem  *store.MemoryStore
	r    *auction.Reducer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	deps := testutil.NewDeps(testutil.NewFakeReader())
	h := &harness{deps: deps, mem: store.NewMemoryStore(), r: auction.New(deps)}
	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return tx.Save(&entity.Land{ID: "5", Owner: alice, Creator: alice, PrevOwner: alice})
	})
	return h
}

func ref(contract string, tokenID int64) event.ListingRef {
	return event.ListingRef{ListingID: big.NewInt(1), TokenID: big.NewInt(tokenID), TokenContract: contract}
}

func (h *harness) create(t *testing.T, contract string, tokenID int64, duration uint64) {
	t.Helper()
	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingCreated(ctx, tx, &event.ReserveListingCreated{
			LogMeta:                   testutil.Meta(10, 500, "0xl1", 0),
			ListingRef:                ref(contract, tokenID),
			StartsAt:                  500,
			Duration:                  duration,
			ListPrice:                 big.NewInt(1000),
			IntermediaryFeePercentage: 5,
			TokenOwner:                alice,
			Intermediary:              curator,
			ListCurrency:              entity.ZeroAddress,
		})
	})
}

func (h *harness) bid(t *testing.T, bidder string, value int64, ts uint64, txHash string, first bool) {
	t.Helper()
	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingBid(ctx, tx, &event.ReserveListingBid{
			LogMeta:    testutil.Meta(ts/10, ts, txHash, 3),
			ListingRef: ref(testutil.LandContract, 5),
			Sender:     bidder,
			Value:      big.NewInt(value),
			FirstBid:   first,
		})
	})
}

func (h *harness) listing(t *testing.T) *entity.ReserveListing {
	t.Helper()
	return testutil.MustGet[entity.ReserveListing](t, h.mem, listingOfFive)
}

func TestListingCreatedLinksLand(t *testing.T) {
	h := newHarness(t)
	h.create(t, testutil.LandContract, 5, 3600)
	h.create(t, otherNFT, 5, 3600)

	l := h.listing(t)
	require.Equal(t, "5", l.Land)
	require.Equal(t, testutil.LandContract+"-5", l.Token)
	require.Equal(t, entity.ListingPending, l.Status)
	require.False(t, l.Approved)
	require.Zero(t, l.FirstBidTime)
	require.False(t, l.Active())
	require.Equal(t, entity.ZeroAddress, l.ListCurrency)
	testutil.MustGet[entity.User](t, h.mem, curator)
	testutil.MustGet[entity.Currency](t, h.mem, entity.ZeroAddress)

	other := testutil.MustGet[entity.ReserveListing](t, h.mem, otherNFT+"-5-1")
	require.Empty(t, other.Land)
}

func TestBiddingExtendsAndFinalizes(t *testing.T) {
	h := newHarness(t)
	h.create(t, testutil.LandContract, 5, 3600)

	h.bid(t, bob, 1000, 1000, "0xb1", true)
	l := h.listing(t)
	require.Equal(t, uint64(1000), l.FirstBidTime)
	require.Equal(t, uint64(4600), *l.ExpectedEndTimestamp)
	require.Equal(t, listingOfFive+"-0xb1-3", l.CurrentBid)
	require.True(t, l.Active())

	h.bid(t, carol, 1500, 1200, "0xb2", false)
	l = h.listing(t)
	require.Equal(t, uint64(1000), l.FirstBidTime, "first bid time is fixed")
	require.Equal(t, listingOfFive+"-0xb2-3", l.CurrentBid)

	refunded := testutil.MustGet[entity.InactiveReserveListingBid](t, h.mem, listingOfFive+"-0xb1-3")
	require.Equal(t, entity.ReserveBidRefunded, refunded.BidType)
	require.Equal(t, uint64(1000), refunded.CreatedAtTimestamp)
	require.Equal(t, uint64(1200), refunded.BidInactivatedAtTimestamp)
	require.Equal(t, bob, refunded.Bidder)
	testutil.Absent(t, h.mem, entity.KindReserveListingBid, listingOfFive+"-0xb1-3")
	require.Equal(t, 1, h.mem.Len(entity.KindReserveListingBid))

	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingDurationExtended(ctx, tx, &event.ReserveListingDurationExtended{
			LogMeta:    testutil.Meta(130, 1300, "0xd1", 4),
			ListingRef: ref(testutil.LandContract, 5),
			Duration:   7200,
		})
	})
	l = h.listing(t)
	require.Equal(t, uint64(7200), l.Duration)
	require.Equal(t, uint64(8200), *l.ExpectedEndTimestamp)

	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingFinalized(ctx, tx, &event.ReserveListingFinalized{
			LogMeta:      testutil.Meta(900, 9000, "0xf1", 8),
			ListingRef:   ref(testutil.LandContract, 5),
			TokenOwner:   alice,
			Intermediary: curator,
			Winner:       carol,
			Amount:       big.NewInt(1500),
		})
	})
	l = h.listing(t)
	require.Equal(t, entity.ListingFinished, l.Status)
	require.Equal(t, uint64(9000), *l.FinalizedAtTimestamp)
	require.Equal(t, uint64(900), *l.FinalizedAtBlockNumber)
	require.False(t, l.Active())

	final := testutil.MustGet[entity.InactiveReserveListingBid](t, h.mem, listingOfFive+"-0xb2-3")
	require.Equal(t, entity.ReserveBidFinal, final.BidType)
	require.Equal(t, int64(1500), final.Amount.Int64())
	require.Zero(t, h.mem.Len(entity.KindReserveListingBid))
}

func TestCancelWithoutBids(t *testing.T) {
	h := newHarness(t)
	h.create(t, testutil.LandContract, 5, 3600)

	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingCanceled(ctx, tx, &event.ReserveListingCanceled{
			LogMeta:    testutil.Meta(20, 600, "0xc1", 0),
			ListingRef: ref(testutil.LandContract, 5),
			TokenOwner: alice,
		})
	})
	l := h.listing(t)
	require.Equal(t, entity.ListingCanceled, l.Status)
	require.Equal(t, uint64(600), *l.FinalizedAtTimestamp)
	require.Equal(t, uint64(20), *l.FinalizedAtBlockNumber)
	require.Zero(t, h.mem.Len(entity.KindInactiveReserveListingBid))
}

func TestCancelRefundsActiveBid(t *testing.T) {
	h := newHarness(t)
	h.create(t, testutil.LandContract, 5, 3600)
	h.bid(t, bob, 1000, 1000, "0xb1", true)

	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingCanceled(ctx, tx, &event.ReserveListingCanceled{
			LogMeta:    testutil.Meta(150, 1500, "0xc1", 2),
			ListingRef: ref(testutil.LandContract, 5),
			TokenOwner: alice,
		})
	})

	l := h.listing(t)
	require.Equal(t, entity.ListingCanceled, l.Status)
	require.Equal(t, uint64(1500), *l.FinalizedAtTimestamp)
	require.Equal(t, uint64(150), *l.FinalizedAtBlockNumber)
	require.Equal(t, listingOfFive+"-0xb1-3", l.CurrentBid)
	require.False(t, l.Active())

	refunded := testutil.MustGet[entity.InactiveReserveListingBid](t, h.mem, listingOfFive+"-0xb1-3")
	require.Equal(t, entity.ReserveBidRefunded, refunded.BidType)
	require.Equal(t, bob, refunded.Bidder)
	require.Equal(t, int64(1000), refunded.Amount.Int64())
	require.Equal(t, uint64(1000), refunded.CreatedAtTimestamp)
	require.Equal(t, uint64(1500), refunded.BidInactivatedAtTimestamp)
	require.Equal(t, uint64(150), refunded.BidInactivatedAtBlockNumber)
	require.Zero(t, h.mem.Len(entity.KindReserveListingBid))
}

func TestApprovalAndPriceUpdates(t *testing.T) {
	h := newHarness(t)
	h.create(t, testutil.LandContract, 5, 3600)

	testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		if err := h.r.ReserveListingApprovalUpdated(ctx, tx, &event.ReserveListingApprovalUpdated{
			LogMeta:    testutil.Meta(11, 510, "0xa1", 0),
			ListingRef: ref(testutil.LandContract, 5),
			Approved:   true,
		}); err != nil {
			return err
		}
		return h.r.ReserveListingPriceUpdated(ctx, tx, &event.ReserveListingPriceUpdated{
			LogMeta:    testutil.Meta(11, 510, "0xa1", 1),
			ListingRef: ref(testutil.LandContract, 5),
			ListPrice:  big.NewInt(2500),
		})
	})

	l := h.listing(t)
	require.True(t, l.Approved)
	require.Equal(t, uint64(510), *l.ApprovedTimestamp)
	require.Equal(t, uint64(11), *l.ApprovedBlockNumber)
	require.Equal(t, int64(2500), l.ListPrice.Int64())
}

func TestEventsForUnknownListingAreSkipped(t *testing.T) {
	h := newHarness(t)

	cs := testutil.Apply(t, h.mem, func(ctx context.Context, tx *store.Tx) error {
		return h.r.ReserveListingPriceUpdated(ctx, tx, &event.ReserveListingPriceUpdated{
			LogMeta:    testutil.Meta(11, 510, "0xa1", 1),
			ListingRef: ref(testutil.LandContract, 5),
			ListPrice:  big.NewInt(2500),
		})
	})
	require.True(t, cs.Empty())
	require.Equal(t, float64(1), promtest.ToFloat64(
		h.deps.Metrics.MissingRecords.WithLabelValues("ReserveListingPriceUpdated", string(entity.KindReserveListing))))
}
