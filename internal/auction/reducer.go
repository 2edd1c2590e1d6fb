// Package auction reduces reserve-listing events: listing lifecycle and
// the single active bid each listing carries.
package auction

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"context"
	"math/big"

	"github.com/rs/zerolog"
)

// Reducer applies reserve-listing events.
type Reducer struct {
	reducer.Deps
}

func New(deps reducer.Deps) *Reducer {
	deps.Logger = deps.Logger.With().Str("reducer", "auction").Logger()
	return &Reducer{Deps: deps}
}

func listingID(ref event.ListingRef) string {
	return entity.ReserveListingID(ref.TokenContract, ref.TokenID, ref.ListingID)
}

// loadListing fetches the listing referenced by ref, reporting it as
// missing when absent.
func (r *Reducer) loadListing(ctx context.Context, tx *store.Tx, e event.Event, ref event.ListingRef) (*entity.ReserveListing, zerolog.Logger, error) {
	id := listingID(ref)
	logger := r.EventLogger(e).With().Str("listing_id", id).Logger()

	listing, found, err := store.Get[entity.ReserveListing](ctx, tx, id)
	if err != nil {
		return nil, logger, err
	}
	if !found {
		r.Missing(logger, e, entity.KindReserveListing, id, reducer.PolicySkip)
		return nil, logger, nil
	}
	return listing, logger, nil
}

func (r *Reducer) ReserveListingCreated(ctx context.Context, tx *store.Tx, e *event.ReserveListingCreated) error {
	id := listingID(e.ListingRef)
	logger := r.EventLogger(e).With().Str("listing_id", id).Logger()

	tokenOwner, err := r.Identity.FindOrCreateUser(ctx, tx, e.TokenOwner)
	if err != nil {
		return err
	}
	intermediary, err := r.Identity.FindOrCreateUser(ctx, tx, e.Intermediary)
	if err != nil {
		return err
	}
	currency, err := r.Identity.FindOrCreateCurrency(ctx, tx, e.ListCurrency, e.BlockNumber)
	if err != nil {
		return err
	}

	listing := &entity.ReserveListing{
		ID:                        id,
		TransactionHash:           e.TxHash,
		TokenID:                   e.TokenID,
		TokenContract:             e.TokenContract,
		Token:                     entity.TokenRef(e.TokenContract, e.TokenID),
		StartsAt:                  e.StartsAt,
		Duration:                  e.Duration,
		ListPrice:                 e.ListPrice,
		ListType:                  e.ListType,
		IntermediaryFeePercentage: e.IntermediaryFeePercentage,
		TokenOwner:                tokenOwner.ID,
		Intermediary:              intermediary.ID,
		ListCurrency:              currency.ID,
		Status:                    r.Config.Labels.Pending,
		CreatedAtTimestamp:        e.BlockTimestamp,
		CreatedAtBlockNumber:      e.BlockNumber,
	}

	if r.Config.IsLandContract(e.TokenContract) {
		landID := entity.LandID(e.TokenID)
		_, found, err := store.Get[entity.Land](ctx, tx, landID)
		if err != nil {
			return err
		}
		if found {
			listing.Land = landID
		} else {
			r.Missing(logger, e, entity.KindLand, landID, reducer.PolicyContinue)
		}
	}

	logger.Info().Uint64("duration", e.Duration).Msg("reserve listing created")
	return tx.Save(listing)
}

func (r *Reducer) ReserveListingApprovalUpdated(ctx context.Context, tx *store.Tx, e *event.ReserveListingApprovalUpdated) error {
	listing, _, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	ts, block := e.BlockTimestamp, e.BlockNumber
	listing.Approved = e.Approved
	listing.ApprovedTimestamp = &ts
	listing.ApprovedBlockNumber = &block
	return tx.Save(listing)
}

func (r *Reducer) ReserveListingPriceUpdated(ctx context.Context, tx *store.Tx, e *event.ReserveListingPriceUpdated) error {
	listing, _, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	listing.ListPrice = e.ListPrice
	return tx.Save(listing)
}

// ReserveListingBid accepts a new bid. The first bid starts the countdown;
// later bids refund the one they outbid.
func (r *Reducer) ReserveListingBid(ctx context.Context, tx *store.Tx, e *event.ReserveListingBid) error {
	listing, logger, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	bidder, err := r.Identity.FindOrCreateUser(ctx, tx, e.Sender)
	if err != nil {
		return err
	}

	if listing.FirstBidTime == 0 {
		if !e.FirstBid {
			logger.Warn().Msg("bid flagged as follow-up on a listing without bids")
		}
		listing.FirstBidTime = e.BlockTimestamp
		end := listing.Duration + e.BlockTimestamp
		listing.ExpectedEndTimestamp = &end
	} else if listing.CurrentBid != "" {
		if err := r.closeCurrentBid(ctx, tx, e, listing, r.Config.Labels.Refunded, logger); err != nil {
			return err
		}
	}

	bid := &entity.ReserveListingBid{
		ID:                   entity.ReserveListingBidID(listing.ID, e.TxHash, e.LogIndex),
		TransactionHash:      e.TxHash,
		ReserveListing:       listing.ID,
		Amount:               e.Value,
		Bidder:               bidder.ID,
		BidType:              r.Config.Labels.Active,
		CreatedAtTimestamp:   e.BlockTimestamp,
		CreatedAtBlockNumber: e.BlockNumber,
	}
	listing.CurrentBid = bid.ID

	if err := tx.Save(bid); err != nil {
		return err
	}
	return tx.Save(listing)
}

// ReserveListingDurationExtended moves the expected end, still anchored
// to the first bid.
func (r *Reducer) ReserveListingDurationExtended(ctx context.Context, tx *store.Tx, e *event.ReserveListingDurationExtended) error {
	listing, _, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	listing.Duration = e.Duration
	end := listing.FirstBidTime + e.Duration
	listing.ExpectedEndTimestamp = &end
	return tx.Save(listing)
}

func (r *Reducer) ReserveListingFinalized(ctx context.Context, tx *store.Tx, e *event.ReserveListingFinalized) error {
	listing, logger, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	if listing.CurrentBid != "" {
		if err := r.closeCurrentBid(ctx, tx, e, listing, r.Config.Labels.Final, logger); err != nil {
			return err
		}
	}
	ts, block := e.BlockTimestamp, e.BlockNumber
	listing.FinalizedAtTimestamp = &ts
	listing.FinalizedAtBlockNumber = &block
	listing.Status = r.Config.Labels.Finished
	logger.Info().Str("winner", e.Winner).Msg("reserve listing finalized")
	return tx.Save(listing)
}

func (r *Reducer) ReserveListingCanceled(ctx context.Context, tx *store.Tx, e *event.ReserveListingCanceled) error {
	listing, logger, err := r.loadListing(ctx, tx, e, e.ListingRef)
	if err != nil || listing == nil {
		return err
	}
	if listing.CurrentBid != "" {
		if err := r.closeCurrentBid(ctx, tx, e, listing, r.Config.Labels.Refunded, logger); err != nil {
			return err
		}
	}
	ts, block := e.BlockTimestamp, e.BlockNumber
	listing.FinalizedAtTimestamp = &ts
	listing.FinalizedAtBlockNumber = &block
	listing.Status = r.Config.Labels.Canceled
	logger.Info().Msg("reserve listing canceled")
	return tx.Save(listing)
}

// closeCurrentBid archives the listing's current bid under its own id with
// the given type and removes the active record. listing.CurrentBid is left
// pointing at the archived id.
func (r *Reducer) closeCurrentBid(ctx context.Context, tx *store.Tx, e event.Event, listing *entity.ReserveListing, bidType entity.ReserveBidType, logger zerolog.Logger) error {
	current, found, err := store.Get[entity.ReserveListingBid](ctx, tx, listing.CurrentBid)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindReserveListingBid, listing.CurrentBid, reducer.PolicyContinue)
		return nil
	}

	meta := e.Log()
	inactive := &entity.InactiveReserveListingBid{
		ID:                          current.ID,
		TransactionHash:             current.TransactionHash,
		ReserveListing:              current.ReserveListing,
		Amount:                      amountOrZero(current.Amount),
		Bidder:                      current.Bidder,
		BidType:                     bidType,
		CreatedAtTimestamp:          current.CreatedAtTimestamp,
		CreatedAtBlockNumber:        current.CreatedAtBlockNumber,
		BidInactivatedAtTimestamp:   meta.BlockTimestamp,
		BidInactivatedAtBlockNumber: meta.BlockNumber,
	}
	if err := tx.Save(inactive); err != nil {
		return err
	}
	tx.Remove(entity.KindReserveListingBid, current.ID)
	return nil
}

func amountOrZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
