// Package exchange reduces market events: bid shares, asks and bids, and
// the per-currency liquidity they move.
package exchange

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"context"
	"math/big"

	"github.com/rs/zerolog"
)

// Reducer applies exchange events to asks and bids.
type Reducer struct {
	reducer.Deps
}

func New(deps reducer.Deps) *Reducer {
	deps.Logger = deps.Logger.With().Str("reducer", "exchange").Logger()
	return &Reducer{Deps: deps}
}

func (r *Reducer) tokenLogger(e event.Event, tokenID string) zerolog.Logger {
	return r.EventLogger(e).With().Str("token_id", tokenID).Logger()
}

func (r *Reducer) BidShareUpdated(ctx context.Context, tx *store.Tx, e *event.BidShareUpdated) error {
	tokenID := entity.LandID(e.TokenID)

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(r.tokenLogger(e, tokenID), e, entity.KindLand, tokenID, reducer.PolicySkip)
		return nil
	}
	land.PrevOwnerBidShare = e.BidShares.PrevOwner
	land.CreatorBidShare = e.BidShares.Creator
	land.OwnerBidShare = e.BidShares.Owner
	return tx.Save(land)
}

// adjustLiquidity adds delta to the currency's liquidity and stages it.
func adjustLiquidity(tx *store.Tx, currency *entity.Currency, delta *big.Int) error {
	if delta == nil {
		return nil
	}
	currency.Liquidity = new(big.Int).Add(currency.Liquidity, delta)
	return tx.Save(currency)
}

func amountOrZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
