package core

import (
	"LandLedger/internal/auction"
	"LandLedger/internal/event"
	"LandLedger/internal/exchange"
	"LandLedger/internal/reducer"
	"LandLedger/internal/registry"
	"LandLedger/internal/store"
	"context"
	"errors"
	"fmt"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Router dispatches each event to its reducer.
type Router struct {
	registry *registry.Reducer
	exchange *exchange.Reducer
	auction  *auction.Reducer
}

func NewRouter(deps reducer.Deps) *Router {
	return &Router{
		registry: registry.New(deps),
		exchange: exchange.New(deps),
		auction:  auction.New(deps),
	}
}

func (r *Router) Route(ctx context.Context, tx *store.Tx, evt event.Event) error {
	switch e := evt.(type) {
	case *event.Transfer:
		return r.registry.Transfer(ctx, tx, e)
	case *event.Approval:
		return r.registry.Approval(ctx, tx, e)
	case *event.ApprovalForAll:
		return r.registry.ApprovalForAll(ctx, tx, e)
	case *event.TokenURIUpdated:
		return r.registry.TokenURIUpdated(ctx, tx, e)
	case *event.TokenMetadataURIUpdated:
		return r.registry.TokenMetadataURIUpdated(ctx, tx, e)

	case *event.BidShareUpdated:
		return r.exchange.BidShareUpdated(ctx, tx, e)
	case *event.AskCreated:
		return r.exchange.AskCreated(ctx, tx, e)
	case *event.AskRemoved:
		return r.exchange.AskRemoved(ctx, tx, e)
	case *event.BidCreated:
		return r.exchange.BidCreated(ctx, tx, e)
	case *event.BidRemoved:
		return r.exchange.BidRemoved(ctx, tx, e)
	case *event.BidFinalized:
		return r.exchange.BidFinalized(ctx, tx, e)

	case *event.ReserveListingCreated:
		return r.auction.ReserveListingCreated(ctx, tx, e)
	case *event.ReserveListingApprovalUpdated:
		return r.auction.ReserveListingApprovalUpdated(ctx, tx, e)
	case *event.ReserveListingPriceUpdated:
		return r.auction.ReserveListingPriceUpdated(ctx, tx, e)
	case *event.ReserveListingBid:
		return r.auction.ReserveListingBid(ctx, tx, e)
	case *event.ReserveListingDurationExtended:
		return r.auction.ReserveListingDurationExtended(ctx, tx, e)
	case *event.ReserveListingFinalized:
		return r.auction.ReserveListingFinalized(ctx, tx, e)
	case *event.ReserveListingCanceled:
		return r.auction.ReserveListingCanceled(ctx, tx, e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, evt)
	}
}
