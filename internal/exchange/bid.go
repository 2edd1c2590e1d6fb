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

// FinalizeTransferLogOffset is how many log positions the exchange's
// ownership Transfer precedes BidFinalized in the same transaction.
const FinalizeTransferLogOffset = 2

// FinalizingTransferID returns the id of the Transfer a BidFinalized at
// logIndex correlates with. ok is false when no such position exists.
func FinalizingTransferID(tokenID, txHash string, logIndex uint64) (id string, ok bool) {
	if logIndex < FinalizeTransferLogOffset {
		return "", false
	}
	return entity.LogScopedID(tokenID, txHash, logIndex-FinalizeTransferLogOffset), true
}

// BidCreated installs the bidder's bid and adds its amount to the
// currency's liquidity. A missing land does not block the bid.
func (r *Reducer) BidCreated(ctx context.Context, tx *store.Tx, e *event.BidCreated) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.tokenLogger(e, tokenID)

	_, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicyContinue)
	}

	bidder, err := r.Identity.FindOrCreateUser(ctx, tx, e.Bid.Bidder)
	if err != nil {
		return err
	}
	recipient, err := r.Identity.FindOrCreateUser(ctx, tx, e.Bid.Recipient)
	if err != nil {
		return err
	}
	currency, err := r.Identity.FindOrCreateCurrency(ctx, tx, e.Bid.Currency, e.BlockNumber)
	if err != nil {
		return err
	}

	bid := &entity.Bid{
		ID:                   entity.BidID(tokenID, bidder.ID),
		TransactionHash:      e.TxHash,
		Land:                 tokenID,
		Amount:               amountOrZero(e.Bid.Amount),
		Currency:             currency.ID,
		SellOnShare:          amountOrZero(e.Bid.SellOnShare),
		Bidder:               bidder.ID,
		Recipient:            recipient.ID,
		CreatedAtTimestamp:   e.BlockTimestamp,
		CreatedAtBlockNumber: e.BlockNumber,
	}
	if err := tx.Save(bid); err != nil {
		return err
	}
	return adjustLiquidity(tx, currency, bid.Amount)
}

// BidRemoved archives and removes the bid, releasing its liquidity.
func (r *Reducer) BidRemoved(ctx context.Context, tx *store.Tx, e *event.BidRemoved) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.tokenLogger(e, tokenID)

	bidID := entity.BidID(tokenID, e.Bid.Bidder)
	bid, found, err := store.Get[entity.Bid](ctx, tx, bidID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindBid, bidID, reducer.PolicySkip)
		return nil
	}

	inactive, err := r.archiveBid(ctx, tx, e.LogMeta, tokenID, e.Bid, r.Config.Labels.Removed, bid)
	if err != nil {
		return err
	}
	if err := tx.Save(inactive); err != nil {
		return err
	}
	return r.releaseBid(ctx, tx, bid)
}

// BidFinalized archives the accepted bid and moves the land's previous
// owner to the seller recorded by the correlated Transfer.
func (r *Reducer) BidFinalized(ctx context.Context, tx *store.Tx, e *event.BidFinalized) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.tokenLogger(e, tokenID)

	land, landFound, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !landFound {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicyContinue)
	} else {
		if err := r.applySeller(ctx, tx, e, land, logger); err != nil {
			return err
		}
	}

	bidID := entity.BidID(tokenID, e.Bid.Bidder)
	bid, found, err := store.Get[entity.Bid](ctx, tx, bidID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindBid, bidID, reducer.PolicyDefault)
	}

	inactive, err := r.archiveBid(ctx, tx, e.LogMeta, tokenID, e.Bid, r.Config.Labels.Finalized, bid)
	if err != nil {
		return err
	}
	if err := tx.Save(inactive); err != nil {
		return err
	}
	if bid == nil {
		return nil
	}
	return r.releaseBid(ctx, tx, bid)
}

// applySeller sets land.PrevOwner from the Transfer logged just before
// the finalization. Without it the previous owner is left unchanged.
func (r *Reducer) applySeller(ctx context.Context, tx *store.Tx, e *event.BidFinalized, land *entity.Land, logger zerolog.Logger) error {
	transferID, ok := FinalizingTransferID(land.ID, e.TxHash, e.LogIndex)
	if !ok {
		r.Missing(logger, e, entity.KindTransfer, "", reducer.PolicyContinue)
		return nil
	}
	transfer, found, err := store.Get[entity.Transfer](ctx, tx, transferID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindTransfer, transferID, reducer.PolicyContinue)
		return nil
	}
	land.PrevOwner = transfer.From
	return tx.Save(land)
}

// archiveBid builds the InactiveBid for payload. stored, when present,
// supplies the original creation time; otherwise the event time is used.
func (r *Reducer) archiveBid(ctx context.Context, tx *store.Tx, meta event.LogMeta, tokenID string, payload event.Bid, reason entity.InactiveReason, stored *entity.Bid) (*entity.InactiveBid, error) {
	bidder, err := r.Identity.FindOrCreateUser(ctx, tx, payload.Bidder)
	if err != nil {
		return nil, err
	}
	recipient, err := r.Identity.FindOrCreateUser(ctx, tx, payload.Recipient)
	if err != nil {
		return nil, err
	}
	currencyID := payload.Currency
	createdTs, createdBlock := meta.BlockTimestamp, meta.BlockNumber
	if stored != nil {
		currencyID = stored.Currency
		createdTs, createdBlock = stored.CreatedAtTimestamp, stored.CreatedAtBlockNumber
	}
	currency, err := r.Identity.FindOrCreateCurrency(ctx, tx, currencyID, meta.BlockNumber)
	if err != nil {
		return nil, err
	}

	return &entity.InactiveBid{
		ID:                       entity.LogScopedID(tokenID, meta.TxHash, meta.LogIndex),
		TransactionHash:          meta.TxHash,
		Type:                     reason,
		Land:                     tokenID,
		Amount:                   amountOrZero(payload.Amount),
		Currency:                 currency.ID,
		SellOnShare:              amountOrZero(payload.SellOnShare),
		Bidder:                   bidder.ID,
		Recipient:                recipient.ID,
		CreatedAtTimestamp:       createdTs,
		CreatedAtBlockNumber:     createdBlock,
		InactivatedAtTimestamp:   meta.BlockTimestamp,
		InactivatedAtBlockNumber: meta.BlockNumber,
	}, nil
}

// releaseBid removes bid and subtracts its stored amount from liquidity.
func (r *Reducer) releaseBid(ctx context.Context, tx *store.Tx, bid *entity.Bid) error {
	currency, found, err := store.Get[entity.Currency](ctx, tx, bid.Currency)
	if err != nil {
		return err
	}
	tx.Remove(entity.KindBid, bid.ID)
	if !found {
		return nil
	}
	if currency.Liquidity == nil {
		currency.Liquidity = new(big.Int)
	}
	return adjustLiquidity(tx, currency, new(big.Int).Neg(amountOrZero(bid.Amount)))
}
