package exchange

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"context"
)

// AskCreated installs the owner's ask on a land. An existing ask from the
// same owner is archived as Removed and updated in place.
func (r *Reducer) AskCreated(ctx context.Context, tx *store.Tx, e *event.AskCreated) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.tokenLogger(e, tokenID)

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicySkip)
		return nil
	}
	currency, err := r.Identity.FindOrCreateCurrency(ctx, tx, e.Ask.Currency, e.BlockNumber)
	if err != nil {
		return err
	}

	askID := entity.AskID(land.ID, land.Owner)
	ask, found, err := store.Get[entity.Ask](ctx, tx, askID)
	if err != nil {
		return err
	}
	if !found {
		return tx.Save(&entity.Ask{
			ID:                   askID,
			TransactionHash:      e.TxHash,
			Land:                 land.ID,
			Owner:                land.Owner,
			Amount:               amountOrZero(e.Ask.Amount),
			Currency:             currency.ID,
			CreatedAtTimestamp:   e.BlockTimestamp,
			CreatedAtBlockNumber: e.BlockNumber,
		})
	}

	logger.Debug().Str("ask_id", askID).Msg("replacing ask")
	if err := tx.Save(r.inactiveAsk(e.LogMeta, tokenID, ask)); err != nil {
		return err
	}
	ask.Amount = amountOrZero(e.Ask.Amount)
	ask.Currency = currency.ID
	ask.CreatedAtTimestamp = e.BlockTimestamp
	ask.CreatedAtBlockNumber = e.BlockNumber
	return tx.Save(ask)
}

// AskRemoved archives and removes the owner's ask. A zero-amount removal
// is what the exchange emits when no ask was set, and is ignored without
// any reads.
func (r *Reducer) AskRemoved(ctx context.Context, tx *store.Tx, e *event.AskRemoved) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.tokenLogger(e, tokenID)

	if e.Ask.Amount == nil || e.Ask.Amount.Sign() == 0 {
		r.Noop(logger, e, "zero amount")
		return nil
	}

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicySkip)
		return nil
	}
	if _, err := r.Identity.FindOrCreateCurrency(ctx, tx, e.Ask.Currency, e.BlockNumber); err != nil {
		return err
	}

	askID := entity.AskID(land.ID, land.Owner)
	ask, found, err := store.Get[entity.Ask](ctx, tx, askID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindAsk, askID, reducer.PolicySkip)
		return nil
	}

	if err := tx.Save(r.inactiveAsk(e.LogMeta, tokenID, ask)); err != nil {
		return err
	}
	tx.Remove(entity.KindAsk, askID)
	return nil
}

// inactiveAsk snapshots ask as Removed at the event's position.
func (r *Reducer) inactiveAsk(meta event.LogMeta, tokenID string, ask *entity.Ask) *entity.InactiveAsk {
	return &entity.InactiveAsk{
		ID:                       entity.LogScopedID(tokenID, meta.TxHash, meta.LogIndex),
		TransactionHash:          meta.TxHash,
		Land:                     tokenID,
		Type:                     r.Config.Labels.Removed,
		Amount:                   ask.Amount,
		Currency:                 ask.Currency,
		Owner:                    ask.Owner,
		CreatedAtTimestamp:       ask.CreatedAtTimestamp,
		CreatedAtBlockNumber:     ask.CreatedAtBlockNumber,
		InactivatedAtTimestamp:   meta.BlockTimestamp,
		InactivatedAtBlockNumber: meta.BlockNumber,
	}
}
