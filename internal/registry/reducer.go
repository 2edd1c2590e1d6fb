// Package registry reduces land-registry events: ownership transfers
// (mint, transfer, burn), approvals and URI updates.
package registry

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/reducer"
	"LandLedger/internal/store"
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Reducer applies land registry events.
type Reducer struct {
	reducer.Deps
}

func New(deps reducer.Deps) *Reducer {
	deps.Logger = deps.Logger.With().Str("reducer", "registry").Logger()
	return &Reducer{Deps: deps}
}

// Transfer routes a token transfer to mint, burn or ordinary transfer
// handling. Every transfer records a Transfer entry and find-or-creates
// both counterparties.
func (r *Reducer) Transfer(ctx context.Context, tx *store.Tx, e *event.Transfer) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.EventLogger(e).With().Str("token_id", tokenID).Logger()
	logger.Debug().Str("from", e.From).Str("to", e.To).Msg("transfer")

	from, err := r.Identity.FindOrCreateUser(ctx, tx, e.From)
	if err != nil {
		return err
	}
	to, err := r.Identity.FindOrCreateUser(ctx, tx, e.To)
	if err != nil {
		return err
	}

	if e.From == r.Config.ZeroAddress {
		return r.mint(ctx, tx, e, tokenID, from, to, logger)
	}

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicyDefault)
		land = &entity.Land{ID: tokenID, TransactionHash: e.TxHash}
	}

	if e.To == r.Config.ZeroAddress {
		ts, block := e.BlockTimestamp, e.BlockNumber
		land.PrevOwner = r.Config.ZeroAddress
		land.BurnedAtTimestamp = &ts
		land.BurnedAtBlockNumber = &block
		logger.Info().Msg("land burned")
	}
	land.Owner = to.ID
	land.Approved = ""

	if err := tx.Save(land); err != nil {
		return err
	}
	return tx.Save(newTransfer(e, tokenID, from.ID, to.ID))
}

func newTransfer(e *event.Transfer, tokenID, from, to string) *entity.Transfer {
	return &entity.Transfer{
		ID:                   entity.LogScopedID(tokenID, e.TxHash, e.LogIndex),
		TransactionHash:      e.TxHash,
		Land:                 tokenID,
		From:                 from,
		To:                   to,
		CreatedAtTimestamp:   e.BlockTimestamp,
		CreatedAtBlockNumber: e.BlockNumber,
	}
}

// mint creates the Land from the registry's state at the mint block.
// Reverted reads leave the corresponding field empty.
func (r *Reducer) mint(ctx context.Context, tx *store.Tx, e *event.Transfer, tokenID string, from, to *entity.User, logger zerolog.Logger) error {
	land := &entity.Land{
		ID:                   tokenID,
		TransactionHash:      e.TxHash,
		Owner:                to.ID,
		Creator:              to.ID,
		PrevOwner:            to.ID,
		CreatedAtTimestamp:   e.BlockTimestamp,
		CreatedAtBlockNumber: e.BlockNumber,
	}
	if err := r.readTokenState(ctx, e, land); err != nil {
		return fmt.Errorf("read token %s: %w", tokenID, err)
	}

	shares, err := r.readBidShares(ctx, e)
	if err != nil {
		return fmt.Errorf("read bid shares %s: %w", tokenID, err)
	}
	land.PrevOwnerBidShare = shares.PrevOwner
	land.CreatorBidShare = shares.Creator
	land.OwnerBidShare = shares.Owner

	logger.Info().Str("creator", to.ID).Msg("land minted")
	if err := tx.Save(land); err != nil {
		return err
	}
	return tx.Save(newTransfer(e, tokenID, from.ID, to.ID))
}

func (r *Reducer) readTokenState(ctx context.Context, e *event.Transfer, land *entity.Land) error {
	block, addr, id := e.BlockNumber, e.Contract, e.TokenID

	contentURI, err := r.Reader.TokenURI(ctx, block, addr, id)
	if err != nil {
		return err
	}
	metadataURI, err := r.Reader.TokenMetadataURI(ctx, block, addr, id)
	if err != nil {
		return err
	}
	contentHash, err := r.Reader.TokenContentHash(ctx, block, addr, id)
	if err != nil {
		return err
	}
	metadataHash, err := r.Reader.TokenMetadataHash(ctx, block, addr, id)
	if err != nil {
		return err
	}
	x, err := r.Reader.TokenXCoordinate(ctx, block, addr, id)
	if err != nil {
		return err
	}
	y, err := r.Reader.TokenYCoordinate(ctx, block, addr, id)
	if err != nil {
		return err
	}

	land.ContentURI = contentURI.Or("")
	land.MetadataURI = metadataURI.Or("")
	land.ContentHash = hashHex(contentHash)
	land.MetadataHash = hashHex(metadataHash)
	land.XCoordinate = x.Or(nil)
	land.YCoordinate = y.Or(nil)
	return nil
}

func hashHex(res chain.Result[[32]byte]) string {
	if res.Reverted {
		return ""
	}
	return common.Hash(res.Value).Hex()
}

// readBidShares resolves the exchange through the registry, then reads the
// token's shares from it. Either read reverting yields zero shares.
func (r *Reducer) readBidShares(ctx context.Context, e *event.Transfer) (chain.BidShares, error) {
	zero := chain.BidShares{PrevOwner: new(big.Int), Creator: new(big.Int), Owner: new(big.Int)}

	exchange, err := r.Reader.LandExchangeContract(ctx, e.BlockNumber, e.Contract)
	if err != nil {
		return zero, err
	}
	if exchange.Reverted {
		return zero, nil
	}
	shares, err := r.Reader.BidSharesForToken(ctx, e.BlockNumber, exchange.Value, e.TokenID)
	if err != nil {
		return zero, err
	}
	return shares.Or(zero), nil
}

func (r *Reducer) Approval(ctx context.Context, tx *store.Tx, e *event.Approval) error {
	tokenID := entity.LandID(e.TokenID)
	logger := r.EventLogger(e).With().Str("token_id", tokenID).Logger()

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicySkip)
		return nil
	}

	if e.Approved == r.Config.ZeroAddress {
		land.Approved = ""
	} else {
		approved, err := r.Identity.FindOrCreateUser(ctx, tx, e.Approved)
		if err != nil {
			return err
		}
		land.Approved = approved.ID
	}
	return tx.Save(land)
}

// ApprovalForAll grants or revokes an operator on the owner's
// authorized list. Grants append unconditionally; a revoke removes the
// first matching entry.
func (r *Reducer) ApprovalForAll(ctx context.Context, tx *store.Tx, e *event.ApprovalForAll) error {
	logger := r.EventLogger(e).With().Str("owner", e.Owner).Str("operator", e.Operator).Logger()

	owner, err := r.Identity.FindOrCreateUser(ctx, tx, e.Owner)
	if err != nil {
		return err
	}
	operator, err := r.Identity.FindOrCreateUser(ctx, tx, e.Operator)
	if err != nil {
		return err
	}

	if e.Approved {
		owner.AuthorizedUsers = append(owner.AuthorizedUsers, operator.ID)
		return tx.Save(owner)
	}

	if len(owner.AuthorizedUsers) == 0 {
		r.Noop(logger, e, "no authorized users")
		return nil
	}
	idx := slices.Index(owner.AuthorizedUsers, operator.ID)
	if idx < 0 {
		r.Noop(logger, e, "operator not authorized")
		return nil
	}
	owner.AuthorizedUsers = slices.Delete(owner.AuthorizedUsers, idx, idx+1)
	return tx.Save(owner)
}

func (r *Reducer) TokenURIUpdated(ctx context.Context, tx *store.Tx, e *event.TokenURIUpdated) error {
	return r.updateURI(ctx, tx, e, e.TokenID, e.Owner, e.URI, r.Config.Labels.Content)
}

func (r *Reducer) TokenMetadataURIUpdated(ctx context.Context, tx *store.Tx, e *event.TokenMetadataURIUpdated) error {
	return r.updateURI(ctx, tx, e, e.TokenID, e.Owner, e.URI, r.Config.Labels.Metadata)
}

// updateURI records the change as a URIUpdate, then applies it to the Land.
func (r *Reducer) updateURI(ctx context.Context, tx *store.Tx, e event.Event, id *big.Int, updaterAddr, uri string, kind entity.URIKind) error {
	tokenID := entity.LandID(id)
	logger := r.EventLogger(e).With().Str("token_id", tokenID).Logger()

	land, found, err := store.Get[entity.Land](ctx, tx, tokenID)
	if err != nil {
		return err
	}
	if !found {
		r.Missing(logger, e, entity.KindLand, tokenID, reducer.PolicySkip)
		return nil
	}
	updater, err := r.Identity.FindOrCreateUser(ctx, tx, updaterAddr)
	if err != nil {
		return err
	}

	meta := e.Log()
	update := &entity.URIUpdate{
		ID:                   entity.LogScopedID(tokenID, meta.TxHash, meta.LogIndex),
		TransactionHash:      meta.TxHash,
		Land:                 tokenID,
		Type:                 kind,
		To:                   uri,
		Updater:              updater.ID,
		Owner:                land.Owner,
		CreatedAtTimestamp:   meta.BlockTimestamp,
		CreatedAtBlockNumber: meta.BlockNumber,
	}
	if kind == r.Config.Labels.Metadata {
		update.From = land.MetadataURI
		land.MetadataURI = uri
	} else {
		update.From = land.ContentURI
		land.ContentURI = uri
	}

	if err := tx.Save(update); err != nil {
		return err
	}
	return tx.Save(land)
}
