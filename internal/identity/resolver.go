// Package identity resolves the two reference entities shared by every
// reducer: account identities and currency descriptors.
package identity

import (
	"LandLedger/internal/chain"
	"LandLedger/internal/entity"
	"LandLedger/internal/store"
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
)

// NullBytes32 is returned by some tokens' bytes32 name/symbol accessors
// when the value is unset.
var NullBytes32 = [32]byte{31: 0x01}

// Config describes the native coin and the label used for unreadable
// names and symbols.
type Config struct {
	NativeCurrency string
	NativeName     string
	NativeSymbol   string
	NativeDecimals int
	UnknownLabel   string
}

func DefaultConfig() Config {
	return Config{
		NativeCurrency: entity.ZeroAddress,
		NativeName:     "Ethereum",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		UnknownLabel:   "unknown",
	}
}

// Resolver implements find-or-create for users and currencies.
type Resolver struct {
	cfg    Config
	reader chain.ContractReader
	logger zerolog.Logger
}

func NewResolver(cfg Config, reader chain.ContractReader, logger zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg, reader: reader, logger: logger}
}

// FindOrCreateUser returns the stored user or stages an empty one.
func (r *Resolver) FindOrCreateUser(ctx context.Context, tx *store.Tx, id string) (*entity.User, error) {
	user, found, err := store.Get[entity.User](ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if found {
		return user, nil
	}

	user = &entity.User{ID: id}
	if err := tx.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindOrCreateCurrency returns the stored currency or stages a new one with
// zero liquidity. Metadata of non-native currencies is read at block.
func (r *Resolver) FindOrCreateCurrency(ctx context.Context, tx *store.Tx, id string, block uint64) (*entity.Currency, error) {
	currency, found, err := store.Get[entity.Currency](ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if found {
		if currency.Liquidity == nil {
			currency.Liquidity = new(big.Int)
		}
		return currency, nil
	}

	currency, err = r.createCurrency(ctx, id, block)
	if err != nil {
		return nil, err
	}
	if err := tx.Save(currency); err != nil {
		return nil, err
	}
	return currency, nil
}

func (r *Resolver) createCurrency(ctx context.Context, id string, block uint64) (*entity.Currency, error) {
	currency := &entity.Currency{ID: id, Liquidity: new(big.Int)}

	if id == r.cfg.NativeCurrency {
		currency.Name = r.cfg.NativeName
		currency.Symbol = r.cfg.NativeSymbol
		currency.Decimals = r.cfg.NativeDecimals
		return currency, nil
	}

	name, err := r.readLabel(ctx, "name", id, block, r.reader.Name, r.reader.NameBytes32)
	if err != nil {
		return nil, err
	}
	symbol, err := r.readLabel(ctx, "symbol", id, block, r.reader.Symbol, r.reader.SymbolBytes32)
	if err != nil {
		return nil, err
	}

	decimals, err := r.reader.Decimals(ctx, block, id)
	if err != nil {
		return nil, fmt.Errorf("read decimals of %s: %w", id, err)
	}
	currency.Name = name
	currency.Symbol = symbol
	currency.Decimals = entity.DecimalsUnknown
	if !decimals.Reverted {
		currency.Decimals = int(decimals.Value)
	} else {
		r.logger.Warn().Str("currency", id).Msg("decimals() reverted, stored as unknown")
	}

	r.logger.Debug().
		Str("currency", id).
		Str("name", name).
		Str("symbol", symbol).
		Int("decimals", currency.Decimals).
		Msg("currency created")
	return currency, nil
}

type stringRead func(ctx context.Context, block uint64, token string) (chain.Result[string], error)
type bytes32Read func(ctx context.Context, block uint64, token string) (chain.Result[[32]byte], error)

// readLabel tries the string accessor, then the bytes32 accessor, then
// falls back to the unknown label. The result is never empty.
func (r *Resolver) readLabel(ctx context.Context, field, token string, block uint64, asString stringRead, asBytes bytes32Read) (string, error) {
	res, err := asString(ctx, block, token)
	if err != nil {
		return "", fmt.Errorf("read %s of %s: %w", field, token, err)
	}
	if !res.Reverted && res.Value != "" {
		return res.Value, nil
	}

	raw, err := asBytes(ctx, block, token)
	if err != nil {
		return "", fmt.Errorf("read bytes32 %s of %s: %w", field, token, err)
	}
	if raw.Reverted || raw.Value == NullBytes32 {
		return r.cfg.UnknownLabel, nil
	}
	if s := Bytes32String(raw.Value); s != "" {
		return s, nil
	}
	return r.cfg.UnknownLabel, nil
}

// Bytes32String decodes a NUL-padded bytes32 label.
func Bytes32String(b [32]byte) string {
	return string(bytes.TrimRight(b[:], "\x00"))
}
