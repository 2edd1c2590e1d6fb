package chain

import (
	"LandLedger/internal/observability"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DialEthClient initialises an Ethereum RPC client for the provided endpoint.
func DialEthClient(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("eth rpc endpoint required")
	}
	return ethclient.DialContext(ctx, trimmed)
}

// EthReader implements ContractReader with eth_call.
type EthReader struct {
	caller  ethereum.ContractCaller
	timeout time.Duration
	metrics *observability.Metrics
}

// NewEthReader wraps a contract caller (usually *ethclient.Client). A zero
// timeout leaves deadlines to the caller's context.
func NewEthReader(caller ethereum.ContractCaller, timeout time.Duration, metrics *observability.Metrics) *EthReader {
	return &EthReader{caller: caller, timeout: timeout, metrics: metrics}
}

// IsRevert reports whether an eth_call error is an execution revert rather
// than a transport failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "invalid opcode")
}

// call packs, executes and unpacks one view call. reverted is true when the
// call reverted, returned no data, or returned data that does not decode.
func (r *EthReader) call(ctx context.Context, contract abi.ABI, label, method, to string, block uint64, args ...interface{}) (values []interface{}, reverted bool, err error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, false, fmt.Errorf("pack %s: %w", label, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// Block 0 reads the latest state.
	var blockNumber *big.Int
	if block > 0 {
		blockNumber = new(big.Int).SetUint64(block)
	}

	addr := common.HexToAddress(to)
	start := time.Now()
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: input}, blockNumber)
	if r.metrics != nil {
		r.metrics.ContractReads.WithLabelValues(label).Inc()
		r.metrics.ContractReadLatency.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if IsRevert(err) {
			r.recordRevert(label)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("call %s on %s: %w", label, to, err)
	}
	if len(out) == 0 {
		r.recordRevert(label)
		return nil, true, nil
	}

	values, err = contract.Unpack(method, out)
	if err != nil || len(values) == 0 {
		r.recordRevert(label)
		return nil, true, nil
	}
	return values, false, nil
}

func (r *EthReader) recordRevert(label string) {
	if r.metrics != nil {
		r.metrics.ContractReverts.WithLabelValues(label).Inc()
	}
}

func callOne[T any](ctx context.Context, r *EthReader, contract abi.ABI, label, method, to string, block uint64, args ...interface{}) (Result[T], error) {
	values, reverted, err := r.call(ctx, contract, label, method, to, block, args...)
	if err != nil {
		return Result[T]{}, err
	}
	if reverted {
		return Revert[T](), nil
	}
	v, ok := values[0].(T)
	if !ok {
		r.recordRevert(label)
		return Revert[T](), nil
	}
	return Ok(v), nil
}

// --- Land ---

func (r *EthReader) TokenURI(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[string], error) {
	return callOne[string](ctx, r, LandABI, "tokenURI", "tokenURI", land, block, tokenID)
}

func (r *EthReader) TokenMetadataURI(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[string], error) {
	return callOne[string](ctx, r, LandABI, "tokenMetadataURI", "tokenMetadataURI", land, block, tokenID)
}

func (r *EthReader) TokenContentHash(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[[32]byte], error) {
	return callOne[[32]byte](ctx, r, LandABI, "tokenContentHashes", "tokenContentHashes", land, block, tokenID)
}

func (r *EthReader) TokenMetadataHash(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[[32]byte], error) {
	return callOne[[32]byte](ctx, r, LandABI, "tokenMetadataHashes", "tokenMetadataHashes", land, block, tokenID)
}

func (r *EthReader) TokenXCoordinate(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[*big.Int], error) {
	return callOne[*big.Int](ctx, r, LandABI, "tokenXCoordinates", "tokenXCoordinates", land, block, tokenID)
}

func (r *EthReader) TokenYCoordinate(ctx context.Context, block uint64, land string, tokenID *big.Int) (Result[*big.Int], error) {
	return callOne[*big.Int](ctx, r, LandABI, "tokenYCoordinates", "tokenYCoordinates", land, block, tokenID)
}

func (r *EthReader) LandExchangeContract(ctx context.Context, block uint64, land string) (Result[string], error) {
	res, err := callOne[common.Address](ctx, r, LandABI, "landExchangeContract", "landExchangeContract", land, block)
	if err != nil || res.Reverted {
		return Result[string]{Reverted: res.Reverted}, err
	}
	return Ok(strings.ToLower(res.Value.Hex())), nil
}

// --- Exchange ---

func (r *EthReader) BidSharesForToken(ctx context.Context, block uint64, exchange string, tokenID *big.Int) (Result[BidShares], error) {
	const label = "bidSharesForToken"
	values, reverted, err := r.call(ctx, ExchangeABI, label, label, exchange, block, tokenID)
	if err != nil {
		return Result[BidShares]{}, err
	}
	if reverted || len(values) != 3 {
		return Revert[BidShares](), nil
	}

	var shares [3]*big.Int
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			r.recordRevert(label)
			return Revert[BidShares](), nil
		}
		shares[i] = n
	}
	return Ok(BidShares{PrevOwner: shares[0], Creator: shares[1], Owner: shares[2]}), nil
}

// --- ERC-20 ---

func (r *EthReader) Name(ctx context.Context, block uint64, token string) (Result[string], error) {
	return callOne[string](ctx, r, ERC20ABI, "name", "name", token, block)
}

func (r *EthReader) NameBytes32(ctx context.Context, block uint64, token string) (Result[[32]byte], error) {
	return callOne[[32]byte](ctx, r, ERC20BytesABI, "name_bytes32", "name", token, block)
}

func (r *EthReader) Symbol(ctx context.Context, block uint64, token string) (Result[string], error) {
	return callOne[string](ctx, r, ERC20ABI, "symbol", "symbol", token, block)
}

func (r *EthReader) SymbolBytes32(ctx context.Context, block uint64, token string) (Result[[32]byte], error) {
	return callOne[[32]byte](ctx, r, ERC20BytesABI, "symbol_bytes32", "symbol", token, block)
}

func (r *EthReader) Decimals(ctx context.Context, block uint64, token string) (Result[uint8], error) {
	return callOne[uint8](ctx, r, ERC20ABI, "decimals", "decimals", token, block)
}

var _ ContractReader = (*EthReader)(nil)
