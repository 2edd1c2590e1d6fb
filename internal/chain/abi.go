package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const landABIJSON = `[
 {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"tokenMetadataURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"tokenContentHashes","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"tokenMetadataHashes","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"tokenXCoordinates","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"int256"}]},
 {"type":"function","name":"tokenYCoordinates","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"int256"}]},
 {"type":"function","name":"landExchangeContract","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// bidSharesForToken returns BidShares{D256 prevOwner; D256 creator; D256 owner}.
// D256 is a single-uint256 static tuple, so the encoding equals three words.
const exchangeABIJSON = `[
 {"type":"function","name":"bidSharesForToken","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"prevOwner","type":"uint256"},{"name":"creator","type":"uint256"},{"name":"owner","type":"uint256"}]}
]`

const erc20ABIJSON = `[
 {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const erc20BytesABIJSON = `[
 {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
]`

var (
	LandABI       = mustParseABI(landABIJSON)
	ExchangeABI   = mustParseABI(exchangeABIJSON)
	ERC20ABI      = mustParseABI(erc20ABIJSON)
	ERC20BytesABI = mustParseABI(erc20BytesABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid ABI definition: " + err.Error())
	}
	return parsed
}
