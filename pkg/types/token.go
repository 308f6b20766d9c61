package types

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Provenance records where a token candidate came from
type Provenance string

const (
	ProvenanceConfig Provenance = "config" // from the configured candidate list
	ProvenanceManual Provenance = "manual" // address passed directly on the command line
)

// TokenRecord is a read-only snapshot of one token balance as reported by
// the discovery service. Balance is a decimal string in the token's
// smallest unit; the engine trusts it as of scan time and never re-reads
// it before building a plan.
type TokenRecord struct {
	Address    common.Address `json:"address"`
	Symbol     string         `json:"symbol"`
	Decimals   uint8          `json:"decimals"`
	Balance    string         `json:"balance"`
	USDValue   float64        `json:"usd_value"`
	Provenance Provenance     `json:"provenance"`
}

// SameAddress compares token addresses case-insensitively.
func (t TokenRecord) SameAddress(addr common.Address) bool {
	return strings.EqualFold(t.Address.Hex(), addr.Hex())
}

// SwapPlanEntry is one (token, amount) pair of a swap plan. Amount is in
// the token's smallest unit, already reduced by the guard buffer.
type SwapPlanEntry struct {
	Address common.Address
	Amount  *big.Int
}

// SwapParameters is the final tuple handed to the swap executor.
// Immutable once computed.
type SwapParameters struct {
	Addresses  []common.Address
	Amounts    []*big.Int
	MinReceive *big.Int
}
