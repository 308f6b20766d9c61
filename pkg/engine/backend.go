package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dustsweep/pkg/types"
)

// ChainBackend is the on-chain surface the pipeline drives. The spender of
// every allowance and approval is the router; the owner is the connected
// account. Implemented by pkg/router, faked in tests.
//
// Reads and estimates carry the transport's bounded retry/backoff; the
// engine itself never retries anything.
type ChainBackend interface {
	// ChainID returns the connected network's chain identifier.
	ChainID(ctx context.Context) (*big.Int, error)

	// RouterCode returns the contract code at the router address.
	RouterCode(ctx context.Context) ([]byte, error)

	// Allowance returns the router's approved spend for a token.
	Allowance(ctx context.Context, token common.Address) (*big.Int, error)

	// SubmitApproval signs and submits approve(router, amount) against the
	// token and returns the transaction hash without waiting for a receipt.
	SubmitApproval(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error)

	// WaitMined blocks until the transaction has a receipt; a reverted
	// receipt is an error.
	WaitMined(ctx context.Context, tx common.Hash) error

	// SwapQuote returns the router's expected output for one token/amount.
	SwapQuote(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error)

	// BulkSwapQuote returns the aggregate expected output for the whole
	// plan plus the router's own per-token split.
	BulkSwapQuote(ctx context.Context, tokens []common.Address, amounts []*big.Int) (total *big.Int, perToken []*big.Int, err error)

	// EstimateBulkSwap dry-runs executeBulkSwap from the connected account.
	EstimateBulkSwap(ctx context.Context, params types.SwapParameters) (uint64, error)

	// ExecuteBulkSwap signs and submits executeBulkSwap and returns the
	// transaction hash as soon as the node accepts the submission.
	ExecuteBulkSwap(ctx context.Context, params types.SwapParameters) (common.Hash, error)
}
