package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AllowanceChecker reads the router's current approved spend for a token.
type AllowanceChecker struct {
	backend  ChainBackend
	reporter Reporter
}

// NewAllowanceChecker wires a checker over the given backend.
func NewAllowanceChecker(backend ChainBackend, reporter Reporter) *AllowanceChecker {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &AllowanceChecker{backend: backend, reporter: reporter}
}

// Current returns the approved spend for (token, owner, router).
//
// A failed read returns zero instead of an error. This is deliberate: a
// read we cannot trust is treated as "no allowance", which at worst forces
// a redundant approval. The alternative, trusting a stale or absent value,
// risks an under-approved swap.
func (c *AllowanceChecker) Current(ctx context.Context, token common.Address, symbol string) *big.Int {
	allowance, err := c.backend.Allowance(ctx, token)
	if err != nil || allowance == nil {
		c.reporter.Event(StageEvent{
			Stage: StageAllowance, Status: EventFailed,
			Token: token, Symbol: symbol,
			Detail: "allowance read failed, treating as zero",
		})
		return big.NewInt(0)
	}
	return allowance
}
