package engine

import (
	"context"
	"fmt"
	"math/big"
)

// QuoteResult holds the router's output estimates for one pipeline run.
// Total comes from the aggregate quote and is the authoritative figure;
// PerToken values are for display and sanity checks only — the router's
// aggregate pricing can differ from the sum of independent quotes, so the
// per-token values are never summed and substituted for Total.
type QuoteResult struct {
	PerToken []*big.Int
	Total    *big.Int
}

// QuoteValidator reads per-token and aggregate output estimates for a plan.
type QuoteValidator struct {
	backend  ChainBackend
	reporter Reporter
}

// NewQuoteValidator wires a validator over the given backend.
func NewQuoteValidator(backend ChainBackend, reporter Reporter) *QuoteValidator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &QuoteValidator{backend: backend, reporter: reporter}
}

// Validate queries one quote per token plus the aggregate quote for the
// whole plan. A zero anywhere means the amount is below what the router
// can price: proceeding would revert on-chain or emit nothing, so the run
// fails with ErrDustTooSmall.
func (v *QuoteValidator) Validate(ctx context.Context, plan *SwapPlan) (*QuoteResult, error) {
	result := &QuoteResult{PerToken: make([]*big.Int, len(plan.Entries))}

	for i, entry := range plan.Entries {
		symbol := plan.Records[i].Symbol
		quote, err := v.backend.SwapQuote(ctx, entry.Address, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %s", symbol, DecodeRPCError(err))
		}
		if quote == nil || quote.Sign() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrDustTooSmall, symbol)
		}
		result.PerToken[i] = quote
		v.reporter.Event(StageEvent{
			Stage: StageQuote, Status: EventOK,
			Token: entry.Address, Symbol: symbol,
			Detail: quote.String(),
		})
	}

	total, _, err := v.backend.BulkSwapQuote(ctx, plan.Addresses(), plan.Amounts())
	if err != nil {
		return nil, fmt.Errorf("aggregate quote: %s", DecodeRPCError(err))
	}
	if total == nil || total.Sign() == 0 {
		return nil, fmt.Errorf("%w: aggregate quote is zero", ErrDustTooSmall)
	}
	result.Total = total
	return result, nil
}

// Sum is the display-only sum of the per-token quotes.
func (q *QuoteResult) Sum() *big.Int {
	sum := new(big.Int)
	for _, v := range q.PerToken {
		if v != nil {
			sum.Add(sum, v)
		}
	}
	return sum
}
