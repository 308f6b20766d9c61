package engine

import (
	"fmt"
	"math/big"
)

// Slippage protection in integer basis points; no floats anywhere near
// chain-sized integers.
const (
	DefaultSlippageBps = 1000 // 10%

	// Bounds for min-receive derived from an externally supplied output
	// estimate: never above 90% of the estimate, never below 70%.
	clampCeilingBps = 9000
	clampFloorBps   = 7000
)

// MinReceive computes aggregate*(10000-slippageBps)/10000 and enforces
// 0 < minReceive < aggregate. Amounts too small to leave a positive
// minimum after slippage fail with ErrDustTooSmall.
func MinReceive(aggregate *big.Int, slippageBps int64) (*big.Int, error) {
	if slippageBps <= 0 || slippageBps >= 10000 {
		return nil, fmt.Errorf("slippage %d bps out of range (0, 10000)", slippageBps)
	}
	if aggregate == nil || aggregate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: aggregate quote must be positive", ErrDustTooSmall)
	}

	min := new(big.Int).Mul(aggregate, big.NewInt(10000-slippageBps))
	min.Div(min, big.NewInt(10000))
	if min.Sign() <= 0 {
		return nil, fmt.Errorf("%w: aggregate %s leaves no slippage-protected minimum", ErrDustTooSmall, aggregate)
	}
	if min.Cmp(aggregate) >= 0 {
		return nil, fmt.Errorf("min receive %s not below aggregate %s", min, aggregate)
	}
	return min, nil
}

// MinReceiveFromEstimate derives a minimum from an externally estimated
// output figure. The result is clamped so that minReceive/estimate stays
// within [70%, 90%]: never exceeding the estimate, never so low that
// slippage protection is defeated.
func MinReceiveFromEstimate(estimate *big.Int, slippageBps int64) (*big.Int, error) {
	min, err := MinReceive(estimate, slippageBps)
	if err != nil {
		return nil, err
	}

	ceiling := bpsOf(estimate, clampCeilingBps)
	floor := bpsOf(estimate, clampFloorBps)
	if min.Cmp(ceiling) > 0 {
		min = ceiling
	}
	if min.Cmp(floor) < 0 {
		min = floor
	}
	if min.Sign() <= 0 {
		return nil, fmt.Errorf("%w: estimate %s leaves no protected minimum", ErrDustTooSmall, estimate)
	}
	return min, nil
}

func bpsOf(v *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(bps))
	return out.Div(out, big.NewInt(10000))
}
