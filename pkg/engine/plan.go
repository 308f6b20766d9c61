package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"dustsweep/pkg/types"
)

// DefaultMinGuardWei is the floor of the guard buffer in smallest units.
const DefaultMinGuardWei = 1000

// PlanBuilder turns a selection plus a balance snapshot into the ordered
// (token, amount) sequence that every later stage consumes. The ordered
// entries are the single source of truth: entries[i] must line up with
// selection[i] and with the resolved record for that index.
type PlanBuilder struct {
	// MinGuardWei is the minimum guard buffer subtracted from each balance.
	MinGuardWei *big.Int
}

// SwapPlan pairs the ordered entries with the records they were derived
// from, index-aligned.
type SwapPlan struct {
	Entries []types.SwapPlanEntry
	Records []types.TokenRecord
}

// Build resolves each selected address against the snapshot and computes
// its spend amount. Building is deterministic: the same selection and
// snapshot always yield the same entries.
//
// The spend amount is balance minus a guard buffer of
// max(balance/10000, MinGuardWei), tolerating small downward balance drift
// (rounding, rebasing, fee-on-transfer) between snapshot and submission.
func (b PlanBuilder) Build(selection []common.Address, snapshot []types.TokenRecord) (*SwapPlan, error) {
	minGuard := b.MinGuardWei
	if minGuard == nil {
		minGuard = big.NewInt(DefaultMinGuardWei)
	}

	plan := &SwapPlan{
		Entries: make([]types.SwapPlanEntry, 0, len(selection)),
		Records: make([]types.TokenRecord, 0, len(selection)),
	}

	for _, addr := range selection {
		rec, ok := findRecord(snapshot, addr)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, addr.Hex())
		}

		balance, ok := new(big.Int).SetString(strings.TrimSpace(rec.Balance), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %s balance %q is not a decimal integer", ErrInvalidBalance, rec.Symbol, rec.Balance)
		}
		if balance.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s balance is %s", ErrInvalidBalance, rec.Symbol, balance)
		}

		amount := new(big.Int).Sub(balance, guardBuffer(balance, minGuard))
		if amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: %s balance %s does not clear the guard buffer", ErrInvalidBalance, rec.Symbol, balance)
		}

		plan.Entries = append(plan.Entries, types.SwapPlanEntry{Address: rec.Address, Amount: amount})
		plan.Records = append(plan.Records, rec)
	}

	if err := plan.CheckConsistency(selection); err != nil {
		return nil, err
	}
	return plan, nil
}

// guardBuffer returns max(balance/10000, minGuard).
func guardBuffer(balance, minGuard *big.Int) *big.Int {
	buf := new(big.Int).Div(balance, big.NewInt(10000))
	if buf.Cmp(minGuard) < 0 {
		return new(big.Int).Set(minGuard)
	}
	return buf
}

// CheckConsistency re-validates positional alignment across the selection,
// the resolved records, and the computed amounts. Any mismatch is fatal:
// nothing may be sent on-chain from a misaligned plan.
func (p *SwapPlan) CheckConsistency(selection []common.Address) error {
	if len(p.Entries) != len(selection) || len(p.Records) != len(selection) {
		return fmt.Errorf("%w: %d selected, %d entries, %d records",
			ErrArrayConsistency, len(selection), len(p.Entries), len(p.Records))
	}
	for i := range p.Entries {
		if !strings.EqualFold(p.Entries[i].Address.Hex(), selection[i].Hex()) {
			return fmt.Errorf("%w: entry %d is %s, selection is %s",
				ErrArrayConsistency, i, p.Entries[i].Address.Hex(), selection[i].Hex())
		}
		if !p.Records[i].SameAddress(p.Entries[i].Address) {
			return fmt.Errorf("%w: entry %d is %s, record is %s",
				ErrArrayConsistency, i, p.Entries[i].Address.Hex(), p.Records[i].Address.Hex())
		}
		if p.Entries[i].Amount == nil || p.Entries[i].Amount.Sign() <= 0 {
			return fmt.Errorf("%w: entry %d has non-positive amount", ErrArrayConsistency, i)
		}
	}
	return nil
}

// Addresses returns the ordered token addresses of the plan.
func (p *SwapPlan) Addresses() []common.Address {
	out := make([]common.Address, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Address
	}
	return out
}

// Amounts returns the ordered spend amounts of the plan.
func (p *SwapPlan) Amounts() []*big.Int {
	out := make([]*big.Int, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Amount
	}
	return out
}

func findRecord(snapshot []types.TokenRecord, addr common.Address) (types.TokenRecord, bool) {
	for _, rec := range snapshot {
		if rec.SameAddress(addr) {
			return rec, true
		}
	}
	return types.TokenRecord{}, false
}
