package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ApprovalState tracks one token through the approval state machine.
// Created when the plan is built, mutated only by the sequencer, discarded
// with the run.
type ApprovalState string

const (
	ApprovalSufficient    ApprovalState = "sufficient"
	ApprovalPending       ApprovalState = "pending"
	ApprovalWalletConfirm ApprovalState = "wallet_confirm_pending"
	ApprovalOnChain       ApprovalState = "onchain_confirming"
	ApprovalApproved      ApprovalState = "approved"
	ApprovalRejected      ApprovalState = "rejected"
	ApprovalFailed        ApprovalState = "failed"
)

// TokenApproval is the per-token approval outcome for one pipeline run.
type TokenApproval struct {
	Token    common.Address
	Symbol   string
	State    ApprovalState
	Required *big.Int
	Granted  *big.Int // buffered amount actually approved, nil if none issued
	TxHash   common.Hash
}

// ApprovalSequencer drives approvals for every plan entry whose current
// allowance is below its required amount.
//
// Approvals run strictly sequentially, one token at a time: concurrent
// submissions from the same signing key risk nonce collisions and
// out-of-order confirmation. Receipt acceptance is taken as sufficient
// evidence of success; the exact on-chain value is not re-read afterwards.
type ApprovalSequencer struct {
	backend  ChainBackend
	checker  *AllowanceChecker
	confirm  Confirmer
	reporter Reporter
}

// NewApprovalSequencer wires a sequencer over the given backend.
func NewApprovalSequencer(backend ChainBackend, confirm Confirmer, reporter Reporter) *ApprovalSequencer {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &ApprovalSequencer{
		backend:  backend,
		checker:  NewAllowanceChecker(backend, reporter),
		confirm:  confirm,
		reporter: reporter,
	}
}

// bufferedApproval returns required*1001/1000: a 0.1% margin absorbing the
// same balance drift the plan builder's guard buffer protects against.
// Integer arithmetic only; floats lose precision on token-sized amounts.
func bufferedApproval(required *big.Int) *big.Int {
	buffered := new(big.Int).Mul(required, big.NewInt(1001))
	return buffered.Div(buffered, big.NewInt(1000))
}

// Run processes the plan in order and returns the per-token states. The
// first Rejected or Failed token aborts the run; earlier approvals stay
// on-chain and are found Sufficient by the next run.
func (s *ApprovalSequencer) Run(ctx context.Context, plan *SwapPlan) ([]TokenApproval, error) {
	approvals := make([]TokenApproval, len(plan.Entries))
	for i, entry := range plan.Entries {
		approvals[i] = TokenApproval{
			Token:    entry.Address,
			Symbol:   plan.Records[i].Symbol,
			Required: entry.Amount,
		}
	}

	for i := range approvals {
		a := &approvals[i]

		// Guard immediately before submission: a token whose allowance is
		// already sufficient is never approved again, even if it shows up
		// later in the run.
		current := s.checker.Current(ctx, a.Token, a.Symbol)
		if current.Cmp(a.Required) >= 0 {
			a.State = ApprovalSufficient
			s.reporter.Event(StageEvent{
				Stage: StageApproval, Status: EventSkipped,
				Token: a.Token, Symbol: a.Symbol,
				Detail: "allowance already sufficient",
			})
			continue
		}

		a.State = ApprovalPending
		buffered := bufferedApproval(a.Required)

		a.State = ApprovalWalletConfirm
		s.reporter.Event(StageEvent{
			Stage: StageApproval, Status: EventWaiting,
			Token: a.Token, Symbol: a.Symbol,
			Detail: fmt.Sprintf("approve spend of %s", buffered),
		})
		if !s.confirm.Confirm(fmt.Sprintf("Approve router to spend %s %s?", buffered, a.Symbol)) {
			a.State = ApprovalRejected
			s.reporter.Event(StageEvent{
				Stage: StageApproval, Status: EventFailed,
				Token: a.Token, Symbol: a.Symbol, Detail: "rejected by user",
			})
			return approvals, fmt.Errorf("%w: %s", ErrApprovalRejected, a.Symbol)
		}

		txHash, err := s.backend.SubmitApproval(ctx, a.Token, buffered)
		if err != nil {
			a.State = ApprovalFailed
			s.reporter.Event(StageEvent{
				Stage: StageApproval, Status: EventFailed,
				Token: a.Token, Symbol: a.Symbol, Detail: DecodeRPCError(err),
			})
			return approvals, fmt.Errorf("%w: %s: %s", ErrApprovalFailed, a.Symbol, DecodeRPCError(err))
		}
		a.TxHash = txHash
		a.State = ApprovalOnChain

		if err := s.backend.WaitMined(ctx, txHash); err != nil {
			a.State = ApprovalFailed
			s.reporter.Event(StageEvent{
				Stage: StageApproval, Status: EventFailed,
				Token: a.Token, Symbol: a.Symbol, Detail: DecodeRPCError(err),
			})
			return approvals, fmt.Errorf("%w: %s: %s", ErrApprovalFailed, a.Symbol, DecodeRPCError(err))
		}

		a.State = ApprovalApproved
		a.Granted = buffered
		s.reporter.Event(StageEvent{
			Stage: StageApproval, Status: EventOK,
			Token: a.Token, Symbol: a.Symbol,
			Detail: fmt.Sprintf("approved %s, tx %s", buffered, txHash.Hex()),
		})
	}

	return approvals, nil
}
