package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dustsweep/pkg/types"
)

// Settings are the knobs of one orchestrator instance.
type Settings struct {
	// SlippageBps is the slippage tolerance in basis points.
	SlippageBps int64
	// MinGuardWei is the guard buffer floor for the plan builder.
	MinGuardWei *big.Int
	// AcceptedChains are the chain identifiers the pipeline may run on:
	// one production network and one test network.
	AcceptedChains []uint64
	// DryRun stops the pipeline after the gas estimate, before any swap
	// signing prompt.
	DryRun bool
}

// PipelineRun owns all state of a single user-initiated sweep attempt. It
// is created on submit and discarded at the terminal state; a retry builds
// a fresh run from current balances, never reuses this one.
type PipelineRun struct {
	Selection []common.Address
	Plan      *SwapPlan
	Approvals []TokenApproval
	Quotes    *QuoteResult
	Params    *types.SwapParameters
	GasLimit  uint64
	TxHash    common.Hash
}

// Orchestrator composes the pipeline stages end to end:
// plan → allowances/approvals → quotes → min receive → gas estimate →
// execute. All stages run sequentially in that order; every network call
// suspends the single control flow, and no stage ever retries — the first
// failure is terminal for the run.
type Orchestrator struct {
	backend  ChainBackend
	confirm  Confirmer
	reporter Reporter
	settings Settings
}

// New builds an orchestrator. A nil reporter discards events.
func New(backend ChainBackend, confirm Confirmer, reporter Reporter, settings Settings) *Orchestrator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if settings.SlippageBps == 0 {
		settings.SlippageBps = DefaultSlippageBps
	}
	return &Orchestrator{
		backend:  backend,
		confirm:  confirm,
		reporter: reporter,
		settings: settings,
	}
}

// Run executes the full pipeline for one selection against one snapshot.
// The returned PipelineRun carries whatever state was reached; on error it
// is returned alongside the error for inspection and then discarded.
func (o *Orchestrator) Run(ctx context.Context, selection []common.Address, snapshot []types.TokenRecord) (*PipelineRun, error) {
	run := &PipelineRun{Selection: selection}

	// Network checks come first: no token interaction on a wrong chain or
	// against an address with no code behind it.
	if err := o.verifyNetwork(ctx); err != nil {
		o.fail(StageNetwork, err)
		return run, err
	}
	o.reporter.Event(StageEvent{Stage: StageNetwork, Status: EventOK})

	builder := PlanBuilder{MinGuardWei: o.settings.MinGuardWei}
	plan, err := builder.Build(selection, snapshot)
	if err != nil {
		o.fail(StagePlan, err)
		return run, err
	}
	run.Plan = plan
	o.reporter.Event(StageEvent{
		Stage: StagePlan, Status: EventOK,
		Detail: fmt.Sprintf("%d tokens", len(plan.Entries)),
	})

	sequencer := NewApprovalSequencer(o.backend, o.confirm, o.reporter)
	run.Approvals, err = sequencer.Run(ctx, plan)
	if err != nil {
		return run, err
	}

	validator := NewQuoteValidator(o.backend, o.reporter)
	run.Quotes, err = validator.Validate(ctx, plan)
	if err != nil {
		o.fail(StageQuote, err)
		return run, err
	}
	o.reporter.Event(StageEvent{
		Stage: StageQuote, Status: EventOK,
		Detail: fmt.Sprintf("aggregate %s", run.Quotes.Total),
	})

	minReceive, err := MinReceive(run.Quotes.Total, o.settings.SlippageBps)
	if err != nil {
		o.fail(StageMinReceive, err)
		return run, err
	}
	run.Params = &types.SwapParameters{
		Addresses:  plan.Addresses(),
		Amounts:    plan.Amounts(),
		MinReceive: minReceive,
	}
	o.reporter.Event(StageEvent{
		Stage: StageMinReceive, Status: EventOK,
		Detail: minReceive.String(),
	})

	// Dry-run the batched call before ever prompting for a swap signature;
	// a transaction known to fail should never reach the wallet.
	run.GasLimit, err = o.backend.EstimateBulkSwap(ctx, *run.Params)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrGasEstimation, DecodeRPCError(err))
		o.fail(StageGas, wrapped)
		return run, wrapped
	}
	o.reporter.Event(StageEvent{
		Stage: StageGas, Status: EventOK,
		Detail: fmt.Sprintf("%d gas", run.GasLimit),
	})

	if o.settings.DryRun {
		o.reporter.Event(StageEvent{Stage: StageExecute, Status: EventSkipped, Detail: "dry run"})
		return run, nil
	}

	o.reporter.Event(StageEvent{Stage: StageExecute, Status: EventWaiting, Detail: "awaiting swap confirmation"})
	if !o.confirm.Confirm(fmt.Sprintf("Sweep %d tokens for a minimum of %s target units?", len(plan.Entries), minReceive)) {
		o.fail(StageExecute, ErrSwapRejected)
		return run, ErrSwapRejected
	}

	// Submission is asynchronous: the run succeeds once the node accepts
	// the transaction. Receipt confirmation is observed separately.
	run.TxHash, err = o.backend.ExecuteBulkSwap(ctx, *run.Params)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrSwapReverted, DecodeRPCError(err))
		o.fail(StageExecute, wrapped)
		return run, wrapped
	}
	o.reporter.Event(StageEvent{
		Stage: StageExecute, Status: EventOK,
		Detail: run.TxHash.Hex(),
	})
	return run, nil
}

func (o *Orchestrator) verifyNetwork(ctx context.Context) error {
	chainID, err := o.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkMismatch, err)
	}
	accepted := false
	for _, id := range o.settings.AcceptedChains {
		if chainID.IsUint64() && chainID.Uint64() == id {
			accepted = true
			break
		}
	}
	if !accepted {
		return fmt.Errorf("%w: chain %s", ErrNetworkMismatch, chainID)
	}

	code, err := o.backend.RouterCode(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRouterNotDeployed, err)
	}
	if len(code) == 0 {
		return ErrRouterNotDeployed
	}
	return nil
}

func (o *Orchestrator) fail(stage Stage, err error) {
	o.reporter.Event(StageEvent{Stage: stage, Status: EventFailed, Detail: err.Error()})
}
