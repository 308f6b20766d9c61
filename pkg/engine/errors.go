package engine

import "errors"

// Every stage failure is terminal for the run: the caller retries by
// starting a fresh run with a freshly built plan. Rejected is the one
// failure that must never be retried automatically.
var (
	// ErrTokenNotFound means a selected address has no record in the
	// snapshot; selection and snapshot referenced different generations.
	ErrTokenNotFound = errors.New("token not found in snapshot")

	// ErrInvalidBalance means the snapshot balance is zero, negative,
	// unparseable, or too small to clear the guard buffer.
	ErrInvalidBalance = errors.New("invalid token balance")

	// ErrArrayConsistency means the selection, resolved records, and
	// computed amounts fell out of positional alignment. Fatal: misaligned
	// arrays would approve or swap the wrong token/amount pair.
	ErrArrayConsistency = errors.New("plan arrays out of alignment")

	// ErrApprovalRejected means the user declined the signing prompt.
	// Terminal, never retried.
	ErrApprovalRejected = errors.New("approval rejected by user")

	// ErrApprovalFailed means an approval transaction was submitted but
	// errored or reverted. Terminal for this run, safe to retry in a new one.
	ErrApprovalFailed = errors.New("approval transaction failed")

	// ErrDustTooSmall means a per-token or aggregate quote resolved to
	// zero: the amount is below what the router can price.
	ErrDustTooSmall = errors.New("amount too small for router to quote")

	// ErrSwapRejected means the user declined the final swap signing
	// prompt. Terminal, never retried.
	ErrSwapRejected = errors.New("swap rejected by user")

	ErrGasEstimation     = errors.New("gas estimation failed")
	ErrSwapReverted      = errors.New("swap execution reverted")
	ErrNetworkMismatch   = errors.New("connected chain is not an accepted network")
	ErrRouterNotDeployed = errors.New("no contract code at router address")
)
