package engine

import "github.com/ethereum/go-ethereum/common"

// Stage identifies a pipeline stage in emitted events.
type Stage string

const (
	StageNetwork    Stage = "network"
	StagePlan       Stage = "plan"
	StageAllowance  Stage = "allowance"
	StageApproval   Stage = "approval"
	StageQuote      Stage = "quote"
	StageMinReceive Stage = "min_receive"
	StageGas        Stage = "gas_estimate"
	StageExecute    Stage = "execute"
)

// EventStatus is the status carried by a stage event.
type EventStatus string

const (
	EventStarted EventStatus = "started"
	EventWaiting EventStatus = "waiting" // blocked on user interaction
	EventOK      EventStatus = "ok"
	EventSkipped EventStatus = "skipped"
	EventFailed  EventStatus = "failed"
)

// StageEvent is one observability record emitted by the pipeline. The
// engine emits structure only; rendering belongs to the Reporter.
type StageEvent struct {
	Stage  Stage
	Status EventStatus
	Token  common.Address // zero unless the event is token-scoped
	Symbol string
	Detail string
}

// Reporter consumes pipeline stage events.
type Reporter interface {
	Event(e StageEvent)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Event(StageEvent) {}

// Confirmer asks the user to approve a transaction before it is signed
// and submitted. Returning false is a terminal rejection, never retried.
type Confirmer interface {
	Confirm(prompt string) bool
}

// AutoConfirm answers every prompt with a fixed response (--yes flag,
// tests).
type AutoConfirm bool

func (a AutoConfirm) Confirm(string) bool { return bool(a) }
