package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"dustsweep/pkg/types"
)

// fakeBackend scripts the chain surface and records the ordered call trace.
type fakeBackend struct {
	chainID      *big.Int
	code         []byte
	allowances   map[common.Address]*big.Int
	allowanceErr error
	submitErr    error
	waitErr      error
	quotes       map[common.Address]*big.Int
	bulkTotal    *big.Int
	bulkErr      error
	gas          uint64
	gasErr       error
	execHash     common.Hash
	execErr      error

	calls      []string
	approved   map[common.Address]*big.Int
	execParams *types.SwapParameters
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:    big.NewInt(1),
		code:       []byte{0x60, 0x80},
		allowances: map[common.Address]*big.Int{},
		quotes:     map[common.Address]*big.Int{},
		gas:        210000,
		execHash:   common.HexToHash("0xfeed"),
		approved:   map[common.Address]*big.Int{},
	}
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	f.calls = append(f.calls, "chainID")
	return f.chainID, nil
}

func (f *fakeBackend) RouterCode(ctx context.Context) ([]byte, error) {
	f.calls = append(f.calls, "routerCode")
	return f.code, nil
}

func (f *fakeBackend) Allowance(ctx context.Context, token common.Address) (*big.Int, error) {
	f.calls = append(f.calls, "allowance")
	if f.allowanceErr != nil {
		return nil, f.allowanceErr
	}
	if granted, ok := f.approved[token]; ok {
		return granted, nil
	}
	if a, ok := f.allowances[token]; ok {
		return a, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeBackend) SubmitApproval(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error) {
	f.calls = append(f.calls, "approve")
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	f.approved[token] = amount
	return common.HexToHash("0xa11ce"), nil
}

func (f *fakeBackend) WaitMined(ctx context.Context, tx common.Hash) error {
	f.calls = append(f.calls, "waitMined")
	return f.waitErr
}

func (f *fakeBackend) SwapQuote(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	f.calls = append(f.calls, "quote")
	if q, ok := f.quotes[token]; ok {
		return q, nil
	}
	return new(big.Int).Set(amountIn), nil
}

func (f *fakeBackend) BulkSwapQuote(ctx context.Context, tokens []common.Address, amounts []*big.Int) (*big.Int, []*big.Int, error) {
	f.calls = append(f.calls, "bulkQuote")
	if f.bulkErr != nil {
		return nil, nil, f.bulkErr
	}
	if f.bulkTotal != nil {
		return f.bulkTotal, amounts, nil
	}
	sum := new(big.Int)
	for _, a := range amounts {
		sum.Add(sum, a)
	}
	return sum, amounts, nil
}

func (f *fakeBackend) EstimateBulkSwap(ctx context.Context, params types.SwapParameters) (uint64, error) {
	f.calls = append(f.calls, "estimate")
	if f.gasErr != nil {
		return 0, f.gasErr
	}
	return f.gas, nil
}

func (f *fakeBackend) ExecuteBulkSwap(ctx context.Context, params types.SwapParameters) (common.Hash, error) {
	f.calls = append(f.calls, "execute")
	if f.execErr != nil {
		return common.Hash{}, f.execErr
	}
	f.execParams = &params
	return f.execHash, nil
}

func (f *fakeBackend) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) firstIndex(name string) int {
	for i, c := range f.calls {
		if c == name {
			return i
		}
	}
	return -1
}

// scriptConfirmer answers prompts from a fixed script, then denies.
type scriptConfirmer struct {
	answers []bool
	next    int
}

func (s *scriptConfirmer) Confirm(string) bool {
	if s.next >= len(s.answers) {
		return false
	}
	a := s.answers[s.next]
	s.next++
	return a
}

var testSettings = Settings{
	SlippageBps:    1000,
	AcceptedChains: []uint64{1, 11155111},
}

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func twoTokenSnapshot() []types.TokenRecord {
	return []types.TokenRecord{
		snapshotRecord(tokenA, "TKA", "1000000"),
		snapshotRecord(tokenB, "TKB", "2000000000000000000"),
	}
}

func TestPipelinePreApprovedFullFlow(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.allowances[tokenB] = huge
	backend.bulkTotal = big.NewInt(1000000)

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	run, err := orch.Run(context.Background(), []common.Address{tokenA, tokenB}, twoTokenSnapshot())
	require.NoError(t, err)

	// Both tokens already covered, no approval transactions.
	require.Equal(t, 0, backend.callCount("approve"))
	require.Equal(t, ApprovalSufficient, run.Approvals[0].State)
	require.Equal(t, ApprovalSufficient, run.Approvals[1].State)

	// Plan amounts are balance minus guard buffer, in selection order.
	require.Equal(t, big.NewInt(999000), run.Params.Amounts[0])
	expectedB, _ := new(big.Int).SetString("1999800000000000000", 10)
	require.Equal(t, expectedB, run.Params.Amounts[1])
	require.Equal(t, []common.Address{tokenA, tokenB}, run.Params.Addresses)

	// 10% slippage on the aggregate quote.
	require.Equal(t, big.NewInt(900000), run.Params.MinReceive)
	require.Equal(t, uint64(210000), run.GasLimit)
	require.Equal(t, backend.execHash, run.TxHash)

	// The swap got exactly the validated parameters.
	require.Equal(t, 1, backend.callCount("execute"))
	require.Equal(t, run.Params.MinReceive, backend.execParams.MinReceive)
	require.Equal(t, run.Params.Amounts, backend.execParams.Amounts)
}

func TestPipelineApprovesBeforeQuoting(t *testing.T) {
	backend := newFakeBackend()
	// tokenC has no allowance at all; the sequencer must fix that before
	// any quote is read.
	snapshot := []types.TokenRecord{snapshotRecord(tokenC, "TKC", "501000")}

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	run, err := orch.Run(context.Background(), []common.Address{tokenC}, snapshot)
	require.NoError(t, err)

	approveAt := backend.firstIndex("approve")
	quoteAt := backend.firstIndex("quote")
	require.GreaterOrEqual(t, approveAt, 0)
	require.GreaterOrEqual(t, quoteAt, 0)
	require.Less(t, approveAt, quoteAt)

	// 501,000 minus the 1000 guard floor, approved with the 0.1% buffer.
	required := big.NewInt(500000)
	require.Equal(t, ApprovalApproved, run.Approvals[0].State)
	require.Equal(t, required, run.Approvals[0].Required)
	require.Equal(t, bufferedApproval(required), backend.approved[tokenC])
}

func TestPipelineApprovalRejectionHaltsEverything(t *testing.T) {
	backend := newFakeBackend()

	orch := New(backend, AutoConfirm(false), nil, testSettings)
	run, err := orch.Run(context.Background(), []common.Address{tokenA, tokenB}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrApprovalRejected)

	require.Equal(t, ApprovalRejected, run.Approvals[0].State)
	require.Equal(t, 0, backend.callCount("approve"))
	require.Equal(t, 0, backend.callCount("quote"))
	require.Equal(t, 0, backend.callCount("bulkQuote"))
	require.Equal(t, 0, backend.callCount("estimate"))
	require.Equal(t, 0, backend.callCount("execute"))
}

func TestPipelineSwapRejectionHaltsExecution(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.allowances[tokenB] = huge

	// No approval prompts fire (everything sufficient); the only prompt is
	// the final swap confirmation.
	orch := New(backend, AutoConfirm(false), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA, tokenB}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrSwapRejected)

	// Gas was estimated but nothing was submitted.
	require.Equal(t, 1, backend.callCount("estimate"))
	require.Equal(t, 0, backend.callCount("execute"))
}

func TestPipelineDustTooSmallNeverExecutes(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.allowances[tokenB] = huge
	backend.quotes[tokenA] = big.NewInt(0)

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA, tokenB}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrDustTooSmall)

	require.Equal(t, 0, backend.callCount("estimate"))
	require.Equal(t, 0, backend.callCount("execute"))
}

func TestPipelineZeroAggregateQuote(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.bulkTotal = big.NewInt(0)

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrDustTooSmall)
	require.Equal(t, 0, backend.callCount("execute"))
}

func TestPipelineAllowanceReadFailureForcesApproval(t *testing.T) {
	backend := newFakeBackend()
	backend.allowanceErr = context.DeadlineExceeded
	snapshot := []types.TokenRecord{snapshotRecord(tokenA, "TKA", "1000000")}

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	run, err := orch.Run(context.Background(), []common.Address{tokenA}, snapshot)
	require.NoError(t, err)

	// Unreadable allowance is treated as zero, so an approval is issued
	// even though the on-chain value might have been sufficient.
	require.Equal(t, 1, backend.callCount("approve"))
	require.Equal(t, ApprovalApproved, run.Approvals[0].State)
}

func TestPipelineNetworkMismatch(t *testing.T) {
	backend := newFakeBackend()
	backend.chainID = big.NewInt(999)

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrNetworkMismatch)

	// Nothing touched a token.
	require.Equal(t, 0, backend.callCount("allowance"))
	require.Equal(t, 0, backend.callCount("approve"))
}

func TestPipelineRouterNotDeployed(t *testing.T) {
	backend := newFakeBackend()
	backend.code = nil

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrRouterNotDeployed)
	require.Equal(t, 0, backend.callCount("allowance"))
}

func TestPipelineGasEstimationFailure(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.gasErr = context.DeadlineExceeded

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrGasEstimation)
	require.Equal(t, 0, backend.callCount("execute"))
}

func TestPipelineDryRunStopsBeforeSwapPrompt(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge

	settings := testSettings
	settings.DryRun = true

	confirm := &scriptConfirmer{} // would deny any prompt
	orch := New(backend, confirm, nil, settings)
	run, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.NoError(t, err)

	require.Equal(t, 1, backend.callCount("estimate"))
	require.Equal(t, 0, backend.callCount("execute"))
	require.Equal(t, 0, confirm.next)
	require.Equal(t, common.Hash{}, run.TxHash)
}

func TestPipelineSwapSubmissionFailure(t *testing.T) {
	backend := newFakeBackend()
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	backend.allowances[tokenA] = huge
	backend.execErr = context.DeadlineExceeded

	orch := New(backend, AutoConfirm(true), nil, testSettings)
	_, err := orch.Run(context.Background(), []common.Address{tokenA}, twoTokenSnapshot())
	require.ErrorIs(t, err, ErrSwapReverted)
}
