package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dustsweep/config"
	"dustsweep/pkg/discovery"
	"dustsweep/pkg/engine"
	"dustsweep/pkg/history"
	"dustsweep/pkg/parser"
	"dustsweep/pkg/router"
	"dustsweep/pkg/types"
)

var (
	sweepYes         bool
	sweepDryRun      bool
	sweepSlippageBps int64
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <selection>",
	Short: "Consolidate selected dust balances into the target asset",
	Long: `Sweep runs the full consolidation pipeline for the selected tokens:
plan, approvals, quote validation, gas estimate, then one batched swap.

The selection is one of:
  all              every discovered dust balance
  top <n>          the n most valuable dust balances
  under <usd>      dust balances estimated below the given USD value
  <addr> [addr…]   explicit token addresses`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVarP(&sweepYes, "yes", "y", false, "Skip confirmation prompts")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Stop after the gas estimate, sign nothing")
	sweepCmd.Flags().Int64Var(&sweepSlippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default from config)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	selection, err := parser.ParseSelection(args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	log := newEventLogger(verbose)
	ctx := cmd.Context()

	client, err := router.Dial(ctx, cfg.RPCURL, cfg.RouterAddress, cfg.PrivateKey, log)
	if err != nil {
		printError(fmt.Errorf("failed to connect: %w", err))
		os.Exit(1)
	}
	defer client.Close()

	snapshot, err := collectSnapshot(ctx, client, cfg, selection, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(snapshot) == 0 {
		printSuccess("No dust balances found. Nothing to sweep.")
		return
	}

	selected, err := selection.Apply(snapshot)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(selected) == 0 {
		printSuccess("Selection matched no tokens. Nothing to sweep.")
		return
	}

	if !jsonOutput {
		printSweepPreview(snapshot, selected)
	}

	slippage := cfg.SlippageBps
	if sweepSlippageBps != 0 {
		slippage = sweepSlippageBps
	}

	var confirm engine.Confirmer = promptConfirmer{}
	if sweepYes || cfg.AutoConfirm {
		confirm = engine.AutoConfirm(true)
	}

	var reporter engine.Reporter = consoleReporter{}
	if jsonOutput {
		reporter = jsonReporter{log: log}
	}

	orch := engine.New(client, confirm, reporter, engine.Settings{
		SlippageBps:    slippage,
		MinGuardWei:    big.NewInt(cfg.MinGuardWei),
		AcceptedChains: cfg.AcceptedChains(),
		DryRun:         sweepDryRun,
	})

	run, err := orch.Run(ctx, selected, snapshot)
	if err != nil {
		printError(sweepFailure(err))
		os.Exit(1)
	}

	if sweepDryRun {
		printSuccess(fmt.Sprintf("Dry run complete: %d tokens, min receive %s, est. %d gas.",
			len(run.Plan.Entries), run.Params.MinReceive, run.GasLimit))
		return
	}

	recordSweep(cfg, run)

	if jsonOutput {
		log.Info().Str("tx", run.TxHash.Hex()).Msg("sweep submitted")
		return
	}
	printSuccess(fmt.Sprintf("Sweep submitted: %s", run.TxHash.Hex()))
	fmt.Printf("Check confirmation with: dustsweep status %s\n\n", run.TxHash.Hex())
}

// collectSnapshot scans either the configured candidate list or, for an
// explicit address selection, exactly those addresses.
func collectSnapshot(ctx context.Context, client *router.Client, cfg *config.Config, sel *parser.Selection, jsonOutput bool) ([]types.TokenRecord, error) {
	var sp *spinner.Spinner
	if !jsonOutput {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = " Scanning token balances..."
		sp.Start()
		defer sp.Stop()
	}

	svc := discovery.New(client, discovery.Config{
		Tokens:           parseTokenList(cfg.Tokens),
		DustUSDThreshold: cfg.DustUSDThreshold,
		TargetDecimals:   cfg.TargetDecimals,
		TargetUSDPrice:   cfg.TargetUSDPrice,
	})

	if len(sel.Addresses) > 0 {
		return svc.ScanAddresses(ctx, sel.Addresses)
	}

	records, err := svc.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Dust(records), nil
}

func parseTokenList(raw []string) []common.Address {
	addrs := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if common.IsHexAddress(s) {
			addrs = append(addrs, common.HexToAddress(s))
		}
	}
	return addrs
}

func printSweepPreview(snapshot []types.TokenRecord, selected []common.Address) {
	fmt.Println()
	color.Cyan("Sweeping %d token(s):", len(selected))
	for _, addr := range selected {
		for _, rec := range snapshot {
			if rec.SameAddress(addr) {
				fmt.Printf("  %-8s %-14s ~$%.2f\n", rec.Symbol, rec.Balance, rec.USDValue)
				break
			}
		}
	}
	fmt.Println()
}

// sweepFailure maps pipeline sentinels to messages with a next step.
func sweepFailure(err error) error {
	switch {
	case errors.Is(err, engine.ErrApprovalRejected), errors.Is(err, engine.ErrSwapRejected):
		return fmt.Errorf("cancelled: %v. No transaction was sent beyond already-confirmed approvals", err)
	case errors.Is(err, engine.ErrDustTooSmall):
		return fmt.Errorf("%v. Add more tokens to the selection or sweep later when balances grow", err)
	case errors.Is(err, engine.ErrNetworkMismatch):
		return fmt.Errorf("%v. Point DUSTSWEEP_RPC_URL at a supported network", err)
	default:
		return err
	}
}

func recordSweep(cfg *config.Config, run *engine.PipelineRun) {
	store, err := history.NewStorage(cfg.HistoryFile)
	if err != nil {
		color.Yellow("Warning: could not open history file: %v", err)
		return
	}

	rec := history.Record{
		TxHash:     run.TxHash.Hex(),
		MinReceive: run.Params.MinReceive.String(),
		Status:     "submitted",
	}
	for i, entry := range run.Plan.Entries {
		rec.Addresses = append(rec.Addresses, entry.Address.Hex())
		rec.Amounts = append(rec.Amounts, entry.Amount.String())
		rec.Symbols = append(rec.Symbols, run.Plan.Records[i].Symbol)
	}
	if err := store.Append(rec); err != nil {
		color.Yellow("Warning: could not record sweep: %v", err)
	}
}
