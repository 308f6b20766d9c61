package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dustsweep/config"
	"dustsweep/pkg/discovery"
	"dustsweep/pkg/router"
	"dustsweep/pkg/types"
)

var tokensShowAll bool

var tokensCmd = &cobra.Command{
	Use:   "list-tokens",
	Short: "List dust token balances held by the connected account",
	Run:   runListTokens,
}

func init() {
	tokensCmd.Flags().BoolVarP(&tokensShowAll, "all", "a", false, "Include balances above the dust threshold")
	rootCmd.AddCommand(tokensCmd)
}

func runListTokens(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	var sp *spinner.Spinner
	if !jsonOutput {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = " Scanning token balances..."
		sp.Start()
	}

	svc := discovery.New(client, discovery.Config{
		Tokens:           parseTokenList(cfg.Tokens),
		DustUSDThreshold: cfg.DustUSDThreshold,
		TargetDecimals:   cfg.TargetDecimals,
		TargetUSDPrice:   cfg.TargetUSDPrice,
	})

	records, err := svc.Scan(ctx)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !tokensShowAll {
		records = svc.Dust(records)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	if len(records) == 0 {
		printSuccess("No dust balances found.")
		return
	}

	printTokenTable(records, cfg.DustUSDThreshold)
}

func printTokenTable(records []types.TokenRecord, threshold float64) {
	fmt.Println()
	color.Cyan("%-8s %-44s %-20s %10s", "SYMBOL", "ADDRESS", "BALANCE", "EST. USD")
	fmt.Println("----------------------------------------------------------------------------------------")
	for _, rec := range records {
		line := fmt.Sprintf("%-8s %-44s %-20s %10.2f", rec.Symbol, rec.Address.Hex(), rec.Balance, rec.USDValue)
		if rec.USDValue < threshold {
			fmt.Println(line)
		} else {
			color.New(color.Faint).Println(line)
		}
	}
	fmt.Printf("\n%d token(s). Sweep them with: dustsweep sweep all\n\n", len(records))
}
