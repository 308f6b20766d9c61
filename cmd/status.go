package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dustsweep/config"
	"dustsweep/pkg/history"
	"dustsweep/pkg/router"
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the confirmation status of a submitted sweep",
	Args:  cobra.ExactArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	txHash := args[0]
	if len(txHash) != 66 || txHash[:2] != "0x" {
		printError(fmt.Errorf("invalid transaction hash: %s", txHash))
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

	receipt, err := client.Receipt(ctx, common.HexToHash(txHash))
	if err != nil {
		printError(fmt.Errorf("failed to fetch receipt: %w", err))
		os.Exit(1)
	}

	switch {
	case receipt == nil:
		color.Yellow("\nTransaction %s is still pending.\n", txHash)
	case receipt.Status == gtypes.ReceiptStatusSuccessful:
		color.Green("\nTransaction %s confirmed in block %s (%d gas used).\n",
			txHash, receipt.BlockNumber, receipt.GasUsed)
		updateHistoryStatus(cfg, txHash, "confirmed")
	default:
		color.Red("\nTransaction %s reverted in block %s.\n", txHash, receipt.BlockNumber)
		updateHistoryStatus(cfg, txHash, "reverted")
	}
	fmt.Println()
}

// updateHistoryStatus is best-effort: the transaction may predate the
// history file or have been submitted elsewhere.
func updateHistoryStatus(cfg *config.Config, txHash, status string) {
	store, err := history.NewStorage(cfg.HistoryFile)
	if err != nil {
		return
	}
	_ = store.UpdateStatus(txHash, status)
}
