package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dustsweep",
	Short: "A CLI for consolidating dust token balances through a bulk swap router",
	Long: `dustsweep liquidates many small ("dust") token balances into one target
asset through a single on-chain router contract. It discovers dust balances,
handles approvals, validates quotes, and submits one batched swap.

Examples:
  dustsweep list-tokens
  dustsweep sweep all
  dustsweep sweep under 2.50
  dustsweep sweep 0x6b17...1d0f 0xdac1...1ec7
  dustsweep status <tx-hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
