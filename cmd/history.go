package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dustsweep/config"
	"dustsweep/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sweep submissions",
	Run:   runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	store, err := history.NewStorage(cfg.HistoryFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	records := store.List()

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
		printSuccess("No sweeps recorded yet.")
		return
	}

	fmt.Println()
	color.Cyan("%-20s %-12s %-24s %s", "TIME", "STATUS", "TOKENS", "TX HASH")
	fmt.Println("--------------------------------------------------------------------------------------------")
	for _, rec := range records {
		fmt.Printf("%-20s %-12s %-24s %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Status,
			truncate(strings.Join(rec.Symbols, ","), 24),
			rec.TxHash)
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
