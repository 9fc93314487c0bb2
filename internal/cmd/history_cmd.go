package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/history"
)

var (
	historyLimit  int
	historySource string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show recorded prompts",
	GroupID: groupCore,
	Long: `Show the prompts confirmed in the picker, oldest first.

Prompts are recorded per source in the local SQLite database and can be
recalled in the picker with ctrl+p / ctrl+n.

Examples:
  sieve history                   # Show the last 20 prompts
  sieve history --limit=50        # Show the last 50 prompts
  sieve history --source=grep     # Only prompts of the grep source
  sieve history clear             # Forget every prompt`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded prompts",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historySource, "source", "s", "", "Only prompts of this source")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of prompts to show")
	historyCmd.AddCommand(historyClearCmd)
}

// openHistoryStore opens the history database if it exists.
func openHistoryStore() (*history.Store, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	path := cfg.HistoryPath(config.DefaultPaths())

	// Check if database exists
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, path, nil
	}
	store, err := history.Open(path, cfg.History.MaxEntries)
	if err != nil {
		return nil, path, err
	}
	return store, path, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, path, err := openHistoryStore()
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Printf("No history available. Database not found at: %s\n", path)
		return nil
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Query recent prompts
	entries, err := store.Recent(ctx, historySource, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}

	if len(entries) == 0 {
		if historySource != "" {
			fmt.Printf("No prompts recorded for source '%s'\n", historySource)
		} else {
			fmt.Println("No prompts recorded yet.")
		}
		return nil
	}

	// Recent returns newest first; print oldest at the top.
	for i := len(entries) - 1; i >= 0; i-- {
		printHistoryEntry(entries[i])
	}

	fmt.Println()
	fmt.Printf("%sShowing %d prompt(s)%s\n", colorDim, len(entries), colorReset)
	return nil
}

func printHistoryEntry(e history.Entry) {
	timestamp := e.At.Local().Format("2006-01-02 15:04:05")
	fmt.Printf("%s%s%s  %s%-8s%s  %s\n",
		colorDim, timestamp, colorReset,
		colorCyan, e.Source, colorReset,
		e.Prompt,
	)
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, _, err := openHistoryStore()
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Println("No history to clear.")
		return nil
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := store.Clear(ctx, historySource)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Printf("%sDeleted %d prompt(s)%s\n", colorGreen, n, colorReset)
	return nil
}
