package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "List searches that can be resumed",
	GroupID: groupCore,
	Long: `List the saved picker searches, most recent first.

Every picker run saves its prompt and selection. Resume the last search
of a source with 'sieve pick --source NAME --resume'.`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every saved search",
	Args:  cobra.NoArgs,
	RunE:  runSessionsClear,
}

func init() {
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := session.NewStore(cfg.Sessions.Max)
	if err != nil {
		return err
	}
	if err := store.ReadFile(config.DefaultPaths().SessionsFile()); err != nil {
		return err
	}

	snaps := store.Recent()
	if len(snaps) == 0 {
		fmt.Println("No saved searches.")
		return nil
	}
	for _, s := range snaps {
		printSnapshot(s)
	}
	return nil
}

func printSnapshot(s session.Snapshot) {
	prompt := s.Prompt
	if prompt == "" {
		prompt = colorDim + "(empty prompt)" + colorReset
	}
	fmt.Printf("%s%s%s  %s%-8s%s  %s", colorDim, s.Saved.Local().Format("2006-01-02 15:04:05"), colorReset,
		colorCyan, s.Source, colorReset, prompt)
	if n := len(s.MultiSelection); n > 0 {
		fmt.Printf("  %s(%d selected)%s", colorYellow, n, colorReset)
	}
	fmt.Println()
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	path := config.DefaultPaths().SessionsFile()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	fmt.Println("Saved searches cleared.")
	return nil
}
