package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/log"
)

var (
	filterSource  string
	filterPrompt  string
	filterLimit   int
	filterScores  bool
	filterTimeout time.Duration
)

var filterCmd = &cobra.Command{
	Use:     "filter [prompt]",
	Short:   "Rank candidates without the interactive picker",
	GroupID: groupCore,
	Long: `Run a single search and print the ranked entries, best first.

The prompt is taken from the argument or --prompt. Static sources read
their candidates from stdin.

Examples:
  ls | sieve filter mod             # Rank stdin lines against "mod"
  sieve filter --source files main  # Rank files
  sieve filter -s grep TODO -n 5    # First five grep matches
  sieve filter --scores app         # Prefix each entry with its score`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterSource, "source", "s", "lines", "Candidate source to search")
	filterCmd.Flags().StringVarP(&filterPrompt, "prompt", "p", "", "Prompt to rank against")
	filterCmd.Flags().IntVarP(&filterLimit, "limit", "n", 0, "Maximum number of entries to print (0 = all)")
	filterCmd.Flags().BoolVar(&filterScores, "scores", false, "Print the score before each entry")
	filterCmd.Flags().DurationVar(&filterTimeout, "timeout", 30*time.Second, "Give up when the search takes longer")
}

func runFilter(cmd *cobra.Command, args []string) error {
	prompt := filterPrompt
	if len(args) > 0 {
		prompt = args[0]
	}

	a, err := loadApp("filter")
	if err != nil {
		return err
	}
	defer a.close()

	def, err := lookupSource(a.cfg, filterSource)
	if err != nil {
		return err
	}

	p, err := newPicker(a, def, candidateInput(cmd.InOrStdin()), nil)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), filterTimeout)
	defer cancel()

	if err := p.SetPrompt(prompt); err != nil {
		return err
	}
	if err := p.Settle(ctx); err != nil {
		return fmt.Errorf("search did not finish: %w", err)
	}
	if err := p.Err(); err != nil {
		log.LogSearchFailed(a.logger, def.Name, err)
		return err
	}

	stats := p.Stats()
	a.logger.Debug("filter finished",
		"source", def.Name,
		"received", stats.Received,
		"considered", stats.Considered,
		"results", stats.Results,
		"exit_code", stats.ExitCode,
	)

	writeRanked(cmd.OutOrStdout(), p.Manager().Entries(), filterLimit, filterScores)
	return nil
}

// candidateInput returns r unless it is an interactive terminal.
func candidateInput(r io.Reader) io.Reader {
	if f, ok := r.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return r
}

// writeRanked prints up to limit entries (all when limit <= 0).
func writeRanked(w io.Writer, entries []*entry.Entry, limit int, scores bool) {
	for i, e := range entries {
		if limit > 0 && i >= limit {
			return
		}
		if scores {
			fmt.Fprintf(w, "%.4f\t%s\n", e.Score, e.Ordinal)
			continue
		}
		fmt.Fprintln(w, e.Ordinal)
	}
}
