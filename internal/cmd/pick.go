package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/log"
	"github.com/runger/sieve/internal/picker"
	"github.com/runger/sieve/internal/session"
	"github.com/runger/sieve/internal/tui"
)

var (
	pickSource string
	pickPrompt string
	pickResume bool
	pickMulti  bool
	pickHeight int
)

var pickCmd = &cobra.Command{
	Use:     "pick",
	Short:   "Pick candidates interactively",
	GroupID: groupCore,
	Long: `Open the interactive picker over a candidate source and print the
accepted entries to stdout, one per line.

The picker draws on /dev/tty, so its output can be captured:

  vim "$(sieve pick --source files)"

Keys:
  up/down, ctrl+k/ctrl+j   move the selection
  enter                    accept the selection
  esc, ctrl+c              cancel
  tab                      toggle the entry and move down (--multi)
  ctrl+a / ctrl+t          select all / toggle all (--multi)
  ctrl+p / ctrl+n          recall earlier prompts

Examples:
  sieve pick --source files
  sieve pick --source grep --prompt TODO
  git branch | sieve pick --source lines
  sieve pick --source files --resume   # Continue the last files search`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVarP(&pickSource, "source", "s", "files", "Candidate source to search")
	pickCmd.Flags().StringVarP(&pickPrompt, "prompt", "p", "", "Initial prompt")
	pickCmd.Flags().BoolVarP(&pickResume, "resume", "r", false, "Resume the last search of this source")
	pickCmd.Flags().BoolVarP(&pickMulti, "multi", "m", false, "Allow selecting several entries")
	pickCmd.Flags().IntVar(&pickHeight, "height", 0, "Maximum number of list rows (0 = fill the terminal)")
}

func runPick(cmd *cobra.Command, args []string) error {
	a, err := loadApp("pick")
	if err != nil {
		return err
	}
	defer a.close()

	def, err := lookupSource(a.cfg, pickSource)
	if err != nil {
		return err
	}

	store := a.openHistory()
	if store != nil {
		defer store.Close()
	}

	// Static sources read candidates from stdin unless it is the terminal.
	var stdin io.Reader
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		stdin = os.Stdin
	}

	p, err := newPicker(a, def, stdin, a.recorder(store, def.Name))
	if err != nil {
		return err
	}
	defer p.Close()

	sessions := loadSessions(a)
	if err := startPicker(p, sessions, def.Name); err != nil {
		return err
	}

	opts := tui.Options{Multi: pickMulti, Height: pickHeight, Placeholder: "search " + def.Name}
	if store != nil {
		cur, err := store.Cursor(context.Background(), def.Name)
		if err != nil {
			log.LogHistoryError(a.logger, "cursor", err)
		} else {
			opts.History = cur
		}
	}

	result, err := runTUI(tui.NewModel(p, opts))
	if err != nil {
		return err
	}

	saveSession(a, sessions, p)

	if result.Cancelled() {
		return ErrCancelled
	}
	printEntries(result.Result())
	return nil
}

// startPicker restores the last snapshot of source when resuming and applies
// the --prompt flag. Without either the model starts the first search.
func startPicker(p *picker.Picker, sessions *session.Store, source string) error {
	if pickResume && sessions != nil {
		if snap, ok := sessions.LastFor(source); ok {
			if pickPrompt != "" {
				snap.Prompt = pickPrompt
			}
			return p.Restore(snap)
		}
	}
	if pickPrompt != "" {
		return p.SetPrompt(pickPrompt)
	}
	return nil
}

// runTUI runs the model on /dev/tty; stdin and stdout carry data.
func runTUI(model tui.Model) (tui.Model, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return model, fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	// Stdout is usually a pipe, so detect colors from the terminal itself.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	prog := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)
	final, err := prog.Run()
	if err != nil {
		return model, fmt.Errorf("TUI error: %w", err)
	}
	m, ok := final.(tui.Model)
	if !ok {
		return model, fmt.Errorf("unexpected model type %T", final)
	}
	return m, nil
}

// loadSessions reads the saved snapshots. Failures only cost the resume
// feature and are logged.
func loadSessions(a *app) *session.Store {
	sessions, err := session.NewStore(a.cfg.Sessions.Max)
	if err != nil {
		a.logger.Warn("failed to create session store", "error", err)
		return nil
	}
	if err := sessions.ReadFile(a.paths.SessionsFile()); err != nil {
		a.logger.Warn("failed to read sessions", "path", a.paths.SessionsFile(), "error", err)
	}
	return sessions
}

// saveSession records p's state for --resume.
func saveSession(a *app, sessions *session.Store, p *picker.Picker) {
	if sessions == nil {
		return
	}
	snap := sessions.Save(p.Snapshot())
	if err := sessions.WriteFile(a.paths.SessionsFile()); err != nil {
		a.logger.Warn("failed to write sessions", "path", a.paths.SessionsFile(), "error", err)
		return
	}
	a.logger.Debug("session saved", "id", snap.ID, "source", snap.Source, "prompt", snap.Prompt)
}

// printEntries writes the ordinal of each entry on its own line.
func printEntries(entries []*entry.Entry) {
	for _, e := range entries {
		fmt.Println(e.Ordinal)
	}
}
