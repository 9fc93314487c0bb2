package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/execabs"

	"github.com/runger/sieve/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Short:   "List candidate sources",
	GroupID: groupSetup,
	Long: `List the configured candidate sources and whether their producer
programs are installed.

Sources are defined under "sources:" in the config file. When the file
defines none, the built-in files, grep and lines sources are used.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("%sSources%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))
	for _, def := range cfg.Sources {
		printSource(def)
	}
	return nil
}

func printSource(def config.SourceDef) {
	fmt.Printf("  %s%-10s%s %-8s %s\n", colorCyan, def.Name, colorReset, def.Kind, sourceStatus(def))
	if def.Command != "" {
		fmt.Printf("    %scommand:%s %s\n", colorDim, colorReset, def.Command)
	}
	for _, alt := range def.Alternatives {
		fmt.Printf("    %sfallback:%s %s\n", colorDim, colorReset, alt)
	}
}

// sourceStatus reports which producer program a source would run.
func sourceStatus(def config.SourceDef) string {
	if def.Kind == config.KindStatic {
		if len(def.Items) > 0 {
			return fmt.Sprintf("%d items", len(def.Items))
		}
		return "stdin"
	}
	program, ok := resolveProgram(def)
	if !ok {
		return colorRed + "not installed" + colorReset
	}
	return colorGreen + "uses " + program + colorReset
}

// resolveProgram returns the first installed program among the source's
// command alternatives.
func resolveProgram(def config.SourceDef) (string, bool) {
	cmds, err := def.Commands()
	if err != nil {
		return "", false
	}
	for _, argv := range cmds {
		if _, err := execabs.LookPath(argv[0]); err == nil {
			return argv[0], true
		}
	}
	return "", false
}
