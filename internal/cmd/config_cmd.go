package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/score"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set sieve configuration values.

Without arguments, lists all keys grouped by section, followed by the
configured sources with the scorer and format each one ranks with.
With one argument, shows the value of that key. "sources.<name>" prints
the definition of a source.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/sieve/config.yaml (XDG compliant).
Sources are edited in that file directly.

Keys are in the format: section.key
Sections: log, picker, history, sessions

Examples:
  sieve config                        # List all keys and sources
  sieve config picker.scorer          # Get the default scorer
  sieve config picker.scorer substring
  sieve config sources.grep           # Show the grep source
  sieve config history.enabled false  # Stop recording prompts`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// sourcesPrefix addresses source definitions in config keys.
const sourcesPrefix = "sources."

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch len(args) {
	case 0:
		return printConfig(cfg, paths)
	case 1:
		return printConfigKey(cfg, args[0])
	default:
		return updateConfig(cfg, paths, args[0], args[1])
	}
}

// printConfig lists the keys section by section, marking values that differ
// from the defaults, then the sources.
func printConfig(cfg *config.Config, paths *config.Paths) error {
	defaults := config.DefaultConfig()

	fmt.Printf("%sConfiguration%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))

	section := ""
	for _, key := range config.ListKeys() {
		// Section header on change
		if s, _, _ := strings.Cut(key, "."); s != section {
			section = s
			fmt.Printf("\n%s%s%s\n", colorBold, section, colorReset)
		}

		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		def, _ := defaults.Get(key)

		shown := value
		if shown == "" {
			shown = colorDim + "(not set)" + colorReset
		}
		line := fmt.Sprintf("  %s%s%s = %s", colorCyan, key, colorReset, shown)
		if value != def {
			line += fmt.Sprintf(" %s(default: %s)%s", colorDim, displayDefault(def), colorReset)
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%ssources%s\n", colorBold, colorReset)
	for _, def := range cfg.Sources {
		format := def.Format
		if format == "" {
			format = "line"
		}
		fmt.Printf("  %s%-10s%s %-8s scorer=%s format=%s  %s\n",
			colorCyan, def.Name, colorReset, def.Kind,
			scorerName(def, cfg.Picker), format, sourceStatus(def))
	}

	fmt.Println()
	fmt.Printf("Config file: %s\n", paths.ConfigFile())
	return nil
}

func displayDefault(v string) string {
	if v == "" {
		return "not set"
	}
	return v
}

// printConfigKey prints one key, or a source definition as YAML.
func printConfigKey(cfg *config.Config, key string) error {
	if name, ok := strings.CutPrefix(key, sourcesPrefix); ok {
		def, err := lookupSource(cfg, name)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(def)
		if err != nil {
			return fmt.Errorf("failed to marshal source: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		fmt.Printf("%s(not set)%s\n", colorDim, colorReset)
		return nil
	}
	fmt.Println(value)
	return nil
}

// updateConfig sets key, checks that every source still ranks and parses
// with the result, and saves the file.
func updateConfig(cfg *config.Config, paths *config.Paths, key, value string) error {
	if strings.HasPrefix(key, sourcesPrefix) {
		return fmt.Errorf("sources are edited in %s", paths.ConfigFile())
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := checkSources(cfg); err != nil {
		return err
	}

	// Ensure directories exist before saving
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return err
	}

	fmt.Printf("%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Printf("Saved to: %s\n", paths.ConfigFile())
	return nil
}

// checkSources resolves the scorer and entry format of every source.
func checkSources(cfg *config.Config) error {
	for _, def := range cfg.Sources {
		name := scorerName(def, cfg.Picker)
		if _, ok := score.ByName(name); !ok {
			return fmt.Errorf("source %s: unknown scorer %q", def.Name, name)
		}
		if _, ok := entry.MakerByName(def.Format, ""); !ok {
			return fmt.Errorf("source %s: unknown format %q", def.Name, def.Format)
		}
	}
	return nil
}
