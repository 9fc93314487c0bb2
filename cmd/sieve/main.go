// Package main is the entry point for the sieve CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runger/sieve/internal/cmd"
)

// exitCancelled is the status when the picker is left without a selection.
const exitCancelled = 130

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrCancelled) {
			os.Exit(exitCancelled)
		}
		fmt.Fprintf(os.Stderr, "sieve: %v\n", err)
		os.Exit(1)
	}
}
