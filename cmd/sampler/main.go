// Package main is the entry point for the hpn-sampler CLI and gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hpn/hpn-sampler/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sampler",
		Short:         "Sample completions from Cohere and Gemini with retry and backoff",
		Version:       ui.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSampleCmd(opts))

	return cmd
}
