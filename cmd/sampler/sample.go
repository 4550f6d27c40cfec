package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hpn/hpn-sampler/internal/domain"
)

type sampleOptions struct {
	*rootOptions
	samplerName string
	file        string
}

func newSampleCmd(root *rootOptions) *cobra.Command {
	opts := &sampleOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample once from a message list read from a file or stdin",
		Example: `  sampler sample --sampler conversational --file messages.json
  echo '[{"role":"user","content":"hi"}]' | sampler sample -s generative`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if opts.file != "" && opts.file != "-" {
				f, err := os.Open(opts.file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			// Keep stdout for the JSON result.
			color.Output = cmd.ErrOrStderr()
			return runSample(cmd.Context(), opts, in, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.samplerName, "sampler", "s", conversationalName, "sampler to use (conversational, generative)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "JSON file with the message list, - for stdin")

	return cmd
}

func runSample(ctx context.Context, opts *sampleOptions, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	messages, err := readMessages(in)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}

	s, err := registry.Get(opts.samplerName)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Names(), ", "))
	}

	result, err := s.Sample(ctx, messages)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// readMessages accepts either a bare message array or {"messages": [...]}.
func readMessages(r io.Reader) ([]domain.Message, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err == nil {
		return messages, nil
	}

	var wrapped struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid message list: %w", err)
	}
	return wrapped.Messages, nil
}
