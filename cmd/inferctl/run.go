package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgeinfer/internal/console"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		input       string
		summaryJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream every row of an input file to the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				cfg.Input = input
			}
			if err := cfg.Validate(true); err != nil {
				return err
			}

			var src io.Reader
			if cfg.Input == "-" {
				src = cmd.InOrStdin()
			} else {
				f, err := os.Open(cfg.Input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				src = f
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			sum, runErr := execute(ctx, cfg, opts, src, out)
			if summaryJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(sum); err != nil {
					return err
				}
			} else if sum.SessionID != "" {
				fmt.Fprintln(out, console.RenderSummary(sum))
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV input file, or - for stdin")
	cmd.Flags().BoolVar(&summaryJSON, "json", false, "print the final summary as JSON")
	return cmd
}
