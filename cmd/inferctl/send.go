package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgeinfer/internal/session"
)

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <comma-separated values>",
		Short: "Send one row and print the device reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(false); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = execute(ctx, cfg, opts, strings.NewReader(args[0]), cmd.OutOrStdout(), session.WithEchoTX())
			return err
		},
	}
}
