package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgeinfer/internal/logging"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "inferctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "inferctl",
		Short: "Stream feature vectors to a serial inference device and sort the results",
		Long: `inferctl sends CSV feature vectors to an inference device over a serial
link, reads back one similarity line per vector and writes each input row to
the normal or anomaly output.

Commands:
  run       stream every row of an input file
  send      send one typed row and print the reply`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			if opts.logLevel != "" && !logging.SetLevel(opts.logLevel) {
				return fmt.Errorf("invalid log level %q", opts.logLevel)
			}
			return nil
		},
	}
	opts.register(root)

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSendCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inferctl %s (%s)\n", version, goVersion)
		},
	}
}
