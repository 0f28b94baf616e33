package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/danmuck/comando/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath    string
	metricsListen string
	logLevel      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "comandoctl: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "comandoctl",
		Short: "Drive a microcontroller over a framed command link",
		Long: `comandoctl talks to a controller speaking the comando framing over a
serial port, a tcp socket or a websocket bridge.

Commands are named in the [[commands]] table of the config file; arguments
given on the command line are converted to the declared wire types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()
			if opts.logLevel == "" {
				return nil
			}
			level, ok := logging.ParseLevel(opts.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "comando.toml", "path to comando.toml")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "serve /metrics and /healthz on this address (overrides [metrics] listen)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	root.AddCommand(
		commandsCmd(opts),
		triggerCmd(opts),
		callCmd(opts),
		listenCmd(opts),
		initCmd(),
		validateCmd(opts),
		portsCmd(),
		versionCmd(),
	)
	return root
}
