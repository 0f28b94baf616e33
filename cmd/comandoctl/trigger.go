package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func triggerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <name> [args...]",
		Short: "Send a command without waiting for a reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			l, err := openLink(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			return l.events.Trigger(args[0], stringArgs(args[1:])...)
		},
	}
}

func callCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "call <name> [args...]",
		Short: "Send a command and print the reply of the same name",
		Long: `Send a command and pump the link until an event with the same name
arrives. Its result fields are printed space separated. Other events that
arrive first are logged and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			l, err := openLink(ctx, cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			results, err := l.events.BlockingTriggerContext(ctx, args[0], stringArgs(args[1:])...)
			if err = interrupted(ctx, err); err != nil {
				return fmt.Errorf("call %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValues(results))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (closes the link)")
	return cmd
}
