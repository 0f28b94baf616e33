package main

import (
	"errors"
	"fmt"

	"github.com/danmuck/comando/internal/protocol/frame"
	"github.com/spf13/cobra"
)

func listenCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print every inbound event until the stream ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			l, err := openLink(ctx, cfg)
			if err != nil {
				return err
			}
			defer l.Close()

			out := cmd.OutOrStdout()
			seen := 0
			for _, c := range l.events.Commands() {
				name := c.Name
				if err := l.events.On(name, func(values ...any) {
					seen++
					if len(values) == 0 {
						fmt.Fprintln(out, name)
						return
					}
					fmt.Fprintf(out, "%s %s\n", name, formatValues(values))
				}); err != nil {
					return err
				}
			}

			for count <= 0 || seen < count {
				if err := ctx.Err(); err != nil {
					return nil
				}
				if err := l.router.HandleStream(); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					if errors.Is(err, frame.ErrShortRead) {
						l.logger.Info().Msg("stream ended")
						return nil
					}
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many events (0 = no limit)")
	return cmd
}
