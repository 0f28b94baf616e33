package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/protocol/command"
	"github.com/danmuck/comando/internal/protocol/event"
	"github.com/spf13/cobra"
)

func commandsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the configured command table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			table, err := cfg.Table()
			if err != nil {
				return err
			}
			// same table checks a live link applies
			mgr, err := event.NewManager(command.New(), table)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tARGS\tRESULT\tDOC")
			for _, c := range mgr.Commands() {
				argTypes := make([]codec.Type, len(c.Args))
				for i, a := range c.Args {
					argTypes[i] = a.Type()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, typeList(argTypes), typeList(c.Result), c.Doc)
			}
			return w.Flush()
		},
	}
}

func typeList(types []codec.Type) string {
	if len(types) == 0 {
		return "-"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}
