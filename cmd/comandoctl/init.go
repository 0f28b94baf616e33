package main

import (
	"fmt"

	"github.com/danmuck/comando/internal/config"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var (
		kind   string
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter comando.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(output, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config template to %s\n", kind, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "serial", "transport: serial|tcp|websocket")
	cmd.Flags().StringVarP(&output, "output", "o", "comando.toml", "output path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func validateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and its command table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if _, err := cfg.Table(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated %s (%s, %d commands)\n", opts.configPath, cfg.Stream.Kind, len(cfg.Commands))
			return nil
		},
	}
}
