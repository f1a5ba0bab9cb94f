package main

import (
	"github.com/spf13/cobra"

	"kcoord/pkg/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if defaults {
				cfg = config.Default()
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print built-in defaults instead of the resolved configuration")
	return cmd
}
