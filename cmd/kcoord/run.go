package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kcoord/pkg/coord"
	"kcoord/pkg/logging"
	"kcoord/pkg/scenario"
	"kcoord/pkg/ui"
)

type runOptions struct {
	*rootOptions
	quiet bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Replay scenario files and check their expectations",
		Long: "Each scenario runs against a fresh coordinator built from the active\n" +
			"configuration. All files run even when one fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: opts.run,
	}
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print failing scenarios")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger()
	var errs []error

	for _, path := range args {
		s, err := scenario.LoadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		report, err := scenario.NewRunner(coord.New(o.cfg, logger), logger).Run(cmd.Context(), s)
		if report != nil && (!o.quiet || err != nil) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.ScenarioReport(report))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
