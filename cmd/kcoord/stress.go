package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kcoord/pkg/coord"
	"kcoord/pkg/logging"
	"kcoord/pkg/ui"
)

type stressCmdOptions struct {
	*rootOptions
	stress coord.StressOptions
}

func newStressCmd(root *rootOptions) *cobra.Command {
	opts := &stressCmdOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer the coordinator from many goroutines and verify its invariants",
		Args:  cobra.NoArgs,
		RunE:  opts.run,
	}
	cmd.Flags().IntVarP(&opts.stress.Workers, "workers", "w", 8, "Number of concurrent workers")
	cmd.Flags().IntVarP(&opts.stress.Ops, "ops", "n", 1000, "Operations per worker")
	cmd.Flags().IntVar(&opts.stress.Locks, "locks", 4, "Shared locks and arbitrated resources")
	cmd.Flags().IntVar(&opts.stress.Addresses, "addresses", 16, "Shared futex addresses")
	return cmd
}

func (o *stressCmdOptions) run(cmd *cobra.Command, _ []string) error {
	c := coord.New(o.cfg, logging.GetLogger())
	report, err := coord.RunStress(cmd.Context(), c, o.stress)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.StressReport(report))
	return nil
}
