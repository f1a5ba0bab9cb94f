package main

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kcoord/pkg/coord"
	"kcoord/pkg/logging"
	"kcoord/pkg/ui"
)

type topOptions struct {
	*rootOptions
	interval time.Duration
	load     loadOptions
}

func newTopCmd(root *rootOptions) *cobra.Command {
	opts := &topOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live terminal dashboard of lock, arbiter and futex activity",
		Args:  cobra.NoArgs,
		RunE:  opts.run,
	}
	cmd.Flags().DurationVarP(&opts.interval, "interval", "i", time.Second, "Refresh interval")
	opts.load.addFlags(cmd.Flags())
	return cmd
}

func (o *topOptions) run(cmd *cobra.Command, _ []string) error {
	// Log lines would tear the alternate screen unless they go to a file.
	logger := logging.Discard()
	if o.cfg.Log.OutputPath != "" {
		logger = logging.GetLogger()
	}
	c := coord.New(o.cfg, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if o.load.enabled {
		g.Go(func() error {
			return simulate(ctx, c, o.load)
		})
	}

	p := tea.NewProgram(
		ui.NewDashboard(c, o.interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	cancel()
	if werr := g.Wait(); werr != nil {
		return werr
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
