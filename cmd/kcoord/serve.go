package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kcoord/pkg/coord"
	"kcoord/pkg/logging"
	"kcoord/pkg/telemetry"
)

var bannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7C3AED")).
	Bold(true)

type serveOptions struct {
	*rootOptions
	listen string
	load   loadOptions
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Export coordinator counters on a Prometheus /metrics endpoint",
		Args:  cobra.NoArgs,
		RunE:  opts.run,
	}
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "Listen address (defaults to metrics.listen)")
	opts.load.addFlags(cmd.Flags())
	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command, _ []string) error {
	listen := o.listen
	if listen == "" {
		listen = o.cfg.Metrics.Listen
	}

	c := coord.New(o.cfg, logging.GetLogger())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		telemetry.NewCollector(c),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fmt.Fprintln(cmd.OutOrStdout(), bannerStyle.Render(fmt.Sprintf("kcoord metrics on %s/metrics", listen)))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return telemetry.Serve(ctx, listen, reg)
	})
	if o.load.enabled {
		g.Go(func() error {
			return simulate(ctx, c, o.load)
		})
	}
	return g.Wait()
}
