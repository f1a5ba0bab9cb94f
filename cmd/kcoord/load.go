package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"kcoord/pkg/coord"
	"kcoord/pkg/logging"
)

// loadOptions sizes the background load used by serve and top.
type loadOptions struct {
	enabled bool
	every   time.Duration
	stress  coord.StressOptions
}

func (o *loadOptions) addFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.enabled, "load", false, "Drive synthetic load against the coordinator")
	fs.DurationVar(&o.every, "load-every", time.Second, "Delay between load rounds")
	fs.IntVar(&o.stress.Workers, "load-workers", 4, "Workers per load round")
	fs.IntVar(&o.stress.Ops, "load-ops", 200, "Operations per worker per load round")
}

// simulate runs one stress round per tick until ctx is done. A cancelled
// context ends the loop without error.
func simulate(ctx context.Context, c *coord.Coordinator, o loadOptions) error {
	logger := logging.WithComponent("load")
	ticker := time.NewTicker(o.every)
	defer ticker.Stop()

	for round := 1; ; round++ {
		report, err := coord.RunStress(ctx, c, o.stress)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		logger.Debug("load round finished", "round", round,
			"acquired", report.Acquired, "arbitrations", report.Arbitrations, "elapsed", report.Elapsed)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
