package main

import (
	"github.com/spf13/cobra"

	"kcoord/pkg/config"
	"kcoord/pkg/logging"
)

// rootOptions carries flags shared by every subcommand and the configuration
// they resolve to.
type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kcoord",
		Short: "Replay, stress and observe the kernel coordination primitives",
		Long: "kcoord drives the futex table, adaptive locks, priority arbiter and batch\n" +
			"groups from scenario files or synthetic load, and exports their counters.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (DEBUG, INFO, WARN, ERROR)")

	cmd.AddCommand(
		newRunCmd(opts),
		newStressCmd(opts),
		newServeCmd(opts),
		newTopCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// load resolves configuration from defaults, the config file and the
// environment, applies flag overrides and initialises the global logger.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = logging.LogLevel(o.logLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	o.cfg = cfg

	if err := logging.Init(cfg.Log); err != nil {
		return err
	}
	logging.WithComponent("cli").Debug("configuration loaded", "file", o.configPath)
	return nil
}
