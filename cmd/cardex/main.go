package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/config"
	logpkg "github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/version"
)

// cli is the state every subcommand starts from.
type cli struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rt := &cli{}

	root := &cobra.Command{
		Use:          "cardex",
		Short:        "Credit card discovery API with hybrid semantic search",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&rt.env, "env", config.GetEnv(),
		"configuration environment, selects config/<env>.yaml")

	root.AddCommand(
		newServeCmd(rt),
		newMigrateCmd(rt),
		newSeedCmd(rt),
		newReindexCmd(rt),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(version.String())
			},
		},
	)
	return root
}

func (rt *cli) setup() error {
	cfg, err := config.Load(rt.env)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	logger, err := logpkg.NewWithFile(rt.env, cfg.Logging.Level, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	rt.logger = logger
	return nil
}
