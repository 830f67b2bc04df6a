package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/config"
	dbPostgres "github.com/kailas-cloud/cardex/internal/db/postgres"
	logpkg "github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
	"github.com/kailas-cloud/cardex/internal/seed"
	"github.com/kailas-cloud/cardex/internal/usecase/reindex"
)

func newMigrateCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires the %s driver, configured: %s",
					config.DriverPostgres, rt.cfg.Database.Driver)
			}
			ctx := cmd.Context()
			pg, err := dbPostgres.New(ctx, dbPostgres.Config{
				DSN:      rt.cfg.Database.DSN,
				MaxConns: 1,
			})
			if err != nil {
				return fmt.Errorf("create postgres pool: %w", err)
			}
			defer pg.Close()

			if err := pg.WaitForReady(ctx, time.Duration(rt.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			rt.logger.Info("Schema applied")
			return nil
		},
	}
}

func newSeedCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load a catalog export into the database",
		Long: "Load a catalog export ({cardIssuer: [...], cardFeatureList: [...]}) into the database.\n" +
			"The file defaults to database.seed_file.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.cfg.Database.SeedFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no seed file given and database.seed_file is empty")
			}

			ctx, stop := rt.jobContext(cmd.Context(), "seed")
			defer stop()

			cards, err := seed.ParseFile(path)
			if err != nil {
				return err
			}

			// Against the memory driver this only validates the file.
			cfg := rt.cfg
			cfg.Database.SeedFile = ""
			st, err := openStores(ctx, cfg, rt.logger)
			if err != nil {
				return err
			}
			defer st.close()

			res, err := seed.Load(ctx, st.cards, cards)
			if err != nil {
				return err
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d cards failed to load", res.Failed, res.Total)
			}
			return nil
		},
	}
}

func newReindexCmd(rt *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Embed every published card and store its summary vector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics.RegisterEmbeddingMetrics()

			ctx, stop := rt.jobContext(cmd.Context(), "reindex")
			defer stop()

			st, err := openStores(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer st.close()

			cache, closeCache, err := openCache(ctx, rt.cfg.Cache, rt.logger)
			if err != nil {
				return err
			}
			defer closeCache()
			embedder, _ := buildEmbedder(rt.cfg.Embedding, cache, time.Duration(rt.cfg.Cache.TTLHours)*time.Hour, rt.logger)

			res, err := reindex.New(st.cards, embedder, reindex.Config{
				Workers:   rt.cfg.Reindex.Workers,
				BatchSize: rt.cfg.Reindex.BatchSize,
				Model:     rt.cfg.Embedding.Model,
			}).Run(ctx)
			if err != nil {
				return err
			}
			if res.Indexed == 0 && res.Total > 0 {
				return fmt.Errorf("no cards indexed out of %d", res.Total)
			}
			return nil
		},
	}
}

// jobContext carries a job-scoped logger and is cancelled on SIGINT/SIGTERM.
func (rt *cli) jobContext(parent context.Context, job string) (context.Context, context.CancelFunc) {
	ctx := logpkg.ContextWithLogger(parent, rt.logger.With(zap.String("job", job)))
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
