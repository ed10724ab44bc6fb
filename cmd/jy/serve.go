package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/jobyard/internal/logger"
	"github.com/zulandar/jobyard/internal/server"
	"github.com/zulandar/jobyard/internal/sweep"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the pipeline backfill sweep",
		Long: `Starts the JSON API. When sweep.schedule is set, applications without a
pipeline entry are placed on that cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	if cfg.Sweep.Schedule != "" {
		if err := sweep.Validate(cfg.Sweep.Schedule); err != nil {
			return err
		}
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	notifier, cleanup, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sweeper := &sweep.Sweeper{
		DB:                gormDB,
		Log:               log,
		Schedule:          cfg.Sweep.Schedule,
		SeedDefaultStages: cfg.Sweep.SeedDefaultStages,
	}
	if cfg.Sweep.Schedule != "" {
		log.Info("backfill sweep scheduled", zap.String("schedule", cfg.Sweep.Schedule))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		return server.Start(gctx, server.StartOpts{
			DB:          gormDB,
			Port:        port,
			Out:         cmd.OutOrStdout(),
			Log:         log,
			Notifier:    notifier,
			Geocoder:    buildGeocoder(cfg),
			CORSOrigins: cfg.Server.CORSOrigins,
		})
	})
	return g.Wait()
}
