package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/vnmarket/config"
	"github.com/fenilmodi00/vnmarket/handlers"
	"github.com/fenilmodi00/vnmarket/jobs"
	"github.com/fenilmodi00/vnmarket/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	opts := &snapshotOptions{}
	var port string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP",
		Long:  `Starts a http server exposing the snapshot generator under /api/v1/market`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := opts.resolvePolicy(cmd)
			if err != nil {
				return err
			}
			clock, err := opts.clock()
			if err != nil {
				return err
			}
			return serve(cfg, policy, opts.seed, clock, port)
		},
	}

	opts.register(serveCmd, cfg)
	serveCmd.Flags().StringVar(&port, "port", cfg.ServerPort, "port to listen on")
	return serveCmd
}

func serve(cfg *config.Config, policy *services.Policy, seed int64, clock func() time.Time, port string) error {
	cacheConfig := cfg.GetCacheConfig()

	snapshotService := services.NewSnapshotService(seed, clock)
	cacheService := services.NewCacheServiceWithConfig(cacheConfig.DefaultTTL, cacheConfig.MaxSize)
	cachedSnapshotService := services.NewCachedSnapshotService(snapshotService, cacheService)

	logrus.WithFields(logrus.Fields{
		"variant":    policy.Name,
		"news_limit": policy.NewsLimit,
		"max_alerts": policy.MaxAlerts,
		"cache_ttl":  cacheConfig.DefaultTTL,
		"cache_size": cacheConfig.MaxSize,
	}).Info("Snapshot services initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanupJob := jobs.NewCacheCleanupJob(cacheService)
	cleanupJob.Start(ctx, cacheConfig.DefaultTTL)

	marketHandler := handlers.NewMarketHandler(cachedSnapshotService, policy)
	cacheHandler := handlers.NewCacheHandler(cacheService)
	performanceHandler := handlers.NewPerformanceHandler(cachedSnapshotService, policy)
	app := handlers.NewApp(marketHandler, cacheHandler, performanceHandler)

	errChan := make(chan error, 1)
	go func() {
		logrus.Infof("Server starting on port %s", port)
		errChan <- app.Listen(":" + port)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
		logrus.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snapshotService.LogMetricsSummary()
		return app.ShutdownWithContext(shutdownCtx)
	}
}
