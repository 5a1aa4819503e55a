package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/account-console/internal/repository"
	"github.com/noah-isme/account-console/internal/service"
	"github.com/noah-isme/account-console/pkg/cache"
	"github.com/noah-isme/account-console/pkg/config"
	"github.com/noah-isme/account-console/pkg/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the level catalogue cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop every cached level catalogue from Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(envFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logr, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer logr.Sync() //nolint:errcheck

		client, err := cache.NewRedis(cmd.Context(), cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck

		caches := service.NewCacheService(repository.NewCacheRepository(client, logr), nil, cfg.Levels.CacheTTL, logr, true)
		if err := caches.Invalidate(cmd.Context(), service.LevelsCachePattern); err != nil {
			return fmt.Errorf("flush level cache: %w", err)
		}
		logr.Info("level cache flushed")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheFlushCmd)
}
