package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/repository"
	"github.com/noah-isme/account-console/pkg/config"
	"github.com/noah-isme/account-console/pkg/logger"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the account API is reachable",
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

		api := repository.NewAccountAPI(cfg.AccountAPI.BaseURL, cfg.AccountAPI.Timeout, nil, logr)
		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		if err := api.Ping(ctx); err != nil {
			return fmt.Errorf("account API %s: %w", cfg.AccountAPI.BaseURL, err)
		}
		logr.Info("account API reachable", zap.String("url", cfg.AccountAPI.BaseURL), zap.Duration("latency", time.Since(start)))
		return nil
	},
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 5*time.Second, "how long to wait for the account API")
}
