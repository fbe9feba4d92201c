package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/api"
	"github.com/newthinker/swingbot/internal/app"
	"github.com/newthinker/swingbot/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backtest job API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("starting swingbot server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("auth", cfg.Server.APIKey != ""),
		zap.Bool("archive", cfg.Archive.Enabled),
	)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		JobTTL:      time.Duration(cfg.Server.JobTTLHours) * time.Hour,
		MaxJobs:     cfg.Server.MaxJobs,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{App: a}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down swingbot server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
