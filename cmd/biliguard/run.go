package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"biliguard/internal/web"
	"biliguard/internal/worker"
	"biliguard/pkg/auth"
	"biliguard/pkg/bilibili"
	"biliguard/pkg/config"
	"biliguard/pkg/logger"
	"biliguard/pkg/metrics"
	"biliguard/pkg/scraper"
	"biliguard/pkg/status"
	"biliguard/pkg/store"
)

// runCmd starts the guardian daemon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the guardian daemon",
	Long: `Run the scrape-and-reconcile loop together with the web dashboard.

The daemon scrapes the configured account's videos and dynamics in
back-to-back passes, persists every observed comment, and marks comments
that disappear upstream. It runs until interrupted.`,
	Example: `  # Run with defaults (.biliguard.yaml, env vars)
  biliguard run

  # Run against a specific config file
  biliguard run --config /etc/biliguard/config.yaml`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("biliguard starting")

	creds := resolveCredentials(cfg, log)
	if creds.SessData == "" {
		log.Warn("no SESSDATA cookie configured, running unauthenticated with stricter rate limits")
	}

	st, cleanup, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	statusMgr := status.NewManager(cfg.Dashboard.StatusFile)

	client := bilibili.NewClient(30*time.Second, creds, log)
	engine := scraper.New(client, st, statusMgr, m, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := worker.NewSupervisor(log)
	sup.Go(ctx, "scraper", engine.Run)

	if cfg.Dashboard.Enabled {
		srv := web.NewServer(cfg.Dashboard.Addr, st, statusMgr, engine.Rates, reg, log)
		sup.Go(ctx, "dashboard", srv.Run)
	}

	<-ctx.Done()
	log.Info("shutting down")
	sup.Wait()
	return nil
}

// resolveCredentials prefers the config/env cookie set and falls back to the
// credential manager's stored sets
func resolveCredentials(cfg *config.Config, log logger.Logger) bilibili.Credentials {
	if cfg.Credentials.SessData != "" {
		return bilibili.Credentials{
			SessData: cfg.Credentials.SessData,
			BiliJct:  cfg.Credentials.BiliJct,
			Buvid3:   cfg.Credentials.Buvid3,
		}
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential manager unavailable")
		return bilibili.Credentials{}
	}

	stored, err := manager.RetrieveDefault()
	if err != nil {
		return bilibili.Credentials{}
	}

	log.InfoWithFields("using stored credentials", map[string]interface{}{
		"label": stored.Label,
	})
	return bilibili.Credentials{
		SessData: stored.SessData,
		BiliJct:  stored.BiliJct,
		Buvid3:   stored.Buvid3,
	}
}

// openStore selects the MySQL store when a DSN is configured, otherwise the
// in-memory store
func openStore(cfg *config.Config, log logger.Logger) (store.Store, func(), error) {
	if cfg.Database.DSN == "" {
		log.Warn("no database DSN configured, comment records will not survive restarts")
		return store.NewMemoryStore(), func() {}, nil
	}

	gs, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open comment store: %w", err)
	}

	log.Info("comment store opened")
	return gs, func() {
		if err := gs.Close(); err != nil {
			log.WithError(err).Warn("failed to close comment store")
		}
	}, nil
}
