package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
)

func runScheduled(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if schedule != "" {
		cfg.Schedule = schedule
	}
	if monitoring {
		cfg.EnableMonitoring = true
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()

	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err = c.AddFunc(cfg.Schedule, func() {
		// A report date pinned by flag or env would repeat every run.
		runCfg := *cfg
		if reportDate == "" {
			runCfg.ReportDate = ""
		}
		if err := runReport(ctx, &runCfg, m); err != nil {
			logger.Error("Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	var srv *http.Server
	if cfg.EnableMonitoring {
		srv = &http.Server{
			Addr:              ":" + cfg.MonitoringPort,
			Handler:           monitoringHandler(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Starting monitoring server", "port", cfg.MonitoringPort)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Monitoring server error", "error", err)
			}
		}()
	}

	c.Start()
	logger.Info("Scheduler started", "schedule", cfg.Schedule, "timezone", cfg.Location().String())

	<-ctx.Done()
	logger.Info("Shutting down scheduler")
	<-c.Stop().Done()

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Monitoring server shutdown failed", "error", err)
		}
	}
	return nil
}
