package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/ainewsreport/internal/app"
	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/gemini"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
)

var (
	debugMode  bool
	reportDate string
	schedule   string
	monitoring bool
)

var rootCmd = &cobra.Command{
	Use:           "ainews",
	Short:         "Daily AI news report for Notion and Slack",
	Long:          `Collects AI news from RSS feeds, summarizes and curates it with Gemini, publishes a Notion report and announces it on Slack.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce one report now",
	RunE:  runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Produce a report on a cron schedule",
	RunE:  runScheduled,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List Gemini models that support content generation",
	RunE:  listModels,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&reportDate, "date", "", "Report date (YYYY-MM-DD), defaults to today")
	scheduleCmd.Flags().StringVar(&schedule, "cron", "", "Cron expression, overrides REPORT_SCHEDULE")
	scheduleCmd.Flags().BoolVar(&monitoring, "monitoring", false, "Serve /health and /metrics, same as ENABLE_HTTP_MONITORING=true")

	rootCmd.AddCommand(runCmd, scheduleCmd, modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if cfg != nil {
		if reportDate != "" {
			cfg.ReportDate = reportDate
		}
		logger.Init(cfg.Debug || debugMode)
	}
	return cfg, err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()
	return runReport(ctx, cfg, m)
}

func runReport(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	pipeline, closeClient, err := app.FromConfig(ctx, cfg, m, logger.Logger)
	if err != nil {
		m.SetError(err.Error())
		return err
	}
	defer closeClient()

	start := time.Now()
	res, err := pipeline.Run(ctx)
	logger.Info("Run finished",
		"date", res.Date,
		"fetched", res.Fetched,
		"selected", len(res.Selected),
		"report_url", res.ReportURL,
		"notified", res.Notified,
		"stopped", res.Stopped,
		"model_calls", res.ModelCalls,
		"duration", time.Since(start))
	logger.Debug("Run stats", "stats", m.GetStats())
	return err
}

func listModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if cfg == nil || cfg.GeminiAPIKey == "" {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
