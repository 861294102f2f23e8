package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/dailyreport/internal/adapter/adminfile"
	"github.com/Strob0t/dailyreport/internal/adapter/csvfile"
	"github.com/Strob0t/dailyreport/internal/adapter/email"
	"github.com/Strob0t/dailyreport/internal/adapter/insights"
	cfotel "github.com/Strob0t/dailyreport/internal/adapter/otel"
	"github.com/Strob0t/dailyreport/internal/config"
	"github.com/Strob0t/dailyreport/internal/domain/report"
	"github.com/Strob0t/dailyreport/internal/logger"
	"github.com/Strob0t/dailyreport/internal/resilience"
	"github.com/Strob0t/dailyreport/internal/service"
)

// app holds the wired components for one process.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	svc      *service.DailyReportService
	shutdown cfotel.ShutdownFunc
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)
	log.Info("config loaded", cfg.LogAttrs()...)

	// --- Telemetry ---
	shutdown, err := cfotel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// --- Adapters ---
	client := insights.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.HTTPTimeout, log)
	if breaker := resilience.New(resilience.Settings{
		MaxFailures: cfg.APIBreaker.MaxFailures,
		Cooldown:    cfg.APIBreaker.Cooldown,
	}); breaker != nil {
		breaker.OnStateChange = func(from, to resilience.State) {
			log.Warn("insights api circuit breaker", "from", from.String(), "to", to.String())
		}
		client.SetBreaker(breaker)
	}
	store := csvfile.NewStore(cfg.Report.Dir)
	notifier := email.NewNotifier(email.SMTPConfig{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		From:     cfg.SenderEmail,
		Password: cfg.SenderPassword,
	}, log)

	adminsPath := cfg.AdminIDsFile
	loadAdmins := func() ([]report.AdminID, error) {
		return adminfile.Read(adminsPath)
	}

	// --- Service ---
	svc := service.NewDailyReportService(loadAdmins, client, store, notifier, metrics,
		service.DailyReportOptions{
			ContinueOnSendError: cfg.ContinueOnSendError,
			KeepReports:         cfg.Report.KeepFiles,
		}, log)

	return &app{cfg: cfg, logger: log, svc: svc, shutdown: shutdown}, nil
}

// close flushes telemetry. It uses a fresh context so a cancelled run still exports.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown", "error", err)
	}
}
