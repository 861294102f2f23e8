// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/dailyreport/internal/adapter/otel"
	"github.com/Strob0t/dailyreport/internal/domain/report"
	"github.com/Strob0t/dailyreport/internal/logger"
	"github.com/Strob0t/dailyreport/internal/port/insights"
	"github.com/Strob0t/dailyreport/internal/port/notifier"
	"github.com/Strob0t/dailyreport/internal/port/reportstore"
)

// AdminLoader returns the administrators to process in one run.
type AdminLoader func() ([]report.AdminID, error)

// DailyReportOptions tunes a DailyReportService.
type DailyReportOptions struct {
	// ContinueOnSendError logs notifier failures and moves on instead of
	// aborting the run.
	ContinueOnSendError bool
	// KeepReports leaves report files on disk after the send attempt.
	KeepReports bool
}

// DailyReportService runs the report batch: admins → projects → report → email.
type DailyReportService struct {
	loadAdmins AdminLoader
	insights   insights.Client
	store      reportstore.Store
	notifier   notifier.ReportNotifier
	metrics    *cfotel.Metrics
	opts       DailyReportOptions
	logger     *slog.Logger
	now        func() time.Time
}

// NewDailyReportService creates a DailyReportService. metrics may be nil.
func NewDailyReportService(
	loadAdmins AdminLoader,
	client insights.Client,
	store reportstore.Store,
	n notifier.ReportNotifier,
	metrics *cfotel.Metrics,
	opts DailyReportOptions,
	log *slog.Logger,
) *DailyReportService {
	if log == nil {
		log = slog.Default()
	}
	return &DailyReportService{
		loadAdmins: loadAdmins,
		insights:   client,
		store:      store,
		notifier:   n,
		metrics:    metrics,
		opts:       opts,
		logger:     log,
		now:        time.Now,
	}
}

// Run processes every administrator once. Directory and report failures
// only skip the affected item; a failure to load the admin list, a cancelled
// context or (unless ContinueOnSendError) a notifier failure ends the run.
func (s *DailyReportService) Run(ctx context.Context) (report.Outcome, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx, s.logger)

	ctx, span := cfotel.StartRunSpan(ctx, runID)
	defer span.End()

	start := s.now()
	outcome := report.NewOutcome(runID)

	log.Info("starting the daily report email script")

	admins, err := s.loadAdmins()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load admin ids")
		return outcome, fmt.Errorf("load admin ids: %w", err)
	}

	for _, admin := range admins {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		if err := s.processAdmin(ctx, admin, &outcome); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
			return outcome, err
		}
	}

	outcome.Duration = s.now().Sub(start)
	s.metrics.RecordRun(ctx, outcome.Duration.Seconds())

	log.Info("stopping the daily report email script",
		"admins", outcome.Admins,
		"projects", outcome.Projects,
		"sent", outcome.Sent,
		"skipped", outcome.SkippedTotal(),
		"duration", outcome.Duration,
	)
	return outcome, nil
}

func (s *DailyReportService) processAdmin(ctx context.Context, admin report.AdminID, outcome *report.Outcome) error {
	ctx, span := cfotel.StartAdminSpan(ctx, string(admin))
	defer span.End()

	outcome.Admins++

	dir, err := s.insights.FetchRecipients(ctx, admin)
	if err != nil {
		return fmt.Errorf("fetch recipients for %s: %w", admin, err)
	}

	for _, entry := range dir {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processProject(ctx, admin, entry, outcome); err != nil {
			return err
		}
	}
	return nil
}

func (s *DailyReportService) processProject(ctx context.Context, admin report.AdminID, entry report.Entry, outcome *report.Outcome) error {
	log := logger.FromContext(ctx, s.logger).With("admin_id", string(admin), "project", entry.Project)
	outcome.Projects++

	if entry.Recipients.Empty() {
		log.Info("no recipients for project, skipping")
		s.skip(ctx, outcome, report.SkipNoRecipients)
		return nil
	}

	project := strings.TrimSpace(entry.Project)
	if project == "" {
		log.Info("project name is empty, skipping")
		s.skip(ctx, outcome, report.SkipEmptyProject)
		return nil
	}

	ctx, span := cfotel.StartProjectSpan(ctx, string(admin), project)
	defer span.End()

	path, ok, err := s.fetchReport(ctx, report.AdminID(strings.TrimSpace(string(admin))), project)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("no report file for project, skipping email")
		s.skip(ctx, outcome, report.SkipNoReport)
		return nil
	}
	sent, sendErr := s.notifier.SendReport(ctx, entry.Project, entry.Recipients, path)

	if s.keepOrRemove(log, path) {
		outcome.ReportFiles = append(outcome.ReportFiles, path)
	}

	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "send failed")
		if !s.opts.ContinueOnSendError {
			return sendErr
		}
		log.Error("failed to send report, continuing", "error", sendErr)
		s.skip(ctx, outcome, report.SkipSendFailed)
		return nil
	}
	if !sent {
		s.skip(ctx, outcome, report.SkipInvalidRecipients)
		return nil
	}

	outcome.Sent++
	s.metrics.RecordSent(ctx, project)
	return nil
}

// keepOrRemove deletes the report file unless reports are kept. It reports
// whether the file is still on disk.
func (s *DailyReportService) keepOrRemove(log *slog.Logger, path string) bool {
	if s.opts.KeepReports {
		return true
	}
	if err := s.store.Remove(path); err != nil {
		log.Warn("failed to remove report file", "path", path, "error", err)
		return true
	}
	return false
}

// fetchReport gets the report rows and writes them to a file. ok is false
// when the API produced no report or the file could not be written.
func (s *DailyReportService) fetchReport(ctx context.Context, admin report.AdminID, project string) (string, bool, error) {
	table, ok, err := s.insights.FetchReport(ctx, admin, project)
	if err != nil {
		return "", false, fmt.Errorf("fetch report for %s/%s: %w", admin, project, err)
	}
	if !ok {
		return "", false, nil
	}

	path, err := s.store.Write(table)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("failed to write report file",
			"admin_id", string(admin), "project", project, "error", err)
		return "", false, nil
	}
	return path, true, nil
}

func (s *DailyReportService) skip(ctx context.Context, outcome *report.Outcome, reason report.SkipReason) {
	outcome.Skip(reason)
	s.metrics.RecordSkipped(ctx, string(reason))
}
