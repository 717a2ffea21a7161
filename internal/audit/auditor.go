package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Auditor runs the checks, prices and renders their findings, and publishes the report.
type Auditor struct {
	checks    []Check
	estimator *Estimator
	composer  *Composer
	notifier  Notifier
	logger    *slog.Logger
	reportFn  func(*Report)

	mu    sync.Mutex
	state State
}

// NewAuditor wires the pipeline. A nil notifier is allowed; the report is then only composed.
func NewAuditor(checks []Check, estimator *Estimator, composer *Composer, notifier Notifier, logger *slog.Logger) *Auditor {
	return &Auditor{
		checks:    checks,
		estimator: estimator,
		composer:  composer,
		notifier:  notifier,
		logger:    orDefault(logger),
		state:     StateIdle,
	}
}

// SetReportFn sets a callback that receives each composed report before it is published.
func (a *Auditor) SetReportFn(fn func(*Report)) {
	a.reportFn = fn
}

// State returns the state of the most recent run.
func (a *Auditor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Auditor) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run executes one audit. It never panics and never returns an error: every
// failure is absorbed into the summary.
func (a *Auditor) Run(ctx context.Context) (summary RunSummary) {
	summary = RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger := a.logger.With("run_id", summary.RunID)

	a.setState(StateRunning)
	logger.Info("Starting cost optimization analysis", "checks", len(a.checks))

	defer func() {
		if r := recover(); r != nil {
			err := &OrchestrationError{Stage: "run", Cause: panicError(r)}
			summary.Status = StateFailed
			summary.Error = err.Error()
			logger.Error("Audit run failed", "error", err)
		}
		summary.FinishedAt = time.Now().UTC()
		a.setState(summary.Status)
	}()

	findings := a.runChecks(ctx, logger, &summary)

	report, err := a.compose(findings)
	if err != nil {
		summary.Status = StateFailed
		summary.Error = err.Error()
		logger.Error("Audit run failed", "error", err)
		return summary
	}

	summary.Counts = Counts{
		Compute:  len(report.Compute),
		Database: len(report.Database),
		Snapshot: len(report.Snapshot),
		Volume:   len(report.Volume),
	}
	summary.TotalSavings = report.Savings.Total
	summary.Status = StateCompleted

	if a.reportFn != nil {
		a.reportFn(&report)
	}

	if report.Empty {
		logger.Info("No underutilized resources found")
		return summary
	}

	if a.notifier == nil {
		logger.Warn("No notifier configured, report not published")
		return summary
	}

	if err := a.notifier.Publish(ctx, report.Subject, report.Message); err != nil {
		nerr := &NotificationError{Err: err}
		summary.NotificationError = nerr.Error()
		logger.Error("Failed to send notification", "error", nerr)
		return summary
	}

	summary.Notified = true
	logger.Info("Report published",
		"findings", summary.Counts.Total(),
		"total_savings", summary.TotalSavings)
	return summary
}

// runChecks fans out the checks and joins their results. A failed or
// panicking check contributes an empty list.
func (a *Auditor) runChecks(ctx context.Context, logger *slog.Logger, summary *RunSummary) map[Category][]Finding {
	var (
		mu       sync.Mutex
		findings = make(map[Category][]Finding, len(Categories))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, check := range a.checks {
		g.Go(func() error {
			result, err := runCheck(ctx, check)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors = append(summary.Errors, err.Error())
				logger.Warn("Check failed", "category", check.Category(), "error", err)
				return nil // don't abort the other checks
			}
			findings[check.Category()] = append(findings[check.Category()], result...)
			logger.Debug("Check finished", "category", check.Category(), "findings", len(result))
			return nil
		})
	}
	_ = g.Wait()

	return findings
}

func runCheck(ctx context.Context, check Check) (findings []Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("%s check: %w", check.Category(), panicError(r))
		}
	}()
	return check.Run(ctx)
}

func (a *Auditor) compose(findings map[Category][]Finding) (report Report, err error) {
	stage := "estimate savings"
	defer func() {
		if r := recover(); r != nil {
			err = &OrchestrationError{Stage: stage, Cause: panicError(r)}
		}
	}()

	compute := findings[CategoryCompute]
	database := findings[CategoryDatabase]
	snapshot := findings[CategorySnapshot]
	volume := findings[CategoryVolume]

	est := a.estimator.Estimate(compute, database, volume)

	stage = "compose report"
	return a.composer.Compose(compute, database, snapshot, volume, est), nil
}
