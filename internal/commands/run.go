package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/costspectre/internal/audit"
	"github.com/ppiankov/costspectre/internal/aws"
	"github.com/ppiankov/costspectre/internal/config"
	"github.com/ppiankov/costspectre/internal/notify"
	"github.com/ppiankov/costspectre/internal/report"
	"github.com/ppiankov/costspectre/internal/telemetry"
)

var runFlags struct {
	region           string
	lookbackDays     int
	ec2CPUThreshold  float64
	rdsCPUThreshold  float64
	networkThreshold float64
	snapshotAgeDays  int
	topicARN         string
	natsURL          string
	natsSubject      string
	pushgatewayURL   string
	dryRun           bool
	format           string
	outputFile       string
	schedule         string
	timeout          time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cost optimization audit",
	Long: `Run the four resource checks, estimate monthly savings and publish one report.
With --schedule the audit repeats on a cron schedule until interrupted.`,
	RunE: runAudit,
}

func init() {
	addRunFlags(runCmd.Flags())
}

func addRunFlags(f *pflag.FlagSet) {
	f.StringVar(&runFlags.region, "region", "", "AWS region (default: from AWS config)")
	f.IntVar(&runFlags.lookbackDays, "lookback-days", config.DefaultLookbackDays, "Metric lookback window (days)")
	f.Float64Var(&runFlags.ec2CPUThreshold, "ec2-cpu-threshold", config.DefaultEC2CPUThreshold, "EC2 average CPU % below which an instance is underutilized")
	f.Float64Var(&runFlags.rdsCPUThreshold, "rds-cpu-threshold", config.DefaultRDSCPUThreshold, "RDS average CPU % below which an instance is underutilized")
	f.Float64Var(&runFlags.networkThreshold, "network-threshold", config.DefaultNetworkThreshold, "EC2 average NetworkIn/NetworkOut below which an instance is underutilized")
	f.IntVar(&runFlags.snapshotAgeDays, "snapshot-age-days", config.DefaultSnapshotAgeDays, "Age above which a snapshot is old (days)")
	f.StringVar(&runFlags.topicARN, "topic-arn", "", "SNS topic ARN for the report")
	f.StringVar(&runFlags.natsURL, "nats-url", "", "NATS server URL for the report")
	f.StringVar(&runFlags.natsSubject, "nats-subject", "", "NATS subject (default: "+config.DefaultNATSSubject+")")
	f.StringVar(&runFlags.pushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway URL for run metrics")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "Print the report to stderr instead of publishing it")
	f.StringVar(&runFlags.format, "format", "", "Report output format: text, json, sarif (default: none, or text with --output)")
	f.StringVarP(&runFlags.outputFile, "output", "o", "", "Report output file path (default: stdout)")
	f.StringVar(&runFlags.schedule, "schedule", "", "Cron schedule for repeated runs (default: run once)")
	f.DurationVar(&runFlags.timeout, "timeout", 5*time.Minute, "Timeout for a single run")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd.Flags(), cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := aws.NewClient(ctx, settings.Profile, settings.Region)
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}

	notifier, closeNotifier, err := buildNotifier(client, settings, runFlags.dryRun, cmd.ErrOrStderr())
	if err != nil {
		return enhanceError("initialize notifier", err)
	}
	defer closeNotifier()

	logger := slog.Default().With("region", client.Region())
	auditor := newAuditor(client.Inventory(), client.Metrics(), settings, notifier, logger)
	recorder := telemetry.NewRecorder(client.Region(), settings.PushgatewayURL)

	r := &runner{
		auditor:  auditor,
		recorder: recorder,
		settings: settings,
		target: report.Target{
			Type:    "aws-account",
			Region:  client.Region(),
			URIHash: computeTargetHash(settings.Profile, client.Region()),
		},
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		logger: logger,
	}

	if settings.Schedule == "" {
		summary := r.runOnce(ctx)
		if summary.Status == audit.StateFailed {
			return fmt.Errorf("audit run %s failed: %s", summary.RunID, summary.Error)
		}
		return nil
	}

	return r.runScheduled(ctx, settings.Schedule)
}

// resolveSettings applies explicitly set flags on top of the config file and fills defaults.
func resolveSettings(flags *pflag.FlagSet, base config.Config) (config.Config, error) {
	s := base
	if profile != "" {
		s.Profile = profile
	}
	if flags.Changed("region") {
		s.Region = runFlags.region
	}
	if flags.Changed("lookback-days") {
		s.LookbackDays = runFlags.lookbackDays
	}
	if flags.Changed("ec2-cpu-threshold") {
		s.EC2CPUThreshold = runFlags.ec2CPUThreshold
	}
	if flags.Changed("rds-cpu-threshold") {
		s.RDSCPUThreshold = runFlags.rdsCPUThreshold
	}
	if flags.Changed("network-threshold") {
		s.NetworkThreshold = runFlags.networkThreshold
	}
	if flags.Changed("snapshot-age-days") {
		s.SnapshotAgeDays = runFlags.snapshotAgeDays
	}
	if flags.Changed("topic-arn") {
		s.Notify.SNSTopicARN = runFlags.topicARN
	}
	if flags.Changed("nats-url") {
		s.Notify.NATSURL = runFlags.natsURL
	}
	if flags.Changed("nats-subject") {
		s.Notify.NATSSubject = runFlags.natsSubject
	}
	if flags.Changed("pushgateway-url") {
		s.PushgatewayURL = runFlags.pushgatewayURL
	}
	if flags.Changed("format") {
		s.Format = runFlags.format
	}
	if flags.Changed("schedule") {
		s.Schedule = runFlags.schedule
	}
	if flags.Changed("timeout") {
		s.Timeout = runFlags.timeout.String()
	}

	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	switch s.Format {
	case "", "text", "json", "sarif":
	default:
		return config.Config{}, fmt.Errorf("unsupported format: %s (use text, json, or sarif)", s.Format)
	}
	return s, nil
}

// newAuditor wires the checks, estimator and composer for one region.
func newAuditor(inv audit.Inventory, metrics audit.MetricsProvider, settings config.Config, notifier audit.Notifier, logger *slog.Logger) *audit.Auditor {
	checks := audit.NewChecks(inv, audit.NewAggregator(metrics, logger), settings.CheckConfig(), logger)
	return audit.NewAuditor(checks,
		audit.NewEstimator(settings.Pricing),
		audit.NewComposer(settings.SnapshotAgeDays),
		notifier, logger)
}

// buildNotifier returns the configured delivery channels. The notifier is nil
// when no channel is configured.
func buildNotifier(client *aws.Client, settings config.Config, dryRun bool, dryRunOut io.Writer) (audit.Notifier, func(), error) {
	noop := func() {}
	if dryRun {
		return notify.NewWriterNotifier(dryRunOut), noop, nil
	}

	var (
		channels notify.Multi
		closers  []func()
	)
	if settings.Notify.SNSTopicARN != "" {
		channels = append(channels, client.Notifier(settings.Notify.SNSTopicARN))
	}
	if settings.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(settings.Notify.NATSURL, settings.Notify.NATSSubject)
		if err != nil {
			return nil, noop, err
		}
		channels = append(channels, n)
		closers = append(closers, n.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	switch len(channels) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return channels[0], closeAll, nil
	default:
		return channels, closeAll, nil
	}
}

// runner executes audit runs and handles their output.
type runner struct {
	auditor  *audit.Auditor
	recorder *telemetry.Recorder
	settings config.Config
	target   report.Target
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
}

func (r *runner) runOnce(ctx context.Context) audit.RunSummary {
	if d := r.settings.TimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	var composed *audit.Report
	r.auditor.SetReportFn(func(rep *audit.Report) { composed = rep })

	summary := r.auditor.Run(ctx)

	if composed != nil {
		if err := r.writeReport(composed, summary); err != nil {
			r.logger.Error("Failed to write report", "error", err)
		}
	}
	if err := printSummary(r.stdout, r.stderr, summary); err != nil {
		r.logger.Error("Failed to print run summary", "error", err)
	}

	r.recorder.Observe(summary)
	if err := r.recorder.Push(ctx); err != nil {
		r.logger.Warn("Failed to push run metrics", "error", err)
	}
	return summary
}

func (r *runner) runScheduled(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() { r.runOnce(ctx) }); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	r.logger.Info("Scheduled audit runs", "schedule", schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("Scheduler stopped")
	return nil
}

func (r *runner) writeReport(rep *audit.Report, summary audit.RunSummary) error {
	format := r.settings.Format
	if format == "" && runFlags.outputFile == "" {
		return nil
	}
	if format == "" {
		format = "text"
	}

	w := r.stdout
	if runFlags.outputFile != "" {
		f, err := os.Create(runFlags.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	reporter, err := selectReporter(format, w)
	if err != nil {
		return err
	}

	data := report.NewData(rep, summary.Errors)
	data.Version = version
	data.RunID = summary.RunID
	data.Target = r.target
	data.Config = report.ReportConfig{
		LookbackDays:     r.settings.LookbackDays,
		EC2CPUThreshold:  r.settings.EC2CPUThreshold,
		RDSCPUThreshold:  r.settings.RDSCPUThreshold,
		NetworkThreshold: r.settings.NetworkThreshold,
		SnapshotAgeDays:  r.settings.SnapshotAgeDays,
	}
	return reporter.Generate(data)
}

func selectReporter(format string, w io.Writer) (report.Reporter, error) {
	switch format {
	case "json":
		return &report.JSONReporter{Writer: w}, nil
	case "text":
		return &report.TextReporter{Writer: w}, nil
	case "sarif":
		return &report.SARIFReporter{Writer: w}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use text, json, or sarif)", format)
	}
}

// printSummary writes the run summary as JSON to out and a coloured status line to status.
func printSummary(out, status io.Writer, s audit.RunSummary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}

	savings := "$" + strconv.FormatFloat(s.TotalSavings, 'f', -1, 64)
	switch {
	case s.Status == audit.StateFailed:
		_, err := color.New(color.FgRed, color.Bold).Fprintf(status, "✗ run failed: %s\n", s.Error)
		return err
	case len(s.Errors) > 0 || s.NotificationError != "":
		_, err := color.New(color.FgYellow).Fprintf(status, "! completed with errors: %d findings, %s/month estimated savings, %d check errors%s\n",
			s.Counts.Total(), savings, len(s.Errors), notificationSuffix(s))
		return err
	default:
		_, err := color.New(color.FgGreen).Fprintf(status, "✓ completed: %d findings, %s/month estimated savings\n",
			s.Counts.Total(), savings)
		return err
	}
}

func notificationSuffix(s audit.RunSummary) string {
	if s.NotificationError == "" {
		return ""
	}
	return ", notification failed"
}
