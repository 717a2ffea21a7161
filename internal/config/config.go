package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/costspectre/internal/audit"
	"github.com/ppiankov/costspectre/internal/pricing"
)

// Defaults applied by WithDefaults.
const (
	DefaultLookbackDays      = 7
	DefaultEC2CPUThreshold   = 10.0
	DefaultRDSCPUThreshold   = 10.0
	DefaultNetworkThreshold  = 1000.0
	DefaultSnapshotAgeDays   = 30
	DefaultIgnoreTag         = "CostOptimization=Ignore"
	DefaultMetricConcurrency = 5
	DefaultTimeout           = "5m"
	DefaultNATSSubject       = "costspectre.reports"
)

// DefaultKeepTags are the tag keys that protect a snapshot when none are configured.
var DefaultKeepTags = []string{"DoNotDelete", "Keep", "Backup"}

// Config holds costspectre configuration loaded from .costspectre.yaml.
type Config struct {
	Profile           string        `yaml:"profile"`
	Region            string        `yaml:"region"`
	LookbackDays      int           `yaml:"lookback_days"`
	EC2CPUThreshold   float64       `yaml:"ec2_cpu_threshold"`
	RDSCPUThreshold   float64       `yaml:"rds_cpu_threshold"`
	NetworkThreshold  float64       `yaml:"network_threshold"`
	SnapshotAgeDays   int           `yaml:"snapshot_age_days"`
	IgnoreTag         string        `yaml:"ignore_tag"`
	KeepTags          []string      `yaml:"keep_tags"`
	MetricConcurrency int           `yaml:"metric_concurrency"`
	Format            string        `yaml:"format"`
	Timeout           string        `yaml:"timeout"`
	Schedule          string        `yaml:"schedule"`
	PushgatewayURL    string        `yaml:"pushgateway_url"`
	Notify            Notify        `yaml:"notify"`
	Pricing           pricing.Table `yaml:"pricing"`
	Exclude           Exclude       `yaml:"exclude"`
}

// Notify selects the delivery channels for reports.
type Notify struct {
	SNSTopicARN string `yaml:"sns_topic_arn"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// Exclude defines resources to skip in every check.
type Exclude struct {
	ResourceIDs []string `yaml:"resource_ids"`
	Tags        []string `yaml:"tags"`
}

// ParseTags converts tag strings ("Key=Value" or "Key") into a map.
// Key-only entries have an empty string value, meaning "match any value".
func (e Exclude) ParseTags() map[string]string {
	if len(e.Tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Tags))
	for _, s := range e.Tags {
		if k, v, ok := strings.Cut(s, "="); ok {
			m[k] = v
		} else {
			m[s] = ""
		}
	}
	return m
}

// IDSet returns the excluded resource IDs as a set.
func (e Exclude) IDSet() map[string]bool {
	if len(e.ResourceIDs) == 0 {
		return nil
	}
	m := make(map[string]bool, len(e.ResourceIDs))
	for _, id := range e.ResourceIDs {
		m[id] = true
	}
	return m
}

// WithDefaults returns a copy with every unset value filled in.
func (c Config) WithDefaults() Config {
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.EC2CPUThreshold == 0 {
		c.EC2CPUThreshold = DefaultEC2CPUThreshold
	}
	if c.RDSCPUThreshold == 0 {
		c.RDSCPUThreshold = DefaultRDSCPUThreshold
	}
	if c.NetworkThreshold == 0 {
		c.NetworkThreshold = DefaultNetworkThreshold
	}
	if c.SnapshotAgeDays == 0 {
		c.SnapshotAgeDays = DefaultSnapshotAgeDays
	}
	if c.IgnoreTag == "" {
		c.IgnoreTag = DefaultIgnoreTag
	}
	if len(c.KeepTags) == 0 {
		c.KeepTags = append([]string(nil), DefaultKeepTags...)
	}
	if c.MetricConcurrency == 0 {
		c.MetricConcurrency = DefaultMetricConcurrency
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	if c.Notify.NATSURL != "" && c.Notify.NATSSubject == "" {
		c.Notify.NATSSubject = DefaultNATSSubject
	}
	c.Pricing = pricing.Default().Merge(c.Pricing)
	return c
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("lookback_days must not be negative, got %d", c.LookbackDays))
	}
	if c.EC2CPUThreshold < 0 {
		errs = append(errs, fmt.Errorf("ec2_cpu_threshold must not be negative, got %g", c.EC2CPUThreshold))
	}
	if c.RDSCPUThreshold < 0 {
		errs = append(errs, fmt.Errorf("rds_cpu_threshold must not be negative, got %g", c.RDSCPUThreshold))
	}
	if c.NetworkThreshold < 0 {
		errs = append(errs, fmt.Errorf("network_threshold must not be negative, got %g", c.NetworkThreshold))
	}
	if c.SnapshotAgeDays < 0 {
		errs = append(errs, fmt.Errorf("snapshot_age_days must not be negative, got %d", c.SnapshotAgeDays))
	}
	if c.MetricConcurrency < 0 {
		errs = append(errs, fmt.Errorf("metric_concurrency must not be negative, got %d", c.MetricConcurrency))
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("timeout: %w", err))
		}
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: %w", err))
		}
	}
	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pricing: %w", err))
	}
	return errors.Join(errs...)
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CheckConfig converts the settings into the form the checks consume.
func (c Config) CheckConfig() audit.CheckConfig {
	return audit.CheckConfig{
		Thresholds: audit.Thresholds{
			LookbackDays:    c.LookbackDays,
			ComputeCPU:      c.EC2CPUThreshold,
			DatabaseCPU:     c.RDSCPUThreshold,
			Network:         c.NetworkThreshold,
			SnapshotAgeDays: c.SnapshotAgeDays,
		},
		IgnoreTag:         audit.ParseTagMatcher(c.IgnoreTag),
		KeepTags:          c.KeepTags,
		MetricConcurrency: c.MetricConcurrency,
		Exclude: audit.Exclude{
			ResourceIDs: c.Exclude.IDSet(),
			Tags:        c.Exclude.ParseTags(),
		},
	}
}

// Load searches for .costspectre.yaml or .costspectre.yml in the given directory
// and returns the parsed config. Returns an empty Config if no file is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".costspectre.yaml"),
		filepath.Join(dir, ".costspectre.yml"),
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, err
		}
		return cfg, nil
	}

	return Config{}, nil
}

// LoadFile parses the config at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
