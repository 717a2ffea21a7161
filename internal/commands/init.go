package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and IAM policy",
	Long:  `Creates a sample .costspectre.yaml config file and an IAM policy JSON file granting read access plus sns:Publish.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, _ []string) error {
	return writeInitFiles(cmd.OutOrStdout(), ".", initFlags.force)
}

func writeInitFiles(out io.Writer, dir string, force bool) error {
	configPath := filepath.Join(dir, ".costspectre.yaml")
	policyPath := filepath.Join(dir, "costspectre-policy.json")

	wrote := 0
	for _, f := range []struct{ path, content string }{
		{configPath, sampleConfig},
		{policyPath, sampleIAMPolicy},
	} {
		written, err := writeIfNotExists(out, f.path, f.content, force)
		if err != nil {
			return err
		}
		if written {
			wrote++
		}
	}

	if wrote > 0 {
		fmt.Fprintf(out, "Created %d file(s) in %s\n", wrote, dir)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Edit .costspectre.yaml: set notify.sns_topic_arn and thresholds")
		fmt.Fprintln(out, "  2. Apply costspectre-policy.json to your AWS IAM role/user")
		fmt.Fprintln(out, "  3. Run: costspectre run --dry-run")
	}
	return nil
}

func writeIfNotExists(out io.Writer, path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Skipping %s (already exists, use --force to overwrite)\n", path)
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

const sampleConfig = `# costspectre configuration

# AWS profile and region (or set AWS_PROFILE / AWS_REGION)
# profile: default
# region: us-east-1

# Lookback window for CloudWatch averages (days)
lookback_days: 7

# Thresholds; a resource is flagged when strictly below them
ec2_cpu_threshold: 10
rds_cpu_threshold: 10
# Compared to the daily average of NetworkIn and NetworkOut as reported by CloudWatch
network_threshold: 1000

# Snapshots older than this are reported (days)
snapshot_age_days: 30

# Instances tagged with this are never audited ("Key=Value" or "Key")
ignore_tag: "CostOptimization=Ignore"

# Snapshots carrying any of these tag keys are never reported
keep_tags:
  - DoNotDelete
  - Keep
  - Backup

# Concurrent CloudWatch queries per check
metric_concurrency: 5

# Timeout for a single run
timeout: 5m

# Local report output: text, json or sarif (empty prints only the run summary)
# format: text

# Cron schedule for repeated runs (empty runs once)
# schedule: "0 8 * * 1"

# Report delivery
notify:
  # sns_topic_arn: arn:aws:sns:us-east-1:123456789012:cost-alerts
  # nats_url: nats://localhost:4222
  # nats_subject: costspectre.reports

# Prometheus Pushgateway for run metrics
# pushgateway_url: http://localhost:9091

# Monthly USD prices; unknown classes use the defaults
# pricing:
#   compute:
#     t3.micro: 7.5
#   database:
#     db.t3.micro: 15
#   compute_default: 50
#   database_default: 50
#   volume_monthly: 8

# Resources to exclude from every check
# exclude:
#   resource_ids:
#     - i-0abc123
#   tags:
#     - "Environment=production"
`

const sampleIAMPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "CostSpectreRead",
      "Effect": "Allow",
      "Action": [
        "ec2:DescribeInstances",
        "ec2:DescribeVolumes",
        "ec2:DescribeSnapshots",
        "rds:DescribeDBInstances",
        "cloudwatch:GetMetricData"
      ],
      "Resource": "*"
    },
    {
      "Sid": "CostSpectrePublish",
      "Effect": "Allow",
      "Action": [
        "sns:Publish"
      ],
      "Resource": "*"
    }
  ]
}
`
