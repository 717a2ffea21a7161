package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/costspectre/internal/config"
	"github.com/ppiankov/costspectre/internal/logging"
)

var (
	verbose    bool
	logFormat  string
	profile    string
	configPath string
	version    string
	commit     string
	date       string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "costspectre",
	Short: "costspectre — AWS cost optimization reporter",
	Long: `costspectre finds underutilized EC2 and RDS instances, old EBS snapshots and
unattached EBS volumes in one region, estimates the monthly savings of removing
them, and publishes a single report to SNS or NATS.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose, logFormat)

		if configPath != "" {
			loaded, err := config.LoadFile(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			return nil
		}

		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS profile name")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .costspectre.yaml in the working directory)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
