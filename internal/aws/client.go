package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Client wraps the AWS SDK configuration for creating service clients.
type Client struct {
	cfg aws.Config
}

// NewClient creates a new AWS client using the specified profile and region.
// If profile is empty, the default credential chain is used.
// If region is empty, the default region from config/env is used.
func NewClient(ctx context.Context, profile, region string) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, errors.New("load AWS config: no region configured")
	}

	return &Client{cfg: cfg}, nil
}

// Region returns the region all service clients are bound to.
func (c *Client) Region() string {
	return c.cfg.Region
}

// Inventory returns a resource inventory backed by EC2 and RDS.
func (c *Client) Inventory() *Inventory {
	return NewInventory(ec2.NewFromConfig(c.cfg), rds.NewFromConfig(c.cfg))
}

// Metrics returns a CloudWatch metrics fetcher.
func (c *Client) Metrics() *MetricsFetcher {
	return NewMetricsFetcher(cloudwatch.NewFromConfig(c.cfg))
}

// Notifier returns an SNS publisher for the given topic.
func (c *Client) Notifier(topicARN string) *SNSNotifier {
	return NewSNSNotifier(sns.NewFromConfig(c.cfg), topicARN)
}
