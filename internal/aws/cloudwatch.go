package aws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/ppiankov/costspectre/internal/audit"
)

// metricPeriodSeconds is the aggregation period for CloudWatch metrics (1 day).
const metricPeriodSeconds = 86400

// CloudWatchAPI is the minimal interface for CloudWatch operations needed by the metrics fetcher.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, input *cloudwatch.GetMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricsFetcher retrieves daily CloudWatch averages.
type MetricsFetcher struct {
	client CloudWatchAPI
	now    func() time.Time
}

// NewMetricsFetcher creates a fetcher using the given CloudWatch client.
func NewMetricsFetcher(client CloudWatchAPI) *MetricsFetcher {
	return &MetricsFetcher{client: client, now: time.Now}
}

// GetAverages returns one Average value per daily period in the window ending now.
// A metric with no datapoints yields an empty slice and no error.
func (f *MetricsFetcher) GetAverages(ctx context.Context, namespace, metricName string, dims []audit.Dimension, windowDays int) ([]float64, error) {
	end := f.now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	cwDims := make([]cwtypes.Dimension, 0, len(dims))
	for _, d := range dims {
		cwDims = append(cwDims, cwtypes.Dimension{
			Name:  awssdk.String(d.Name),
			Value: awssdk.String(d.Value),
		})
	}

	input := &cloudwatch.GetMetricDataInput{
		MetricDataQueries: []cwtypes.MetricDataQuery{
			{
				Id: awssdk.String("m0"),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  awssdk.String(namespace),
						MetricName: awssdk.String(metricName),
						Dimensions: cwDims,
					},
					Period: awssdk.Int32(metricPeriodSeconds),
					Stat:   awssdk.String("Average"),
				},
			},
		},
		StartTime: awssdk.Time(start),
		EndTime:   awssdk.Time(end),
	}

	var values []float64
	paginator := cloudwatch.NewGetMetricDataPaginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("get metric data (%s/%s): %w", namespace, metricName, err)
		}
		for _, result := range page.MetricDataResults {
			if deref(result.Id) != "m0" {
				continue
			}
			values = append(values, result.Values...)
		}
	}

	slog.Debug("Fetched CloudWatch metric",
		"namespace", namespace, "metric", metricName, "datapoints", len(values))
	return values, nil
}
