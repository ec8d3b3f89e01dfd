package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/tenantops/account-factory/internal/aws"
)

// Publisher emits count metrics to CloudWatch. Publishing is best-effort:
// failures are logged and swallowed so metrics can never fail a message.
type Publisher struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewPublisher returns a Publisher emitting under the given namespace.
func NewPublisher(client aws.CloudWatchAPI, namespace string) *Publisher {
	return &Publisher{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count emits a single count of 1 for the named metric.
func (p *Publisher) Count(ctx context.Context, name string) {
	now := p.nowFunc()
	value := float64(1)
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &p.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &now,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		log.Printf("[metrics] unable to publish %s: %v", name, err)
	}
}
