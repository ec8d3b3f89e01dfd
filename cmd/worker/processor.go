package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/admission"
	"github.com/tenantops/account-factory/internal/aws"
	"github.com/tenantops/account-factory/internal/config"
	"github.com/tenantops/account-factory/internal/engine"
	"github.com/tenantops/account-factory/internal/metrics"
	"github.com/tenantops/account-factory/internal/orchestrator"
)

const metricDeadLettered = "MessagesDeadLettered"

// Processor is the queue adapter: it feeds SQS records through the
// orchestrator one at a time and reports per-message outcomes back to SQS as
// partial batch failures.
type Processor struct {
	orch     *orchestrator.Orchestrator
	recorder orchestrator.Recorder
}

// NewProcessor wires the orchestrator from AWS clients, app config and the
// catalog resolved at startup.
func NewProcessor(clients *aws.AWSClients, cfg config.Config, catalog engine.Catalog) *Processor {
	store := accounts.NewStore(clients.DynamoDB, cfg.AccountTable, cfg.StatusIndex)
	gate := admission.NewController(store)
	eng := engine.NewClient(clients.ServiceCatalog, catalog)
	recorder := metrics.NewPublisher(clients.CloudWatch, cfg.MetricsNamespace)

	return &Processor{
		orch:     orchestrator.New(store, gate, eng, recorder),
		recorder: recorder,
	}
}

// Handle receives an SQS batch event and processes each record sequentially.
// Only Retry outcomes are reported as batch item failures; SQS redelivers
// those after the visibility timeout and deletes the rest.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	log.Printf("[worker] received %d messages", len(ev.Records))

	var failures []events.SQSBatchItemFailure
	for _, rec := range ev.Records {
		outcome := p.orch.Process(ctx, rec.Body)
		switch outcome.Kind {
		case orchestrator.Retry:
			log.Printf("[worker] message %s stays in queue: %s", rec.MessageId, outcome.Reason)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		case orchestrator.DeadLetter:
			log.Printf("[worker] message %s dead-lettered: %s", rec.MessageId, outcome.Reason)
			p.recorder.Count(ctx, metricDeadLettered)
		default:
			log.Printf("[worker] message %s done: %s", rec.MessageId, outcome.Reason)
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}
