package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tenantops/account-factory/internal/aws"
	"github.com/tenantops/account-factory/internal/config"
	"github.com/tenantops/account-factory/internal/engine"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	// The catalog is resolved once here and passed in as immutable
	// configuration; nothing re-resolves it per message.
	catalog, err := engine.DiscoverCatalog(ctx, clients.ServiceCatalog, cfg.WorkerRoleARN)
	if err != nil {
		log.Fatalf("failed to discover account factory catalog: %v", err)
	}

	p := NewProcessor(clients, cfg, catalog)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"AccountName":"local-sandbox"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, err := p.Handle(ctx, event)
		if err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		log.Printf("local handler finished with %d batch item failures", len(resp.BatchItemFailures))
		return
	}

	lambda.Start(p.Handle)
}
