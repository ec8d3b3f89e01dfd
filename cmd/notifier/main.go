package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/aws"
	"github.com/tenantops/account-factory/internal/config"
	"github.com/tenantops/account-factory/internal/notifier"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := accounts.NewStore(clients.DynamoDB, cfg.AccountTable, cfg.StatusIndex)
	h := NewHandler(store, notifier.New(nil))

	lambda.Start(h.Handle)
}
