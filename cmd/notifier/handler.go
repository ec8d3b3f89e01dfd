package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/notifier"
)

// ProvisioningEvent is the lifecycle event delivered when a provisioning job
// reaches a terminal state.
type ProvisioningEvent struct {
	Account struct {
		AccountName string `json:"accountName"`
	} `json:"account"`
	State string `json:"state"`
}

// RequestStore is the store capability the notifier handler needs.
type RequestStore interface {
	Get(ctx context.Context, accountName string) (*accounts.AccountRequest, error)
	Delete(ctx context.Context, accountName string) error
}

// Deliverer posts the signed callback.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL, secret string, payload notifier.Payload) error
}

// Handler reacts to terminal provisioning events: failed requests are cleaned
// out of the table, successful ones trigger the registered callback.
type Handler struct {
	store    RequestStore
	notifier Deliverer
}

func NewHandler(store RequestStore, deliverer Deliverer) *Handler {
	return &Handler{store: store, notifier: deliverer}
}

func (h *Handler) Handle(ctx context.Context, event ProvisioningEvent) error {
	name := event.Account.AccountName
	if name == "" {
		log.Printf("[notifier] event without account name, ignoring")
		return nil
	}

	if event.State != string(accounts.StatusSucceeded) {
		log.Printf("[notifier] account %q finished in state %s, deleting record", name, event.State)
		if err := h.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete account %q: %w", name, err)
		}
		return nil
	}

	record, err := h.store.Get(ctx, name)
	if errors.Is(err, accounts.ErrNotFound) {
		log.Printf("[notifier] account %q does not exist, ignoring", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load account %q: %w", name, err)
	}

	if record.CallbackURL == "" {
		log.Printf("[notifier] account %q has no callback url", name)
		return nil
	}

	payload := notifier.Payload{
		AccountName: record.AccountName,
		AccountID:   record.AccountID,
		OUName:      record.OUName,
		Status:      string(record.Status),
		CreatedAt:   record.CreatedAt,
	}
	if err := h.notifier.Deliver(ctx, record.CallbackURL, record.CallbackSecret, payload); err != nil {
		return fmt.Errorf("deliver callback for account %q: %w", name, err)
	}

	log.Printf("[notifier] delivered callback for account %q", name)
	return nil
}
