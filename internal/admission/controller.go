// Package admission gates the start of new provisioning jobs. The account
// factory tolerates only one provisioning workflow at a time, so a QUEUED
// request is admitted only while no record sits in an active status.
package admission

import (
	"context"
	"fmt"

	"github.com/tenantops/account-factory/internal/accounts"
)

// StatusCounter is the read-side store capability the controller needs.
type StatusCounter interface {
	CountByStatus(ctx context.Context, status accounts.Status) (int, error)
}

// Controller answers whether any request currently holds the active slot.
// Pure read-side helper; safe to call repeatedly, never blocks beyond the
// index query.
type Controller struct {
	store StatusCounter
}

func NewController(store StatusCounter) *Controller {
	return &Controller{store: store}
}

// HasActiveRequest reports whether any record is in CREATED, IN_PROGRESS or
// IN_PROGRESS_IN_ERROR, short-circuiting on the first nonzero count. The
// check-then-act window between this read and the caller's conditional write
// is the accepted race documented in the orchestrator.
func (c *Controller) HasActiveRequest(ctx context.Context) (bool, error) {
	for _, status := range accounts.ActiveStatuses {
		count, err := c.store.CountByStatus(ctx, status)
		if err != nil {
			return false, fmt.Errorf("count %s requests: %w", status, err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
