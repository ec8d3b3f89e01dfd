package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/aws"
	"github.com/tenantops/account-factory/internal/validation"
)

// HandlerConfig groups dependencies for the accounts handler.
type HandlerConfig struct {
	DynamoDBClient aws.DynamoDBAPI
	SQSClient      aws.SQSAPI
	AccountTable   string
	StatusIndex    string
	QueueURL       string
}

// RegisterAccountRoutes registers routes for the account submission API.
func RegisterAccountRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := accounts.NewStore(cfg.DynamoDBClient, cfg.AccountTable, cfg.StatusIndex)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)

	r.POST("/accounts", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateAccountRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		record := accounts.AccountRequest{
			AccountName:      req.AccountName,
			AccountEmail:     req.AccountEmail,
			OUName:           req.ManagedOrganizationalUnit,
			SSOUserEmail:     req.SSOUserEmail,
			SSOUserFirstName: req.SSOUserFirstName,
			SSOUserLastName:  req.SSOUserLastName,
			Status:           accounts.StatusQueued,
			CallbackURL:      req.CallbackURL,
			CallbackSecret:   req.CallbackSecret,
			QueuedAt:         time.Now().UTC(),
		}

		if err := store.Create(ctx, record); err != nil {
			if errors.Is(err, accounts.ErrAlreadyExists) {
				c.JSON(http.StatusConflict, gin.H{
					"error": "account_exists",
					"msg":   fmt.Sprintf("account name %q already exists", req.AccountName),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}

		correlationID := c.GetHeader("X-Request-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		body, _ := json.Marshal(req)
		attrs := map[string]string{
			"account_name":   req.AccountName,
			"correlation_id": correlationID,
		}
		if err := publisher.SendAccountMessage(ctx, req.AccountName, string(body), attrs); err != nil {
			// The record stays QUEUED; the client may retry the submission,
			// which re-enqueues under the same deduplication id.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		c.Header("Location", fmt.Sprintf("/accounts/%s", req.AccountName))
		c.JSON(http.StatusAccepted, accountView(&record))
	})

	r.GET("/accounts/:name", func(c *gin.Context) {
		record, err := store.Get(c.Request.Context(), c.Param("name"))
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, accountView(record))
	})

	r.DELETE("/accounts/:name", func(c *gin.Context) {
		ctx := c.Request.Context()
		name := c.Param("name")

		if _, err := store.Get(ctx, name); err != nil {
			if errors.Is(err, accounts.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}

		// A request can be withdrawn only before provisioning starts.
		err := store.DeleteIfStatus(ctx, name, accounts.StatusQueued)
		if errors.Is(err, accounts.ErrPreconditionFailed) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "creation_started",
				"msg":   fmt.Sprintf("account creation for %q has already started and cannot be deleted", name),
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// accountView is the read-only collaborator view of a record. The callback
// secret never leaves the store through the API.
func accountView(record *accounts.AccountRequest) gin.H {
	view := gin.H{
		"AccountName": record.AccountName,
		"OuName":      record.OUName,
		"Status":      record.Status,
		"QueuedAt":    record.QueuedAt,
	}
	if record.AccountID != "" {
		view["AccountId"] = record.AccountID
	}
	if !record.CreatedAt.IsZero() {
		view["CreatedAt"] = record.CreatedAt
	}
	if record.StatusMessage != "" {
		view["StatusMessage"] = record.StatusMessage
	}
	if record.CallbackURL != "" {
		view["CallbackUrl"] = record.CallbackURL
	}
	return view
}
