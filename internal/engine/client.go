// Package engine fronts the external account factory. Starting a provisioning
// job is not idempotent: calling twice creates two external workflows, so
// callers gate every start behind the admission check and a conditional
// store write.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	sc "github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	sctypes "github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/aws"
)

var (
	// ErrInvalidParameters indicates the engine rejected the request
	// parameters. Caller error, never retryable.
	ErrInvalidParameters = errors.New("provisioning parameters rejected")
	// ErrJobNotFound indicates the engine has no record of the job id.
	// Fatal for the request: the orchestrator only describes jobs it started.
	ErrJobNotFound = errors.New("provisioning job not found")
	// ErrEngineUnavailable indicates a transient engine failure; retryable.
	ErrEngineUnavailable = errors.New("provisioning engine unavailable")
)

// accountIDOutputKey is the record output carrying the provisioned account id.
const accountIDOutputKey = "AccountId"

// Parameters are the inputs to a provisioning job.
type Parameters struct {
	AccountName      string
	AccountEmail     string
	OUName           string
	SSOUserEmail     string
	SSOUserFirstName string
	SSOUserLastName  string
}

// Job describes a freshly started provisioning job.
type Job struct {
	ExternalJobID string
	Status        accounts.Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobStatus is the result of polling a provisioning job.
type JobStatus struct {
	Status    accounts.Status
	UpdatedAt time.Time
	AccountID string // empty until the engine reports it
}

// Client is a façade over the Service Catalog account factory.
type Client struct {
	api     aws.ServiceCatalogAPI
	catalog Catalog
}

// NewClient returns a Client provisioning from the given catalog product.
func NewClient(api aws.ServiceCatalogAPI, catalog Catalog) *Client {
	return &Client{api: api, catalog: catalog}
}

// StartProvisioning launches a provisioning job for the account.
// Returns ErrInvalidParameters when the engine rejects the inputs, otherwise
// ErrEngineUnavailable wrapping the transient cause.
func (c *Client) StartProvisioning(ctx context.Context, params Parameters) (*Job, error) {
	input := &sc.ProvisionProductInput{
		ProductId:              &c.catalog.ProductID,
		ProvisioningArtifactId: &c.catalog.ProvisioningArtifactID,
		ProvisionedProductName: &params.AccountName,
		ProvisionToken:         strPtr(uuid.NewString()),
		ProvisioningParameters: provisioningParameters(params),
	}

	out, err := c.api.ProvisionProduct(ctx, input)
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "InvalidParametersException" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, ae.ErrorMessage())
		}
		return nil, fmt.Errorf("%w: provision product: %v", ErrEngineUnavailable, err)
	}
	if out.RecordDetail == nil || out.RecordDetail.RecordId == nil {
		return nil, fmt.Errorf("%w: provision product returned no record", ErrEngineUnavailable)
	}

	detail := out.RecordDetail
	job := &Job{
		ExternalJobID: *detail.RecordId,
		Status:        accounts.Status(detail.Status),
	}
	if detail.CreatedTime != nil {
		job.CreatedAt = *detail.CreatedTime
	}
	if detail.UpdatedTime != nil {
		job.UpdatedAt = *detail.UpdatedTime
	}
	return job, nil
}

// DescribeJob polls the engine for the current status of a job.
func (c *Client) DescribeJob(ctx context.Context, externalJobID string) (*JobStatus, error) {
	out, err := c.api.DescribeRecord(ctx, &sc.DescribeRecordInput{Id: &externalJobID})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ResourceNotFoundException" {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, externalJobID)
		}
		return nil, fmt.Errorf("%w: describe record: %v", ErrEngineUnavailable, err)
	}
	if out.RecordDetail == nil {
		return nil, fmt.Errorf("%w: describe record returned no detail", ErrEngineUnavailable)
	}

	status := &JobStatus{Status: accounts.Status(out.RecordDetail.Status)}
	if out.RecordDetail.UpdatedTime != nil {
		status.UpdatedAt = *out.RecordDetail.UpdatedTime
	}
	for _, output := range out.RecordOutputs {
		if output.OutputKey != nil && *output.OutputKey == accountIDOutputKey && output.OutputValue != nil {
			status.AccountID = *output.OutputValue
			break
		}
	}
	return status, nil
}

func provisioningParameters(params Parameters) []sctypes.ProvisioningParameter {
	kv := []struct{ key, value string }{
		{"AccountName", params.AccountName},
		{"AccountEmail", params.AccountEmail},
		{"ManagedOrganizationalUnit", params.OUName},
		{"SSOUserEmail", params.SSOUserEmail},
		{"SSOUserFirstName", params.SSOUserFirstName},
		{"SSOUserLastName", params.SSOUserLastName},
	}
	out := make([]sctypes.ProvisioningParameter, 0, len(kv))
	for _, p := range kv {
		p := p
		out = append(out, sctypes.ProvisioningParameter{Key: &p.key, Value: &p.value})
	}
	return out
}

func strPtr(s string) *string { return &s }
