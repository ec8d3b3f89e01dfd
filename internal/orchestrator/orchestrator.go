// Package orchestrator decides, for each queued account request message,
// whether to start provisioning, poll the in-flight provisioning job, or
// discard the message. The account requests table is the single source of
// truth; every mutation is a conditional write keyed on the expected prior
// status, so duplicate and out-of-order deliveries settle as no-ops instead
// of duplicate provisioning attempts.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/tenantops/account-factory/internal/accounts"
	"github.com/tenantops/account-factory/internal/engine"
)

// Message is the body of an account request queue message. Only AccountName
// is required; the remaining submission fields ride along and are ignored
// here because the stored record is authoritative.
type Message struct {
	AccountName string `json:"AccountName"`
}

// RequestStore is the store capability the orchestrator needs.
type RequestStore interface {
	Get(ctx context.Context, accountName string) (*accounts.AccountRequest, error)
	ConditionalUpdate(ctx context.Context, accountName string, expected accounts.Status, mut accounts.Mutation) error
}

// AdmissionGate answers whether any provisioning job is currently active.
type AdmissionGate interface {
	HasActiveRequest(ctx context.Context) (bool, error)
}

// Engine is the provisioning engine capability the orchestrator needs.
type Engine interface {
	StartProvisioning(ctx context.Context, params engine.Parameters) (*engine.Job, error)
	DescribeJob(ctx context.Context, externalJobID string) (*engine.JobStatus, error)
}

// Recorder counts orchestration events. Implementations must be best-effort;
// the orchestrator never checks for failure.
type Recorder interface {
	Count(ctx context.Context, metric string)
}

// Metric names handed to the Recorder.
const (
	MetricProvisioningStarted = "ProvisioningStarted"
	MetricAdmissionDenied     = "AdmissionDenied"
	MetricRequestFailed       = "RequestFailed"
	MetricRequestSucceeded    = "RequestSucceeded"
)

// Orchestrator runs the per-message state machine.
type Orchestrator struct {
	store     RequestStore
	admission AdmissionGate
	engine    Engine
	recorder  Recorder
}

func New(store RequestStore, admission AdmissionGate, eng Engine, recorder Recorder) *Orchestrator {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Orchestrator{store: store, admission: admission, engine: eng, recorder: recorder}
}

// Process runs one message body through the state machine and returns the
// outcome the queue adapter should apply to the message.
func (o *Orchestrator) Process(ctx context.Context, body string) Outcome {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		log.Printf("[orchestrator] invalid message body, discarding: %v", err)
		return ack("malformed message body")
	}
	if msg.AccountName == "" {
		log.Printf("[orchestrator] message body missing AccountName, discarding")
		return ack("missing account name")
	}

	req, err := o.store.Get(ctx, msg.AccountName)
	if errors.Is(err, accounts.ErrNotFound) {
		log.Printf("[orchestrator] account %q does not exist, discarding", msg.AccountName)
		return ack("account request not found")
	}
	if err != nil {
		log.Printf("[orchestrator] unable to load account %q: %v", msg.AccountName, err)
		return retry("store unavailable")
	}

	if req.Status.Terminal() {
		log.Printf("[orchestrator] account %q already %s, discarding", req.AccountName, req.Status)
		return ack("request already terminal")
	}

	if req.Status != accounts.StatusQueued {
		return o.poll(ctx, req)
	}

	return o.start(ctx, req)
}

// poll refreshes an active record from the engine. The message is discardable
// only once the job reaches a terminal status; otherwise it goes back to the
// queue and the visibility timeout sets the polling interval.
func (o *Orchestrator) poll(ctx context.Context, req *accounts.AccountRequest) Outcome {
	if req.ExternalJobID == "" {
		// Active status without a job id should not happen; nothing to poll.
		log.Printf("[orchestrator] account %q has status %s but no job id, discarding", req.AccountName, req.Status)
		return ack("active request without job id")
	}

	job, err := o.engine.DescribeJob(ctx, req.ExternalJobID)
	if errors.Is(err, engine.ErrJobNotFound) {
		return o.failRequest(ctx, req, "provisioning job "+req.ExternalJobID+" not found")
	}
	if err != nil {
		log.Printf("[orchestrator] unable to describe job %s for account %q: %v", req.ExternalJobID, req.AccountName, err)
		return retry("engine unavailable")
	}
	if job == nil {
		log.Printf("[orchestrator] engine returned no status for job %s", req.ExternalJobID)
		return retry("engine returned no job status")
	}

	if job.Status != req.Status || (job.AccountID != "" && job.AccountID != req.AccountID) {
		mut := accounts.Mutation{Status: job.Status, AccountID: job.AccountID}
		err := o.store.ConditionalUpdate(ctx, req.AccountName, req.Status, mut)
		if errors.Is(err, accounts.ErrPreconditionFailed) {
			// Another worker already applied a newer status.
			log.Printf("[orchestrator] account %q status was no longer %s", req.AccountName, req.Status)
			if job.Status.Terminal() {
				return ack("terminal status already recorded")
			}
			return retry("provisioning in progress")
		}
		if err != nil {
			log.Printf("[orchestrator] unable to update account %q: %v", req.AccountName, err)
			return retry("store unavailable")
		}
	}

	if job.Status.Terminal() {
		if job.Status == accounts.StatusSucceeded {
			o.recorder.Count(ctx, MetricRequestSucceeded)
		} else {
			o.recorder.Count(ctx, MetricRequestFailed)
		}
		log.Printf("[orchestrator] account %q reached %s, discarding", req.AccountName, job.Status)
		return ack("provisioning finished")
	}
	return retry("provisioning in progress")
}

// start admits and launches provisioning for a QUEUED record. The admission
// count and the conditional write are two separate steps; the write is the
// correctness guarantee, the count is backpressure. Two workers racing
// distinct QUEUED records inside that window can briefly both pass the gate.
func (o *Orchestrator) start(ctx context.Context, req *accounts.AccountRequest) Outcome {
	active, err := o.admission.HasActiveRequest(ctx)
	if err != nil {
		log.Printf("[orchestrator] admission check failed for account %q: %v", req.AccountName, err)
		return retry("store unavailable")
	}
	if active {
		o.recorder.Count(ctx, MetricAdmissionDenied)
		log.Printf("[orchestrator] provisioning already active, leaving account %q in queue", req.AccountName)
		return retry("another provisioning job is active")
	}

	log.Printf("[orchestrator] no active requests, starting provisioning for account %q", req.AccountName)

	job, err := o.engine.StartProvisioning(ctx, engine.Parameters{
		AccountName:      req.AccountName,
		AccountEmail:     req.AccountEmail,
		OUName:           req.OUName,
		SSOUserEmail:     req.SSOUserEmail,
		SSOUserFirstName: req.SSOUserFirstName,
		SSOUserLastName:  req.SSOUserLastName,
	})
	if errors.Is(err, engine.ErrInvalidParameters) {
		return o.failRequest(ctx, req, err.Error())
	}
	if err != nil {
		log.Printf("[orchestrator] unable to start provisioning for account %q: %v", req.AccountName, err)
		return retry("engine unavailable")
	}

	o.recorder.Count(ctx, MetricProvisioningStarted)

	mut := accounts.Mutation{
		Status:        job.Status,
		ExternalJobID: job.ExternalJobID,
		CreatedAt:     job.CreatedAt,
	}
	err = o.store.ConditionalUpdate(ctx, req.AccountName, accounts.StatusQueued, mut)
	if errors.Is(err, accounts.ErrPreconditionFailed) {
		// Duplicate delivery: another worker already advanced this record.
		// Same as success; the job is running and redelivery will poll it.
		log.Printf("[orchestrator] account %q was no longer QUEUED", req.AccountName)
		return retry("provisioning started")
	}
	if err != nil {
		log.Printf("[orchestrator] unable to record job %s for account %q: %v", job.ExternalJobID, req.AccountName, err)
		return retry("store unavailable")
	}

	// Not done yet: redelivery of this message drives polling of the job.
	return retry("provisioning started")
}

// failRequest settles the record at FAILED with a diagnostic. The failure is
// recorded, never propagated; the message does not return to the queue.
func (o *Orchestrator) failRequest(ctx context.Context, req *accounts.AccountRequest, reason string) Outcome {
	log.Printf("[orchestrator] account %q failed: %s", req.AccountName, reason)

	mut := accounts.Mutation{Status: accounts.StatusFailed, StatusMessage: reason}
	err := o.store.ConditionalUpdate(ctx, req.AccountName, req.Status, mut)
	if errors.Is(err, accounts.ErrPreconditionFailed) {
		log.Printf("[orchestrator] account %q status was no longer %s", req.AccountName, req.Status)
		return ack("request already advanced")
	}
	if err != nil {
		log.Printf("[orchestrator] unable to mark account %q failed: %v", req.AccountName, err)
		return retry("store unavailable")
	}

	o.recorder.Count(ctx, MetricRequestFailed)
	if req.Status == accounts.StatusQueued {
		return ack("invalid provisioning parameters")
	}
	return deadLetter(reason)
}

type noopRecorder struct{}

func (noopRecorder) Count(context.Context, string) {}
