package accounts

import "time"

// Status is the lifecycle status of an account request. Transitions only move
// forward: QUEUED -> {CREATED, IN_PROGRESS, IN_PROGRESS_IN_ERROR} -> {SUCCEEDED, FAILED}.
type Status string

const (
	StatusQueued            Status = "QUEUED"
	StatusCreated           Status = "CREATED"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusInProgressInError Status = "IN_PROGRESS_IN_ERROR"
	StatusSucceeded         Status = "SUCCEEDED"
	StatusFailed            Status = "FAILED"
)

// ActiveStatuses are the statuses of a request with a provisioning job
// currently running in the account factory. The admission gate keys on these.
var ActiveStatuses = []Status{StatusCreated, StatusInProgress, StatusInProgressInError}

// Terminal reports whether no further transitions can occur from s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Active reports whether s indicates a provisioning job in flight.
func (s Status) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// AccountRequest is the item stored in the account requests DynamoDB table.
// account_name is the partition key; a status-keyed GSI backs admission counts.
type AccountRequest struct {
	AccountName      string    `dynamodbav:"account_name"` // PK, immutable
	AccountEmail     string    `dynamodbav:"account_email"`
	OUName           string    `dynamodbav:"ou_name"`
	SSOUserEmail     string    `dynamodbav:"sso_user_email"`
	SSOUserFirstName string    `dynamodbav:"sso_user_first_name"`
	SSOUserLastName  string    `dynamodbav:"sso_user_last_name"`
	Status           Status    `dynamodbav:"status"`
	ExternalJobID    string    `dynamodbav:"record_id,omitempty"` // provisioning record id, set on start
	AccountID        string    `dynamodbav:"account_id,omitempty"`
	StatusMessage    string    `dynamodbav:"status_message,omitempty"`
	CallbackURL      string    `dynamodbav:"callback_url,omitempty"`
	CallbackSecret   string    `dynamodbav:"callback_secret,omitempty"`
	QueuedAt         time.Time `dynamodbav:"queued_at"`
	CreatedAt        time.Time `dynamodbav:"created_at,omitempty"`
	UpdatedAt        time.Time `dynamodbav:"updated_at,omitempty"`
}
