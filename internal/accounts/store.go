package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/tenantops/account-factory/internal/aws"
)

// Sentinel errors callers branch on.
var (
	// ErrNotFound indicates no record exists for the account name.
	ErrNotFound = errors.New("account request not found")
	// ErrAlreadyExists indicates a record with the account name already exists.
	ErrAlreadyExists = errors.New("account request already exists")
	// ErrPreconditionFailed indicates the stored status no longer matched the
	// expected status at write time (another worker advanced the record).
	ErrPreconditionFailed = errors.New("stored status did not match expected status")
)

// Store encapsulates operations on the account requests table.
type Store struct {
	client      aws.DynamoDBAPI
	tableName   string
	statusIndex string
	nowFunc     func() time.Time
}

// NewStore creates a Store bound to a table and its status GSI.
func NewStore(client aws.DynamoDBAPI, tableName, statusIndex string) *Store {
	return &Store{
		client:      client,
		tableName:   tableName,
		statusIndex: statusIndex,
		nowFunc:     time.Now,
	}
}

// Get fetches a request by account name. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, accountName string) (*AccountRequest, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"account_name": &types.AttributeValueMemberS{Value: accountName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var req AccountRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, fmt.Errorf("unmarshal account request: %w", err)
	}
	return &req, nil
}

// Create stores a new request. Returns ErrAlreadyExists when the account name
// is taken (atomic check-and-put).
func (s *Store) Create(ctx context.Context, req AccountRequest) error {
	if req.QueuedAt.IsZero() {
		req.QueuedAt = s.nowFunc()
	}
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal account request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(account_name)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Mutation is the set of fields a conditional update may change. Status is
// required; the rest apply only when set, so already-written values are
// refreshed but never cleared.
type Mutation struct {
	Status        Status
	ExternalJobID string
	AccountID     string
	StatusMessage string
	CreatedAt     time.Time
}

// ConditionalUpdate applies mut to the record, conditioned on the stored
// status still being expected. updated_at is always refreshed. Returns
// ErrPreconditionFailed when a concurrent mutation won the race.
func (s *Store) ConditionalUpdate(ctx context.Context, accountName string, expected Status, mut Mutation) error {
	if mut.Status == "" {
		return errors.New("mutation requires a status")
	}

	sets := []string{"#s = :new", "updated_at = :ua"}
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: string(mut.Status)},
		":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
		":expected": &types.AttributeValueMemberS{Value: string(expected)},
	}
	if mut.ExternalJobID != "" {
		sets = append(sets, "record_id = :rid")
		values[":rid"] = &types.AttributeValueMemberS{Value: mut.ExternalJobID}
	}
	if mut.AccountID != "" {
		sets = append(sets, "account_id = :aid")
		values[":aid"] = &types.AttributeValueMemberS{Value: mut.AccountID}
	}
	if mut.StatusMessage != "" {
		sets = append(sets, "status_message = :sm")
		values[":sm"] = &types.AttributeValueMemberS{Value: mut.StatusMessage}
	}
	if !mut.CreatedAt.IsZero() {
		sets = append(sets, "created_at = :ca")
		values[":ca"] = &types.AttributeValueMemberS{Value: mut.CreatedAt.UTC().Format(time.RFC3339)}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"account_name": &types.AttributeValueMemberS{Value: accountName},
		},
		UpdateExpression:          awsString("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("#s = :expected"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrPreconditionFailed
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// CountByStatus returns the number of records with the given status, via the
// status GSI. Used for admission control only; correctness rests on
// ConditionalUpdate, not on this count.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                &s.tableName,
		IndexName:                &s.statusIndex,
		KeyConditionExpression:   awsString("#s = :s"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
		},
		Select: types.SelectCount,
		Limit:  awsInt32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("query status index: %w", err)
	}
	return int(out.Count), nil
}

// DeleteIfStatus removes the record only while its status still matches
// expected. Used by the cancellation path: a request can be withdrawn until
// provisioning starts. Returns ErrPreconditionFailed when the record is gone
// or its status moved on.
func (s *Store) DeleteIfStatus(ctx context.Context, accountName string, expected Status) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"account_name": &types.AttributeValueMemberS{Value: accountName},
		},
		ConditionExpression:      awsString("attribute_exists(account_name) AND #s = :expected"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
		},
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrPreconditionFailed
		}
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Delete removes the record unconditionally. Used by the notifier to clean up
// requests that finished in a non-SUCCEEDED state.
func (s *Store) Delete(ctx context.Context, accountName string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"account_name": &types.AttributeValueMemberS{Value: accountName},
		},
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsInt32(n int32) *int32    { return &n }
