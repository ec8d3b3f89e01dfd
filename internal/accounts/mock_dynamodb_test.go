package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a small in-memory stand-in for the DynamoDB operations the
// store uses, including the conditional expressions. Not production-grade.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
	deleteCalls int
	queryCalls  int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func keyName(attrs map[string]types.AttributeValue) (string, error) {
	attr, ok := attrs["account_name"]
	if !ok {
		return "", errors.New("missing account_name")
	}
	s, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("account_name is not a string")
	}
	return s.Value, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k, err := keyName(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	k, err := keyName(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(account_name)" {
		if _, ok := m.table[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k, err := keyName(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	// condition: #s = :expected
	if params.ConditionExpression != nil {
		expected := params.ExpressionAttributeValues[":expected"]
		current := item["status"]
		es, eok := expected.(*types.AttributeValueMemberS)
		cs, cok := current.(*types.AttributeValueMemberS)
		if !eok || !cok || es.Value != cs.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	apply := map[string]string{
		":new": "status",
		":ua":  "updated_at",
		":rid": "record_id",
		":aid": "account_id",
		":sm":  "status_message",
		":ca":  "created_at",
	}
	for placeholder, attr := range apply {
		if v, ok := params.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *simpleMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	k, err := keyName(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.table[k]
	if params.ConditionExpression != nil {
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		if strings.Contains(*params.ConditionExpression, "#s = :expected") {
			expected := params.ExpressionAttributeValues[":expected"]
			es, eok := expected.(*types.AttributeValueMemberS)
			cs, cok := item["status"].(*types.AttributeValueMemberS)
			if !eok || !cok || es.Value != cs.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	delete(m.table, k)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *simpleMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	want, ok := params.ExpressionAttributeValues[":s"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing :s value")
	}
	var count int32
	for _, item := range m.table {
		if s, ok := item["status"].(*types.AttributeValueMemberS); ok && s.Value == want.Value {
			count++
		}
	}
	if params.Limit != nil && count > *params.Limit {
		count = *params.Limit
	}
	return &dyn.QueryOutput{Count: count}, nil
}
