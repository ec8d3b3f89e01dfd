package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// accountMessageGroup is the single FIFO message group all account requests
// share, keeping queue delivery ordered while the orchestrator drains one
// provisioning job at a time.
const accountMessageGroup = "accounts"

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendAccountMessage sends an account request message to the FIFO queue.
// messageBody should be a JSON string. accountName doubles as the
// deduplication id so a resubmitted request inside the dedupe window does not
// enqueue twice. attributes map[string]string -> sent as MessageAttributes.
func (p *Publisher) SendAccountMessage(ctx context.Context, accountName, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:               &p.QueueURL,
		MessageBody:            &messageBody,
		MessageDeduplicationId: &accountName,
		MessageGroupId:         awsString(accountMessageGroup),
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// using string type for all attrs
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: &v,
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
