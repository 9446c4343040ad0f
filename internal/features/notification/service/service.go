package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"pronet-backend/internal/features/notification/models"
)

// Notifier delivers activity messages at most once, fire-and-forget. Callers
// must never fail a request because of a delivery error.
type Notifier interface {
	Publish(ctx context.Context, activity models.Activity) error
}

type sqsNotifier struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSNotifier creates a Notifier backed by an SQS queue.
func NewSQSNotifier(client *sqs.Client, queueURL string) Notifier {
	return &sqsNotifier{client: client, queueURL: queueURL}
}

func (n *sqsNotifier) Publish(ctx context.Context, activity models.Activity) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send activity message: %w", err)
	}
	return nil
}
