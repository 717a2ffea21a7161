package aws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// maxSubjectLength keeps subjects under the 100 character SNS limit.
const maxSubjectLength = 99

// SNSAPI is the minimal interface for SNS operations.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes reports to an SNS topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

// NewSNSNotifier creates a notifier for the given topic.
func NewSNSNotifier(client SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// Publish sends one message to the topic.
func (n *SNSNotifier) Publish(ctx context.Context, subject, body string) error {
	if n.topicARN == "" {
		return errors.New("sns: no topic ARN configured")
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.topicARN),
		Subject:  awssdk.String(truncateSubject(subject)),
		Message:  awssdk.String(body),
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", n.topicARN, err)
	}

	var messageID string
	if out != nil {
		messageID = deref(out.MessageId)
	}
	slog.Debug("Published SNS message", "topic", n.topicARN, "message_id", messageID)
	return nil
}

// truncateSubject keeps the subject within the SNS limit, counted in runes.
func truncateSubject(s string) string {
	r := []rune(s)
	if len(r) <= maxSubjectLength {
		return s
	}
	return string(r[:maxSubjectLength])
}
