package aws

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type mockSNSClient struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNSClient) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func TestSNSNotifier_Publish(t *testing.T) {
	mock := &mockSNSClient{}
	n := NewSNSNotifier(mock, "arn:aws:sns:us-east-1:123:cost-alerts")

	err := n.Publish(context.Background(), "AWS Cost Optimization Report - Potential Savings: $7.5", "body text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mock.inputs))
	}

	in := mock.inputs[0]
	if *in.TopicArn != "arn:aws:sns:us-east-1:123:cost-alerts" {
		t.Fatalf("unexpected topic %s", *in.TopicArn)
	}
	if *in.Subject != "AWS Cost Optimization Report - Potential Savings: $7.5" {
		t.Fatalf("unexpected subject %s", *in.Subject)
	}
	if *in.Message != "body text" {
		t.Fatalf("unexpected message %s", *in.Message)
	}
}

func TestSNSNotifier_Error(t *testing.T) {
	mock := &mockSNSClient{err: errors.New("NotFound: topic does not exist")}
	n := NewSNSNotifier(mock, "arn:aws:sns:us-east-1:123:missing")

	err := n.Publish(context.Background(), "s", "b")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "topic does not exist") {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestSNSNotifier_NoTopic(t *testing.T) {
	mock := &mockSNSClient{}
	err := NewSNSNotifier(mock, "").Publish(context.Background(), "s", "b")
	if err == nil {
		t.Fatal("expected error without topic")
	}
	if len(mock.inputs) != 0 {
		t.Fatal("expected no publish call")
	}
}

func TestTruncateSubject(t *testing.T) {
	short := "AWS Cost Optimization Report"
	if got := truncateSubject(short); got != short {
		t.Fatalf("expected unchanged subject, got %q", got)
	}

	long := strings.Repeat("é", 150)
	got := truncateSubject(long)
	if utf8.RuneCountInString(got) != maxSubjectLength {
		t.Fatalf("expected %d runes, got %d", maxSubjectLength, utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncated subject is not valid UTF-8")
	}
}
