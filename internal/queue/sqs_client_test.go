package queue

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	sent     []string
	deleted  []string
	messages []sqstypes.Message
	lastRecv *sqs.ReceiveMessageInput
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.lastRecv = in
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSClientSendReceiveDelete(t *testing.T) {
	fake := &fakeSQS{
		messages: []sqstypes.Message{{
			MessageId:     aws.String("m1"),
			ReceiptHandle: aws.String("r1"),
			Body:          aws.String(`{"taskId":"t1"}`),
			Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
		}},
	}
	client := NewSQSClientWithAPI(fake, "https://sqs.test/queue", 0)
	ctx := context.Background()

	if err := client.Send(ctx, NewMessage("t1", "req", time.Now())); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one send")
	}
	decoded, err := DecodeMessage([]byte(fake.sent[0]))
	if err != nil || decoded.TaskID != "t1" {
		t.Fatalf("unexpected sent body %q", fake.sent[0])
	}

	batch, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if fake.lastRecv.VisibilityTimeout != defaultVisibilitySeconds {
		t.Fatalf("expected default visibility, got %d", fake.lastRecv.VisibilityTimeout)
	}
	if len(batch) != 1 || batch[0].ID != "m1" || batch[0].ReceiveCount != 3 {
		t.Fatalf("unexpected batch %+v", batch)
	}

	if err := client.Delete(ctx, batch[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "r1" {
		t.Fatalf("unexpected deletes %v", fake.deleted)
	}
}

func TestSQSClientDeleteRequiresHandle(t *testing.T) {
	client := NewSQSClientWithAPI(&fakeSQS{}, "q", 60)
	if err := client.Delete(context.Background(), Delivery{ID: "m"}); err == nil {
		t.Fatalf("expected error for missing receipt handle")
	}
}
