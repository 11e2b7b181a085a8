package workerproc

import (
	"context"
	"errors"
	"strings"

	"techstep-backend/internal/feedback"
	"techstep-backend/internal/queue"
	"techstep-backend/internal/shared/metrics"
	"techstep-backend/internal/shared/telemetry"
	"techstep-backend/internal/shared/util"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.ContentDigest([]byte(body))}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingTaskID indicates a message without a task id.
type ErrMissingTaskID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingTaskID) Error() string { return "missing task id" }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.TaskID) == "" {
		return msg, meta, ErrMissingTaskID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Processor runs one feedback task by id.
type Processor interface {
	Process(ctx context.Context, taskID string) error
}

// Outcome is what happened to one delivery.
type Outcome string

const (
	OutcomeCompleted     Outcome = "completed"
	OutcomeFailed        Outcome = "failed"
	OutcomeUnrecoverable Outcome = "unrecoverable"
	OutcomeRetry         Outcome = "retry"
)

// HandleDelivery parses and processes d. The delivery is deleted when the task
// reached a terminal state or the message can never succeed; otherwise it is
// left for redelivery.
func HandleDelivery(ctx context.Context, recv queue.Receiver, proc Processor, d queue.Delivery) Outcome {
	metrics.IncWorkerMessagesReceived()
	if d.ReceiveCount > 1 {
		metrics.IncWorkerRedeliveries()
	}

	msg, meta, err := ParseMessage(d.Body)
	if err != nil {
		fields := baseFields(d, msg.TaskID, msg.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.feedback."+parseFailureEvent(err), fields)
		return unrecoverable(ctx, recv, d, msg)
	}

	telemetry.Info("worker.feedback.received", baseFields(d, msg.TaskID, msg.RequestID))

	err = proc.Process(ctx, msg.TaskID)
	var failed *feedback.TaskFailedError
	switch {
	case err == nil:
		if deleteDelivery(ctx, recv, d, msg) {
			telemetry.Info("worker.feedback.completed", baseFields(d, msg.TaskID, msg.RequestID))
		}
		return OutcomeCompleted
	case errors.As(err, &failed):
		fields := baseFields(d, msg.TaskID, msg.RequestID)
		fields["error"] = failed.Err.Error()
		telemetry.Error("worker.feedback.failed", fields)
		deleteDelivery(ctx, recv, d, msg)
		return OutcomeFailed
	case errors.Is(err, feedback.ErrNotFound):
		fields := baseFields(d, msg.TaskID, msg.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.feedback.unknown_task", fields)
		return unrecoverable(ctx, recv, d, msg)
	default:
		fields := baseFields(d, msg.TaskID, msg.RequestID)
		fields["error"] = err.Error()
		telemetry.Warn("worker.feedback.retry", fields)
		return OutcomeRetry
	}
}

func parseFailureEvent(err error) string {
	switch err.(type) {
	case ErrEmptyBody:
		return "empty_body"
	case ErrMissingTaskID:
		return "missing_id"
	default:
		return "decode_failed"
	}
}

func unrecoverable(ctx context.Context, recv queue.Receiver, d queue.Delivery, msg queue.Message) Outcome {
	if deleteDelivery(ctx, recv, d, msg) {
		metrics.IncWorkerMessagesDeletedUnrecoverable()
	}
	return OutcomeUnrecoverable
}

func deleteDelivery(ctx context.Context, recv queue.Receiver, d queue.Delivery, msg queue.Message) bool {
	if err := recv.Delete(ctx, d); err != nil {
		fields := baseFields(d, msg.TaskID, msg.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.feedback.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(d queue.Delivery, taskID, requestID string) map[string]any {
	fields := map[string]any{
		"task_id":       taskID,
		"message_id":    d.ID,
		"receive_count": d.ReceiveCount,
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}
