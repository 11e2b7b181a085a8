package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"techstep-backend/internal/llm"
	"techstep-backend/internal/queue"
	"techstep-backend/internal/shared/metrics"
	"techstep-backend/internal/shared/storage/object"
	"techstep-backend/internal/shared/telemetry"
	"techstep-backend/internal/shared/util"
)

const uploadContentType = "application/pdf"

// Service owns async feedback tasks: submission, execution on the worker and
// status lookups.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Queue    queue.Client
	Pipeline *Pipeline

	now   func() time.Time
	newID func() string
}

// NewService wires a Service.
func NewService(repo Repo, store object.ObjectStore, q queue.Client, pipeline *Pipeline) *Service {
	return &Service{
		Repo:     repo,
		Store:    store,
		Queue:    q,
		Pipeline: pipeline,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Submit stores the upload, records a pending task and enqueues it.
// If enqueueing fails the task is marked failed and the error returned.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Task, error) {
	if len(in.Data) == 0 {
		return Task{}, fmt.Errorf("%w: resume file is empty", ErrInvalidInput)
	}

	id := s.newID()
	key := object.FeedbackUploadKey(id)
	if _, err := s.Store.Put(ctx, key, uploadContentType, bytes.NewReader(in.Data)); err != nil {
		return Task{}, fmt.Errorf("store upload: %w", err)
	}

	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		fileName = ""
	}
	now := s.now()
	task := Task{
		ID:          id,
		Status:      StatusPending,
		SourceKey:   key,
		FileName:    fileName,
		JobTitle:    strings.TrimSpace(in.JobTitle),
		Seniority:   strings.TrimSpace(in.Seniority),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, task); err != nil {
		s.cleanupUpload(ctx, task)
		return Task{}, fmt.Errorf("create task: %w", err)
	}

	if err := s.Queue.Send(ctx, queue.NewMessage(id, in.RequestID, now)); err != nil {
		msg := "enqueue failed: " + err.Error()
		if markErr := s.Repo.MarkFailed(ctx, id, msg, s.now()); markErr != nil {
			telemetry.Error("feedback.mark_failed_error", map[string]any{"task_id": id, "error": markErr})
		}
		s.cleanupUpload(ctx, task)
		return Task{}, fmt.Errorf("enqueue task: %w", err)
	}

	metrics.IncFeedbackSubmitted()
	telemetry.Info("feedback.submitted", map[string]any{
		"task_id":       id,
		"request_id":    in.RequestID,
		"bytes":         len(in.Data),
		"resume_sha256": util.ContentDigest(in.Data),
	})
	return task, nil
}

// Process runs the pipeline for taskID and records the terminal state.
// Pipeline failures are recorded and returned as *TaskFailedError; storage
// errors and interrupted runs are returned as-is so the message is
// redelivered. A task that is already terminal is left untouched.
func (s *Service) Process(ctx context.Context, taskID string) error {
	task, err := s.Repo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task.Status.IsTerminal() {
		s.logAlreadyTerminal(taskID, "load")
		return nil
	}

	if err := s.Repo.MarkStarted(ctx, taskID, s.now()); err != nil {
		if errors.Is(err, ErrAlreadyTerminal) {
			s.logAlreadyTerminal(taskID, "start")
			return nil
		}
		return fmt.Errorf("mark started %s: %w", taskID, err)
	}
	metrics.IncFeedbackStarted()

	data, err := object.ReadAll(ctx, s.Store, task.SourceKey)
	if errors.Is(err, object.ErrNotFound) {
		return s.recordFailure(ctx, task, fmt.Errorf("upload %s missing: %w", task.SourceKey, err))
	}
	if err != nil {
		return fmt.Errorf("load upload %s: %w", task.SourceKey, err)
	}

	outcome, err := s.Pipeline.Feedback(WithTaskID(ctx, taskID), data, llm.PromptInput{
		JobTitle:    task.JobTitle,
		Seniority:   task.Seniority,
		Description: task.Description,
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("process %s interrupted: %w", taskID, err)
		}
		return s.recordFailure(ctx, task, err)
	}

	if err := s.Repo.MarkSucceeded(ctx, taskID, outcome.Text, s.now()); err != nil {
		if errors.Is(err, ErrAlreadyTerminal) {
			s.logAlreadyTerminal(taskID, "succeed")
			return nil
		}
		return fmt.Errorf("mark succeeded %s: %w", taskID, err)
	}
	metrics.IncFeedbackSucceeded()
	s.cleanupUpload(ctx, task)
	telemetry.Info("feedback.completed", map[string]any{
		"task_id":          taskID,
		"extraction_empty": outcome.ExtractionEmpty,
	})
	return nil
}

func (s *Service) recordFailure(ctx context.Context, task Task, cause error) error {
	if err := s.Repo.MarkFailed(ctx, task.ID, cause.Error(), s.now()); err != nil {
		if errors.Is(err, ErrAlreadyTerminal) {
			s.logAlreadyTerminal(task.ID, "fail")
			return nil
		}
		return fmt.Errorf("mark failed %s: %w", task.ID, err)
	}
	metrics.IncFeedbackFailed()
	s.cleanupUpload(ctx, task)
	telemetry.Error("feedback.failed", map[string]any{"task_id": task.ID, "error": cause})
	return &TaskFailedError{TaskID: task.ID, Err: cause}
}

func (s *Service) logAlreadyTerminal(taskID, step string) {
	telemetry.Info("feedback.already_terminal", map[string]any{"task_id": taskID, "step": step})
}

func (s *Service) cleanupUpload(ctx context.Context, task Task) {
	if err := s.Store.Delete(ctx, task.SourceKey); err != nil {
		telemetry.Warn("feedback.upload_cleanup_failed", map[string]any{"task_id": task.ID, "error": err})
	}
}

// Status returns the current status of a task.
func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return task.Status, nil
}

// Get returns a task by id. Malformed ids are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (Task, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return Task{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, strings.TrimSpace(id))
}
