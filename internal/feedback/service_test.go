package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techstep-backend/internal/llm"
	"techstep-backend/internal/queue"
	"techstep-backend/internal/shared/storage/object"
	"techstep-backend/internal/shared/storage/object/local"
)

type serviceFixture struct {
	svc   *Service
	repo  *MemoryRepo
	store *local.Store
	queue *queue.MemoryQueue
	comp  *stubCompleter
}

func newServiceFixture(t *testing.T, comp *stubCompleter, extracted string) serviceFixture {
	t.Helper()
	repo := NewMemoryRepo()
	store := local.New(t.TempDir())
	q := queue.NewMemoryQueue(0)
	p := NewPipeline(comp, 0)
	p.Extract = fixedExtract(extracted)
	return serviceFixture{
		svc:   NewService(repo, store, q, p),
		repo:  repo,
		store: store,
		queue: q,
		comp:  comp,
	}
}

func TestSubmitCreatesPendingTaskAndEnqueues(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{out: "feedback"}, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF, JobTitle: " Backend Engineer "})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, "Backend Engineer", task.JobTitle)
	assert.Equal(t, object.FeedbackUploadKey(task.ID), task.SourceKey)
	assert.Equal(t, 1, f.queue.Len())

	status, err := f.svc.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	stored, err := object.ReadAll(ctx, f.store, task.SourceKey)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, stored)

	deliveries, err := f.queue.Receive(ctx)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	msg, err := queue.DecodeMessage([]byte(deliveries[0].Body))
	require.NoError(t, err)
	assert.Equal(t, task.ID, msg.TaskID)
}

func TestSubmitRejectsEmptyUpload(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)

	_, err := f.svc.Submit(context.Background(), SubmitInput{FileName: "cv.pdf"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Zero(t, f.queue.Len())
}

func TestSubmitEnqueueFailureMarksTaskFailed(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)
	f.svc.Queue = failingQueue{}
	f.svc.newID = func() string { return "11111111-1111-1111-1111-111111111111" }

	_, err := f.svc.Submit(context.Background(), SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.Error(t, err)

	task, err := f.repo.GetByID(context.Background(), "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, task.Status)
	assert.Contains(t, task.Error, "broker unavailable")
}

func TestProcessSuccessStoresFeedback(t *testing.T) {
	comp := &stubCompleter{out: "  Clarity: tighten the summary.  "}
	f := newServiceFixture(t, comp, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF, JobTitle: "Backend Engineer", Seniority: "Senior"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Process(ctx, task.ID))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "Clarity: tighten the summary.", got.Result)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)

	req := comp.lastRequest()
	assert.Contains(t, req.Prompt, sampleResume)
	assert.Contains(t, req.Prompt, "Backend Engineer")
	for _, category := range llm.FeedbackCategories {
		assert.Contains(t, req.Prompt, category)
	}

	_, err = f.store.Open(ctx, task.SourceKey)
	assert.True(t, errors.Is(err, object.ErrNotFound), "upload should be removed after completion")
}

func TestProcessExtractionEmptyIsSuccess(t *testing.T) {
	comp := &stubCompleter{out: "unused"}
	f := newServiceFixture(t, comp, "")
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "scan.pdf", Data: fakePDF})
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, task.ID))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, ExtractionEmptyMessage, got.Result)
	assert.Zero(t, comp.calls())
}

func TestProcessCompletionErrorRecordsFailure(t *testing.T) {
	comp := &stubCompleter{err: &llm.ProviderError{Provider: "openai", StatusCode: 500, Message: "upstream exploded"}}
	f := newServiceFixture(t, comp, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.NoError(t, err)

	err = f.svc.Process(ctx, task.ID)
	var failed *TaskFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, task.ID, failed.TaskID)

	var pe *llm.ProviderError
	assert.True(t, errors.As(err, &pe))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, got.Status)
	assert.Contains(t, got.Error, "upstream exploded")
}

func TestProcessMissingUploadIsTerminal(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{out: "ok"}, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, task.SourceKey))

	err = f.svc.Process(ctx, task.ID)
	var failed *TaskFailedError
	require.True(t, errors.As(err, &failed))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, got.Status)
}

func TestProcessSkipsTerminalTask(t *testing.T) {
	comp := &stubCompleter{out: "first"}
	f := newServiceFixture(t, comp, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, task.ID))
	require.NoError(t, f.svc.Process(ctx, task.ID))

	assert.Equal(t, 1, comp.calls())
}

func TestProcessUnknownTask(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)

	err := f.svc.Process(context.Background(), "22222222-2222-2222-2222-222222222222")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetRejectsMalformedID(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)

	_, err := f.svc.Get(context.Background(), "not-a-uuid")
	assert.True(t, errors.Is(err, ErrNotFound))
}

type hookCompleter struct {
	hook func(ctx context.Context) (string, error)
}

func (h hookCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return h.hook(ctx)
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, task Task) error {
	return errors.New("insert failed")
}

func TestProcessRedeliveryDoesNotOverwriteTerminalTask(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)
	ctx := context.Background()

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.NoError(t, err)

	// The first delivery finishes while this one is still waiting on the provider.
	f.svc.Pipeline.Completer = hookCompleter{hook: func(ctx context.Context) (string, error) {
		require.NoError(t, f.repo.MarkSucceeded(ctx, task.ID, "real feedback", f.svc.now()))
		return "", &llm.ProviderError{Provider: "openai", Message: "boom"}
	}}

	require.NoError(t, f.svc.Process(ctx, task.ID))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "real feedback", got.Result)
	assert.Empty(t, got.Error)
}

func TestMemoryRepoRejectsTerminalTransitions(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, Task{ID: "t1", Status: StatusPending}))
	require.NoError(t, repo.MarkStarted(ctx, "t1", now))
	require.NoError(t, repo.MarkFailed(ctx, "t1", "boom", now))

	assert.True(t, errors.Is(repo.MarkSucceeded(ctx, "t1", "late", now), ErrAlreadyTerminal))
	assert.True(t, errors.Is(repo.MarkStarted(ctx, "t1", now), ErrAlreadyTerminal))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestProcessInterruptedRunIsLeftForRedelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)

	task, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.NoError(t, err)
	f.svc.Pipeline.Extract = func(ctx context.Context, data []byte, maxWords int) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	err = f.svc.Process(ctx, task.ID)
	require.Error(t, err)
	var failed *TaskFailedError
	assert.False(t, errors.As(err, &failed))
	assert.True(t, errors.Is(err, context.Canceled))

	got, err := f.repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, got.Status)
	assert.NotEqual(t, ExtractionEmptyMessage, got.Result)

	_, err = object.ReadAll(context.Background(), f.store, task.SourceKey)
	assert.NoError(t, err, "upload must survive for the redelivery")
}

func TestSubmitCreateFailureRemovesUpload(t *testing.T) {
	f := newServiceFixture(t, &stubCompleter{}, sampleResume)
	f.svc.Repo = failingCreateRepo{MemoryRepo: f.repo}
	f.svc.newID = func() string { return "33333333-3333-3333-3333-333333333333" }
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{FileName: "cv.pdf", Data: fakePDF})
	require.Error(t, err)

	_, err = f.store.Open(ctx, object.FeedbackUploadKey("33333333-3333-3333-3333-333333333333"))
	assert.True(t, errors.Is(err, object.ErrNotFound))
	assert.Zero(t, f.queue.Len())
}
