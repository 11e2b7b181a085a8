package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"techstep-backend/internal/extract"
	"techstep-backend/internal/llm"
	"techstep-backend/internal/shared/metrics"
	"techstep-backend/internal/shared/telemetry"
)

// Stage names a step of one pipeline run.
type Stage string

const (
	StageReceived        Stage = "received"
	StageExtracting      Stage = "extracting"
	StageExtractionEmpty Stage = "extraction_empty"
	StagePrompting       Stage = "prompting"
	StageCompleting      Stage = "completing"
	StageSucceeded       Stage = "succeeded"
	StageFailed          Stage = "failed"
)

// ExtractionEmptyMessage is the result reported when a PDF has no readable text.
const ExtractionEmptyMessage = "Could not extract text from the PDF. Please upload a text-based PDF resume."

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the result of a feedback run.
type Outcome struct {
	Text            string
	ExtractionEmpty bool
}

// QuestionsOutcome is the result of an interview-questions run.
type QuestionsOutcome struct {
	Questions       []string
	Raw             string
	ExtractionEmpty bool
}

// Pipeline runs extract, prompt and complete for one résumé. The same body
// serves inline HTTP requests and queued tasks.
type Pipeline struct {
	Completer llm.Completer
	MaxWords  int
	// Extract defaults to extract.ExtractPDF.
	Extract func(ctx context.Context, data []byte, maxWords int) (string, error)
}

// NewPipeline builds a pipeline. maxWords <= 0 uses extract.DefaultMaxWords.
func NewPipeline(c llm.Completer, maxWords int) *Pipeline {
	if maxWords <= 0 {
		maxWords = extract.DefaultMaxWords
	}
	return &Pipeline{Completer: c, MaxWords: maxWords, Extract: extract.ExtractPDF}
}

type run struct {
	kind   string
	taskID string
}

type taskIDKey struct{}

// WithTaskID tags pipeline logs with a task id.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, taskID)
}

func taskIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}

// Feedback produces résumé improvement feedback.
func (p *Pipeline) Feedback(ctx context.Context, pdf []byte, in llm.PromptInput) (Outcome, error) {
	text, empty, err := p.execute(ctx, run{kind: "feedback", taskID: taskIDFromContext(ctx)}, pdf, in, llm.BuildFeedbackPrompt, llm.FeedbackSystemPrompt, llm.FeedbackTemperature)
	if err != nil {
		return Outcome{}, err
	}
	if empty {
		return Outcome{Text: ExtractionEmptyMessage, ExtractionEmpty: true}, nil
	}
	return Outcome{Text: text}, nil
}

// Questions produces interview questions for the target role.
func (p *Pipeline) Questions(ctx context.Context, pdf []byte, in llm.PromptInput) (QuestionsOutcome, error) {
	text, empty, err := p.execute(ctx, run{kind: "questions", taskID: taskIDFromContext(ctx)}, pdf, in, llm.BuildQuestionsPrompt, llm.QuestionsSystemPrompt, llm.QuestionsTemperature)
	if err != nil {
		return QuestionsOutcome{}, err
	}
	if empty {
		return QuestionsOutcome{Questions: []string{}, ExtractionEmpty: true}, nil
	}
	return QuestionsOutcome{Questions: llm.ParseQuestions(text), Raw: text}, nil
}

func (p *Pipeline) execute(ctx context.Context, r run, pdf []byte, in llm.PromptInput, build func(llm.PromptInput) string, system string, temperature float32) (string, bool, error) {
	p.log(r, StageReceived, map[string]any{"bytes": len(pdf)})

	p.log(r, StageExtracting, nil)
	extractFn := p.Extract
	if extractFn == nil {
		extractFn = extract.ExtractPDF
	}
	text, err := extractFn(ctx, pdf, p.MaxWords)
	if err != nil {
		return "", false, p.fail(r, StageExtracting, err)
	}
	in.ResumeText = text
	if strings.TrimSpace(in.ResumeText) == "" {
		metrics.IncFeedbackExtractionEmpty()
		p.log(r, StageExtractionEmpty, nil)
		return "", true, nil
	}

	p.log(r, StagePrompting, map[string]any{"resume_words": len(strings.Fields(in.ResumeText))})
	prompt := build(in)

	if p.Completer == nil {
		return "", false, p.fail(r, StageCompleting, llm.ErrNotConfigured)
	}
	p.log(r, StageCompleting, nil)
	start := time.Now()
	out, err := p.Completer.Complete(ctx, llm.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: temperature,
	})
	metrics.ObserveCompletionDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncCompletionErrors()
		return "", false, p.fail(r, StageCompleting, err)
	}

	out = strings.TrimSpace(out)
	p.log(r, StageSucceeded, map[string]any{"output_chars": len(out)})
	return out, false, nil
}

func (p *Pipeline) fail(r run, stage Stage, err error) error {
	p.log(r, StageFailed, map[string]any{"failed_stage": stage, "error": err})
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) log(r run, stage Stage, extra map[string]any) {
	fields := map[string]any{
		"pipeline": r.kind,
		"stage":    string(stage),
	}
	if r.taskID != "" {
		fields["task_id"] = r.taskID
	}
	for k, v := range extra {
		fields[k] = v
	}
	if stage == StageFailed {
		telemetry.Error("feedback.stage", fields)
		return
	}
	telemetry.Info("feedback.stage", fields)
}
