package feedback

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"techstep-backend/internal/llm"
	"techstep-backend/internal/shared/server/middleware"
	"techstep-backend/internal/shared/server/respond"
	"techstep-backend/internal/shared/telemetry"
	"techstep-backend/internal/shared/util"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	Svc      *Service
	Pipeline *Pipeline
}

func NewHandler(svc *Service, pipeline *Pipeline) *Handler {
	return &Handler{Svc: svc, Pipeline: pipeline}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate-interview-questions", h.generateQuestions)
	rg.POST("/resume-feedback", h.resumeFeedback)
	rg.POST("/submit-feedback", h.submitFeedback)
	rg.GET("/feedback-status/:task_id", h.feedbackStatus)
	rg.GET("/feedback-result/:task_id", h.feedbackResult)
}

type questionsForm struct {
	Resume      *multipart.FileHeader `form:"resume" binding:"required"`
	JobTitle    string                `form:"job_title" binding:"required"`
	Seniority   string                `form:"seniority" binding:"required"`
	Description string                `form:"description"`
}

type feedbackForm struct {
	Resume      *multipart.FileHeader `form:"resume" binding:"required"`
	JobTitle    string                `form:"job_title"`
	Seniority   string                `form:"seniority"`
	Description string                `form:"description"`
}

func (h *Handler) generateQuestions(c *gin.Context) {
	var form questionsForm
	if !bindUpload(c, &form) {
		return
	}
	if strings.TrimSpace(form.JobTitle) == "" || strings.TrimSpace(form.Seniority) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job_title and seniority are required", nil)
		return
	}
	data, ok := readUpload(c, form.Resume)
	if !ok {
		return
	}

	out, err := h.Pipeline.Questions(c.Request.Context(), data, llm.PromptInput{
		JobTitle:    strings.TrimSpace(form.JobTitle),
		Seniority:   strings.TrimSpace(form.Seniority),
		Description: strings.TrimSpace(form.Description),
	})
	if err != nil {
		completionError(c, err)
		return
	}
	if out.ExtractionEmpty {
		respond.OK(c, gin.H{"questions": out.Questions, "detail": ExtractionEmptyMessage})
		return
	}
	respond.OK(c, gin.H{"questions": out.Questions})
}

func (h *Handler) resumeFeedback(c *gin.Context) {
	var form feedbackForm
	if !bindUpload(c, &form) {
		return
	}
	data, ok := readUpload(c, form.Resume)
	if !ok {
		return
	}

	out, err := h.Pipeline.Feedback(c.Request.Context(), data, llm.PromptInput{
		JobTitle:    strings.TrimSpace(form.JobTitle),
		Seniority:   strings.TrimSpace(form.Seniority),
		Description: strings.TrimSpace(form.Description),
	})
	if err != nil {
		completionError(c, err)
		return
	}
	respond.OK(c, gin.H{"feedback": out.Text})
}

func (h *Handler) submitFeedback(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var form feedbackForm
	if !bindUpload(c, &form) {
		return
	}
	data, ok := readUpload(c, form.Resume)
	if !ok {
		return
	}

	task, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		FileName:    form.Resume.Filename,
		Data:        data,
		JobTitle:    form.JobTitle,
		Seniority:   form.Seniority,
		Description: form.Description,
		RequestID:   middleware.RequestIDFromContext(c),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		telemetry.Error("feedback.submit_failed", map[string]any{
			"error":      err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit feedback task", nil)
		return
	}
	c.Set(middleware.TaskIDKey, task.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{"task_id": task.ID, "status": task.Status})
}

func (h *Handler) feedbackStatus(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{"task_id": task.ID, "status": task.Status})
}

func (h *Handler) feedbackResult(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	switch task.Status {
	case StatusSuccess:
		respond.OK(c, gin.H{"task_id": task.ID, "status": task.Status, "feedback": task.Result})
	case StatusFailure:
		respond.Error(c, http.StatusInternalServerError, "task_failed", task.Error, gin.H{"task_id": task.ID})
	default:
		respond.JSON(c, http.StatusAccepted, gin.H{
			"task_id": task.ID,
			"status":  task.Status,
			"detail":  "still processing",
		})
	}
}

func (h *Handler) loadTask(c *gin.Context) (Task, bool) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return Task{}, false
	}
	id := strings.TrimSpace(c.Param("task_id"))
	c.Set(middleware.TaskIDKey, id)
	task, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "task not found", nil)
			return Task{}, false
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load task", nil)
		return Task{}, false
	}
	return task, true
}

func bindUpload(c *gin.Context, form any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.ShouldBind(form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "resume exceeds 10MB limit", nil)
			return false
		}
		if details := respond.ValidationDetails(err); details != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "request failed validation", details)
			return false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return false
	}
	return true
}

func readUpload(c *gin.Context, fh *multipart.FileHeader) ([]byte, bool) {
	if fh.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "resume exceeds 10MB limit", nil)
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
		return nil, false
	}
	if len(data) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume file is empty", nil)
		return nil, false
	}
	if !util.IsPDFName(fh.Filename) {
		// Non-PDF uploads are still attempted; extraction yields no text.
		telemetry.Warn("feedback.upload_not_pdf", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"filename":   fh.Filename,
		})
	}
	return data, true
}

func completionError(c *gin.Context, err error) {
	var pe *llm.ProviderError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "provider_error", "completion provider not configured", nil)
	case errors.As(err, &pe):
		details := gin.H{"provider": pe.Provider}
		if pe.StatusCode != 0 {
			details["status"] = pe.StatusCode
		}
		respond.Error(c, http.StatusBadGateway, "provider_error", fmt.Sprintf("completion failed: %s", pe.Message), details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate response", nil)
	}
}
