package interviews

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"techstep-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.create)
	rg.GET("/interviews", h.list)
	rg.GET("/interviews/next", h.upcoming)
	rg.GET("/interviews/:id", h.get)
	rg.PUT("/interviews/:id", h.update)
	rg.DELETE("/interviews/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	iv, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "failed to create interview")
		return
	}
	respond.Created(c, iv)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list interviews")
		return
	}
	respond.OK(c, items)
}

func (h *Handler) upcoming(c *gin.Context) {
	items, err := h.Svc.Upcoming(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list upcoming interviews")
		return
	}
	respond.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	iv, err := h.Svc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		writeError(c, err, "failed to load interview")
		return
	}
	respond.OK(c, iv)
}

func (h *Handler) update(c *gin.Context) {
	var patch UpdateInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.BindError(c, err)
		return
	}
	iv, err := h.Svc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), patch)
	if err != nil {
		writeError(c, err, "failed to update interview")
		return
	}
	respond.OK(c, iv)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		writeError(c, err, "failed to delete interview")
		return
	}
	respond.OK(c, gin.H{"detail": "interview deleted"})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
