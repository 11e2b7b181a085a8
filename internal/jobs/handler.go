package jobs

import (
	"errors"
	"net/http"

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
	rg.GET("/repositories-available", h.repositories)
	rg.GET("/job-listings", h.listings)
}

func (h *Handler) repositories(c *gin.Context) {
	respond.OK(c, h.Svc.Available())
}

func (h *Handler) listings(c *gin.Context) {
	items, err := h.Svc.Listings(c.Request.Context(), c.Query("repository"))
	if err != nil {
		if errors.Is(err, ErrUnknownRepository) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "repository not available",
				gin.H{"available": h.Svc.Available()})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job listings", nil)
		return
	}
	respond.OK(c, items)
}
