package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"techstep-backend/internal/shared/server/middleware"
	"techstep-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts account routes. PUT and DELETE act only on the
// caller's own account.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/register", h.register)
	rg.POST("/users/login", h.login)
	rg.GET("/users/me", middleware.RequireUser(), h.me)
	rg.GET("/users/:id", h.get)
	rg.PUT("/users/:id", middleware.RequireUser(), h.update)
	rg.DELETE("/users/:id", middleware.RequireUser(), h.delete)
}

func (h *Handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "failed to register user")
		return
	}
	respond.Created(c, user)
}

func (h *Handler) login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	user, token, err := h.Svc.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		writeError(c, err, "failed to log in")
		return
	}
	respond.OK(c, gin.H{
		"user":         user,
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load user")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) get(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load user")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) update(c *gin.Context) {
	if !h.ownsAccount(c) {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	user, err := h.Svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err, "failed to update user")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) delete(c *gin.Context) {
	if !h.ownsAccount(c) {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete user")
		return
	}
	respond.OK(c, gin.H{"detail": "user deleted"})
}

func (h *Handler) ownsAccount(c *gin.Context) bool {
	if middleware.UserIDFromContext(c) != c.Param("id") {
		respond.Error(c, http.StatusForbidden, "forbidden", "cannot modify another user", nil)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
