package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"techstep-backend/internal/feedback"
	"techstep-backend/internal/interviews"
	"techstep-backend/internal/jobs"
	"techstep-backend/internal/shared/config"
	"techstep-backend/internal/shared/metrics"
	"techstep-backend/internal/shared/server/middleware"
	"techstep-backend/internal/users"
)

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config           config.Config
	FeedbackHandler  *feedback.Handler
	InterviewHandler *interviews.Handler
	UserHandler      *users.Handler
	JobsHandler      *jobs.Handler
	DB               *sql.DB
	// RateLimiter is shared across requests; nil builds a fresh one.
	RateLimiter *middleware.RateLimiter
}

var rateRules = map[string]middleware.RateLimitRule{
	middleware.RateGroupDefault: {Rate: 10, Burst: 30},
	middleware.RateGroupLLM:     {Rate: 0.2, Burst: 5},
	middleware.RateGroupPolling: {Rate: 2, Burst: 10},
}

var routeGroups = map[string]string{
	"POST /api/v1/generate-interview-questions": middleware.RateGroupLLM,
	"POST /api/v1/resume-feedback":              middleware.RateGroupLLM,
	"POST /api/v1/submit-feedback":              middleware.RateGroupLLM,
	"GET /api/v1/feedback-status/:task_id":      middleware.RateGroupPolling,
	"GET /api/v1/feedback-result/:task_id":      middleware.RateGroupPolling,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rateRules,
			DefaultGroup: middleware.RateGroupDefault,
			GroupFor:     middleware.GroupByRoute(routeGroups),
			Limiter:      deps.RateLimiter,
		}),
	)

	health := healthHandler(deps.DB)
	r.GET("/health", health)

	api := r.Group("/api/v1")
	api.GET("/health", health)
	api.GET("/metrics", metrics.Handler())

	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.RegisterRoutes(api)
	}
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)
	}
	return r
}

func healthHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage := "memory"
		if sqlDB != nil {
			storage = "postgres"
			if err := sqlDB.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "database": storage})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
