package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"techstep-backend/internal/feedback"
	"techstep-backend/internal/interviews"
	"techstep-backend/internal/jobs"
	"techstep-backend/internal/llm"
	"techstep-backend/internal/llm/gemini"
	"techstep-backend/internal/llm/openai"
	"techstep-backend/internal/queue"
	"techstep-backend/internal/shared/auth"
	"techstep-backend/internal/shared/config"
	"techstep-backend/internal/shared/server"
	"techstep-backend/internal/shared/storage/db"
	"techstep-backend/internal/shared/storage/object"
	localstore "techstep-backend/internal/shared/storage/object/local"
	s3store "techstep-backend/internal/shared/storage/object/s3"
	"techstep-backend/internal/users"
)

// Role selects connection pool sizing for the binary being built.
type Role string

const (
	RoleAPI    Role = "api"
	RoleWorker Role = "worker"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Queue     queue.Client
	Receiver  queue.Receiver
	Completer llm.Completer
	Pipeline  *feedback.Pipeline

	FeedbackService   *feedback.Service
	InterviewsService *interviews.Service
	UsersService      *users.Service
	JobsService       *jobs.Service

	// InProcessQueue is set when no broker is configured and the API binary
	// must run the worker loop itself.
	InProcessQueue bool
}

// Build prepares dependencies and the router.
func Build(ctx context.Context, cfg config.Config, role Role) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg, role)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if err := buildQueue(ctx, app); err != nil {
		return nil, err
	}

	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Completer = completer

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		FeedbackHandler:  feedback.NewHandler(app.FeedbackService, app.Pipeline),
		InterviewHandler: interviews.NewHandler(app.InterviewsService),
		UserHandler:      users.NewHandler(app.UsersService),
		JobsHandler:      jobs.NewHandler(app.JobsService),
		DB:               app.DB,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config, role Role) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	defaults := db.DefaultServerOptions()
	if role == RoleWorker {
		defaults = db.DefaultWorkerOptions(cfg.WorkerConcurrency)
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if cfg.AutoMigrate && role == RoleAPI {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, app *App) error {
	cfg := app.Config
	if cfg.QueueURL == "" {
		if !cfg.IsDevLike() {
			return fmt.Errorf("RA_SQS_QUEUE_URL is required")
		}
		log.Printf("bootstrap: RA_SQS_QUEUE_URL empty; using in-process queue")
		mem := queue.NewMemoryQueue(time.Duration(cfg.VisibilitySeconds) * time.Second)
		app.Queue, app.Receiver, app.InProcessQueue = mem, mem, true
		return nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion, cfg.VisibilitySeconds)
	if err != nil {
		return err
	}
	app.Queue, app.Receiver = client, client
	return nil
}

func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	var (
		c   llm.Completer
		err error
	)
	switch cfg.LLMProvider {
	case "gemini":
		c, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case "openai":
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		c, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, opts...)
	default:
		return llm.PlaceholderClient{}, nil
	}
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: %s client unavailable; completions disabled: %v", cfg.LLMProvider, err)
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return c, nil
}

func buildServices(app *App) error {
	var (
		feedbackRepo  feedback.Repo
		interviewRepo interviews.Repo
		userRepo      users.Repo
	)
	if app.DB != nil {
		feedbackRepo = &feedback.PGRepo{DB: app.DB}
		interviewRepo = &interviews.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		feedbackRepo = feedback.NewMemoryRepo()
		interviewRepo = interviews.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	hasher, err := auth.NewPasswordHasher(app.Config.BcryptCost)
	if err != nil {
		return err
	}

	app.Pipeline = feedback.NewPipeline(app.Completer, app.Config.MaxResumeWords)
	app.FeedbackService = feedback.NewService(feedbackRepo, app.Store, app.Queue, app.Pipeline)
	app.InterviewsService = interviews.NewService(interviewRepo, app.Config.UpcomingWindowDays)
	app.UsersService = users.NewService(userRepo, hasher)
	app.JobsService = jobs.NewService(jobs.NewClient(app.Config.GitHubAPIURL, app.Config.GitHubToken))
	return nil
}
