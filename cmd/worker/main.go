package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techstep-backend/internal/bootstrap"
	"techstep-backend/internal/shared/config"
	"techstep-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()
	if cfg.QueueURL == "" {
		log.Fatal("RA_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.RoleWorker)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", cfg.QueueURL, cfg.WorkerConcurrency, cfg.VisibilitySeconds)
	if err := workerproc.Run(ctx, workerConfig(app)); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func workerConfig(app *bootstrap.App) workerproc.Config {
	return workerproc.Config{
		Receiver:        app.Receiver,
		Processor:       app.FeedbackService,
		Concurrency:     app.Config.WorkerConcurrency,
		ShutdownTimeout: time.Duration(app.Config.ShutdownSeconds) * time.Second,
	}
}
