package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techstep-backend/internal/bootstrap"
	"techstep-backend/internal/shared/config"
	"techstep-backend/internal/shared/server"
	"techstep-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.RoleAPI)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	workerDone := make(chan struct{})
	if app.InProcessQueue {
		log.Printf("starting in-process feedback worker concurrency=%d", cfg.WorkerConcurrency)
		go func() {
			defer close(workerDone)
			if err := workerproc.Run(ctx, workerproc.Config{
				Receiver:        app.Receiver,
				Processor:       app.FeedbackService,
				Concurrency:     cfg.WorkerConcurrency,
				ShutdownTimeout: time.Duration(cfg.ShutdownSeconds) * time.Second,
			}); err != nil {
				log.Printf("in-process worker: %v", err)
			}
		}()
	} else {
		close(workerDone)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
}
