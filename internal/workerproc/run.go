package workerproc

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"techstep-backend/internal/queue"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	receiveErrorBackoff    = time.Second
)

// Config drives the poll loop.
type Config struct {
	Receiver        queue.Receiver
	Processor       Processor
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Run polls the receiver until ctx ends, processing up to Concurrency
// deliveries at once. On shutdown it waits up to ShutdownTimeout for
// in-flight work.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Receiver == nil || cfg.Processor == nil {
		return errors.New("workerproc: receiver and processor are required")
	}
	concurrency := max(1, cfg.Concurrency)
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	// In-flight work outlives ctx so a shutdown does not cut a completion short.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

pollLoop:
	for {
		if ctx.Err() != nil {
			break
		}

		batch, err := cfg.Receiver.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			log.Printf("receive message: %v", err)
			select {
			case <-ctx.Done():
				break pollLoop
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		for _, d := range batch {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(d queue.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				HandleDelivery(workCtx, cfg.Receiver, cfg.Processor, d)
			}(d)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight tasks", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight tasks")
		cancelWork()
	}
	return nil
}
