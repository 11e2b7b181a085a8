package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMemoryVisibility = 30 * time.Second
	memoryPollInterval      = 200 * time.Millisecond
)

// MemoryQueue is an in-process queue for single-binary dev setups. It keeps
// SQS semantics: received messages stay in flight until deleted and are
// redelivered once their visibility timeout lapses.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []Delivery
	inFlight   map[string]inFlight
	visibility time.Duration
	now        func() time.Time
	notify     chan struct{}
}

type inFlight struct {
	delivery Delivery
	deadline time.Time
}

// NewMemoryQueue builds an empty queue. visibility <= 0 uses 30s.
func NewMemoryQueue(visibility time.Duration) *MemoryQueue {
	if visibility <= 0 {
		visibility = defaultMemoryVisibility
	}
	return &MemoryQueue{
		inFlight:   make(map[string]inFlight),
		visibility: visibility,
		now:        time.Now,
		notify:     make(chan struct{}, 1),
	}
}

// Send enqueues msg.
func (q *MemoryQueue) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode memory message: %w", err)
	}
	id := uuid.NewString()
	q.mu.Lock()
	q.ready = append(q.ready, Delivery{ID: id, Body: string(payload), handle: id})
	q.mu.Unlock()
	q.signal()
	return nil
}

// Receive blocks until at least one delivery is available or ctx ends.
func (q *MemoryQueue) Receive(ctx context.Context) ([]Delivery, error) {
	ticker := time.NewTicker(memoryPollInterval)
	defer ticker.Stop()
	for {
		if batch := q.take(receiveBatchSize); len(batch) > 0 {
			return batch, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// Delete acknowledges a delivery.
func (q *MemoryQueue) Delete(ctx context.Context, d Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inFlight[d.handle]; !ok {
		return fmt.Errorf("memory delete message %s: not in flight", d.ID)
	}
	delete(q.inFlight, d.handle)
	return nil
}

// Len reports ready plus in-flight messages.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) + len(q.inFlight)
}

func (q *MemoryQueue) take(max int) []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for handle, f := range q.inFlight {
		if now.Before(f.deadline) {
			continue
		}
		delete(q.inFlight, handle)
		q.ready = append(q.ready, f.delivery)
	}

	n := len(q.ready)
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	batch := make([]Delivery, n)
	copy(batch, q.ready[:n])
	q.ready = q.ready[n:]
	for i := range batch {
		batch[i].ReceiveCount++
		q.inFlight[batch[i].handle] = inFlight{delivery: batch[i], deadline: now.Add(q.visibility)}
	}
	return batch
}

func (q *MemoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

var (
	_ Client   = (*MemoryQueue)(nil)
	_ Receiver = (*MemoryQueue)(nil)
)
