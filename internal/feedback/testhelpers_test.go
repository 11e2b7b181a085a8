package feedback

import (
	"context"
	"errors"
	"sync"

	"techstep-backend/internal/llm"
	"techstep-backend/internal/queue"
)

type stubCompleter struct {
	mu       sync.Mutex
	out      string
	err      error
	requests []llm.CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.out, s.err
}

func (s *stubCompleter) lastRequest() llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return llm.CompletionRequest{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type failingQueue struct{}

func (failingQueue) Send(ctx context.Context, msg queue.Message) error {
	return errors.New("broker unavailable")
}

func fixedExtract(text string) func(context.Context, []byte, int) (string, error) {
	return func(ctx context.Context, data []byte, maxWords int) (string, error) {
		return text, nil
	}
}

const sampleResume = "Led a team of 5 engineers; built a payments platform"

var fakePDF = []byte("%PDF-1.4 fake resume bytes")
