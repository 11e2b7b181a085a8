// Package gemini implements llm.Completer on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"techstep-backend/internal/llm"
)

const providerName = "gemini"

// DefaultModel is used when LLM_MODEL is unset.
const DefaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Completer using Gemini GenerateContent.
type Client struct {
	models generator
	model  string
}

// NewClient builds a Gemini API client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newWithGenerator(gc.Models, model), nil
}

func newWithGenerator(g generator, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{models: g, model: strings.TrimSpace(model)}
}

// Complete sends the prompt with the system instruction and returns the text.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(in.Temperature),
	}
	if strings.TrimSpace(in.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(in.Prompt), cfg)
	if err != nil {
		return "", toProviderError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &llm.ProviderError{Provider: providerName, Message: "response missing candidates"}
	}
	if cand := resp.Candidates[0]; cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", &llm.ProviderError{Provider: providerName, Message: "candidate has no content"}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &llm.ProviderError{Provider: providerName, Message: "response empty content"}
	}
	return text, nil
}

func toProviderError(err error) error {
	pe := &llm.ProviderError{Provider: providerName, Message: err.Error(), Err: err}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
		pe.Message = apiErr.Message
	case errors.As(err, &apiErrPtr):
		pe.StatusCode = apiErrPtr.Code
		pe.Message = apiErrPtr.Message
	}
	return pe
}

var _ llm.Completer = (*Client)(nil)
