package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"renovation-quoter/metrics"
)

const (
	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
)

const answerPrompt = `Answer the question using only a short span copied from the context.
If the context does not contain the answer, reply with "unknown".

Context:
%s

Question: %s
Answer:`

// LLMConfig configures an OpenAI-compatible chat model used for question answering.
type LLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// LLMAnswerer implements QuestionAnswerer by prompting a chat model for
// an extractive answer span.
type LLMAnswerer struct {
	llm   llms.Model
	model string
}

// NewLLMAnswerer creates an answerer backed by langchaingo's OpenAI client.
func NewLLMAnswerer(cfg LLMConfig) (*LLMAnswerer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLLMBaseURL
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	return &LLMAnswerer{llm: llm, model: cfg.Model}, nil
}

// Answer asks the model and returns its trimmed reply.
func (a *LLMAnswerer) Answer(ctx context.Context, question, passage string) (answer string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveInference(CapabilityQuestionAnswering, time.Since(start), err) }()

	prompt := fmt.Sprintf(answerPrompt, passage, question)
	out, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(32),
	)
	if err != nil {
		return "", fmt.Errorf("llm: %s: %w", a.model, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	return out, nil
}
