package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"renovation-quoter/metrics"
	"renovation-quoter/utils"
)

const (
	DefaultHuggingFaceURL  = "https://api-inference.huggingface.co"
	DefaultClassifierModel = "facebook/bart-large-mnli"
	DefaultQAModel         = "distilbert-base-cased-distilled-squad"
)

// HuggingFaceConfig configures the Hugging Face Inference API backend.
// Any server exposing the same /models/{model} contract works, including
// a self-hosted inference endpoint.
type HuggingFaceConfig struct {
	BaseURL         string
	Token           string
	ClassifierModel string
	QAModel         string
	MaxRetries      int
	RateLimitMs     int
}

// Validate checks the configuration.
func (c HuggingFaceConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("huggingface: base URL required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("huggingface: invalid base URL: %w", err)
	}
	if c.ClassifierModel == "" || c.QAModel == "" {
		return errors.New("huggingface: classifier and QA models required")
	}
	return nil
}

// HuggingFaceClient implements Classifier and QuestionAnswerer against the
// Hugging Face Inference API.
type HuggingFaceClient struct {
	cfg     HuggingFaceConfig
	client  *http.Client
	limiter *rate.Limiter
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

// NewHuggingFaceClient creates a ready-to-use client. Timeouts come from
// the caller's context.
func NewHuggingFaceClient(cfg HuggingFaceConfig, logger *utils.Logger) (*HuggingFaceClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimitMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.RateLimitMs)*time.Millisecond), 1)
	}

	return &HuggingFaceClient{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: limiter,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
			Retryable:   isRetryable,
		},
		logger: logger,
	}, nil
}

type pairInputs struct {
	Text     string `json:"text"`
	TextPair string `json:"text_pair"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type hfRequest struct {
	Inputs  any       `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type qaResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// Classify runs an NLI query and returns the top-scoring label.
func (c *HuggingFaceClient) Classify(ctx context.Context, premise, hypothesis string) (result Classification, err error) {
	start := time.Now()
	defer func() { metrics.ObserveInference(CapabilityClassification, time.Since(start), err) }()

	var raw json.RawMessage
	req := hfRequest{
		Inputs:  pairInputs{Text: premise, TextPair: hypothesis},
		Options: hfOptions{WaitForModel: true},
	}
	if err = c.post(ctx, c.cfg.ClassifierModel, req, &raw); err != nil {
		return Classification{}, err
	}

	labels, err := decodeLabels(raw)
	if err != nil {
		return Classification{}, err
	}

	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return best, nil
}

// Answer runs an extractive QA query and returns the answer span.
func (c *HuggingFaceClient) Answer(ctx context.Context, question, passage string) (answer string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveInference(CapabilityQuestionAnswering, time.Since(start), err) }()

	var resp qaResponse
	req := hfRequest{
		Inputs:  qaInputs{Question: question, Context: passage},
		Options: hfOptions{WaitForModel: true},
	}
	if err = c.post(ctx, c.cfg.QAModel, req, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// decodeLabels accepts both the flat [{label,score}] and the batched
// [[{label,score}]] response shapes.
func decodeLabels(raw json.RawMessage) ([]Classification, error) {
	var nested [][]Classification
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	var flat []Classification
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	return nil, fmt.Errorf("%w: no labels in %s", ErrMalformedResponse, truncate(string(raw), 200))
}

func (c *HuggingFaceClient) post(ctx context.Context, model string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("huggingface: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + model

	return c.retry.Do(ctx, "huggingface "+model, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("huggingface: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("huggingface: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &retryableError{err: fmt.Errorf("huggingface: request failed: %w", err)}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &retryableError{err: fmt.Errorf("huggingface: read response: %w", err)}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &retryableError{err: fmt.Errorf("huggingface: status %d: %s",
				resp.StatusCode, truncate(string(respBody), 200))}
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		c.logger.Debug("[huggingface] %s answered in %d bytes", model, len(respBody))
		return nil
	})
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
