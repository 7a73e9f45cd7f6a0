// Package inference defines the external NLP capabilities the quoting
// pipeline consumes and provides backends for them.
package inference

import (
	"context"
	"errors"
	"strings"
)

// Capability names used for metrics and logs.
const (
	CapabilityClassification    = "classification"
	CapabilityQuestionAnswering = "question_answering"
)

// LabelEntailment is the classification label meaning the hypothesis is
// supported by the premise.
const LabelEntailment = "entailment"

var (
	// ErrUnavailable indicates the capability is not configured or offline.
	ErrUnavailable = errors.New("inference capability unavailable")

	// ErrMalformedResponse indicates the backend answered with an unusable payload.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// Classification is the top label of an entailment query.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// IsEntailment reports whether the label is entailment, ignoring case.
func (c Classification) IsEntailment() bool {
	return strings.EqualFold(c.Label, LabelEntailment)
}

// Classifier scores whether hypothesis follows from premise.
type Classifier interface {
	Classify(ctx context.Context, premise, hypothesis string) (Classification, error)
}

// QuestionAnswerer extracts an answer span for question from passage.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question, passage string) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, premise, hypothesis string) (Classification, error)

func (f ClassifierFunc) Classify(ctx context.Context, premise, hypothesis string) (Classification, error) {
	return f(ctx, premise, hypothesis)
}

// AnswererFunc adapts a function to the QuestionAnswerer interface.
type AnswererFunc func(ctx context.Context, question, passage string) (string, error)

func (f AnswererFunc) Answer(ctx context.Context, question, passage string) (string, error) {
	return f(ctx, question, passage)
}

// Unavailable is a backend that always fails with ErrUnavailable, leaving
// the pipeline on its deterministic fallbacks.
type Unavailable struct{}

func (Unavailable) Classify(context.Context, string, string) (Classification, error) {
	return Classification{}, ErrUnavailable
}

func (Unavailable) Answer(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}
