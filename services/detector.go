package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"renovation-quoter/inference"
	"renovation-quoter/metrics"
	"renovation-quoter/models"
	"renovation-quoter/utils"
)

// EntailmentThreshold is the score a classification must strictly exceed
// for its task to be detected.
const EntailmentThreshold = 0.5

// TaskStrategy is one tier of task detection. An empty result or an error
// hands over to the next tier.
type TaskStrategy interface {
	Name() string
	Detect(ctx context.Context, transcript string) ([]models.Task, error)
}

// Detector finds which vocabulary tasks a transcript talks about by
// trying its strategies in order; the first non-empty result wins.
type Detector struct {
	strategies []TaskStrategy
	logger     *utils.Logger
}

// NewDetector creates a Detector over the given strategy chain.
func NewDetector(logger *utils.Logger, strategies ...TaskStrategy) *Detector {
	return &Detector{strategies: strategies, logger: logger}
}

// NewDefaultDetector builds the classifier → keyword chain.
func NewDefaultDetector(classifier inference.Classifier, opts DetectorOptions, logger *utils.Logger) *Detector {
	return NewDetector(logger,
		NewClassifierStrategy(classifier, opts, logger),
		NewKeywordStrategy(),
	)
}

// Detect returns the detected tasks in vocabulary order. It never fails:
// strategy errors are logged and the next strategy is tried.
func (d *Detector) Detect(ctx context.Context, transcript string) []models.Task {
	for i, s := range d.strategies {
		tasks, err := s.Detect(ctx, transcript)
		if err != nil {
			d.logger.Warn("[detector] %s strategy failed, falling back: %v", s.Name(), err)
			continue
		}
		if len(tasks) == 0 {
			d.logger.Debug("[detector] %s strategy found no tasks", s.Name())
			continue
		}

		if i > 0 {
			metrics.Fallbacks.WithLabelValues("detector", s.Name()).Inc()
		}
		d.logger.Info("[detector] %s strategy detected %d task(s)", s.Name(), len(tasks))
		return tasks
	}

	d.logger.Info("[detector] No tasks detected")
	return []models.Task{}
}

// DetectorOptions tunes the classifier fan-out.
type DetectorOptions struct {
	// Timeout bounds each classification call. Zero means no extra bound.
	Timeout        time.Duration
	MaxConcurrency int
	RateLimitMs    int
}

// ClassifierStrategy asks an entailment classifier, once per task, whether
// the client wants that task.
type ClassifierStrategy struct {
	classifier inference.Classifier
	tasks      []models.Task
	opts       DetectorOptions
	logger     *utils.Logger
}

// NewClassifierStrategy creates a strategy over the full task vocabulary.
func NewClassifierStrategy(classifier inference.Classifier, opts DetectorOptions, logger *utils.Logger) *ClassifierStrategy {
	return &ClassifierStrategy{
		classifier: classifier,
		tasks:      models.AllTasks(),
		opts:       opts,
		logger:     logger,
	}
}

func (s *ClassifierStrategy) Name() string { return "classifier" }

// Hypothesis is the entailment hypothesis asserting task.
func Hypothesis(task models.Task) string {
	return "The client wants to " + task.String()
}

type verdict struct {
	entailed bool
	err      error
}

// Detect classifies every task concurrently. Any failed call fails the
// whole tier and cancels the calls still in flight.
func (s *ClassifierStrategy) Detect(ctx context.Context, transcript string) ([]models.Task, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := utils.NewWorkerPool(s.opts.MaxConcurrency, s.opts.RateLimitMs)
	verdicts := utils.Map(ctx, pool, s.tasks, func(ctx context.Context, task models.Task) verdict {
		if err := ctx.Err(); err != nil {
			return verdict{err: err}
		}

		callCtx := ctx
		if s.opts.Timeout > 0 {
			var cancelCall context.CancelFunc
			callCtx, cancelCall = context.WithTimeout(ctx, s.opts.Timeout)
			defer cancelCall()
		}

		res, err := s.classifier.Classify(callCtx, transcript, Hypothesis(task))
		if err != nil {
			cancel()
			return verdict{err: fmt.Errorf("classify %q: %w", task, err)}
		}

		s.logger.Debug("[detector] %q → %s (%.3f)", task, res.Label, res.Score)
		return verdict{entailed: res.IsEntailment() && res.Score > EntailmentThreshold}
	})

	var firstErr error
	tasks := make([]models.Task, 0, len(s.tasks))
	for i, v := range verdicts {
		if v.err != nil {
			// Prefer the root failure over the cancellations it caused.
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(v.err, context.Canceled)) {
				firstErr = v.err
			}
			continue
		}
		if v.entailed {
			tasks = append(tasks, s.tasks[i])
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return tasks, nil
}

// KeywordStrategy matches each task's literal name against the transcript,
// ignoring case and whitespace.
type KeywordStrategy struct {
	tasks []models.Task
}

// NewKeywordStrategy creates a strategy over the full task vocabulary.
func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{tasks: models.AllTasks()}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Detect(_ context.Context, transcript string) ([]models.Task, error) {
	haystack := compact(transcript)
	tasks := make([]models.Task, 0)
	if haystack == "" {
		return tasks, nil
	}

	for _, t := range s.tasks {
		if strings.Contains(haystack, compact(t.String())) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// compact lower-cases s and strips all whitespace.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
