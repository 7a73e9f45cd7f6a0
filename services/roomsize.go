package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"renovation-quoter/inference"
	"renovation-quoter/metrics"
	"renovation-quoter/utils"
)

const (
	// DefaultRoomSize is used when the transcript gives no usable size.
	DefaultRoomSize = 5.0

	// RoomSizeQuestion is posed to the question-answering capability.
	RoomSizeQuestion = "What is the bathroom size in square meters?"
)

var (
	// roomSizeRegexp captures a number written directly against its unit, e.g. "5.5m²"
	roomSizeRegexp = regexp.MustCompile(`(\d+\.?\d*)(?:m²|m2)`)
	// numberRegexp captures the first number in a free-text answer
	numberRegexp = regexp.MustCompile(`\d+\.?\d*`)
)

// SizeStrategy is one tier of room size extraction.
type SizeStrategy interface {
	Name() string
	Extract(ctx context.Context, transcript string) (float64, bool)
}

// RoomSizeResolver extracts the room size in square meters. Tiers are
// tried in order and the first positive value wins.
type RoomSizeResolver struct {
	strategies []SizeStrategy
	logger     *utils.Logger
}

// NewRoomSizeResolver creates a resolver over the given strategy chain.
func NewRoomSizeResolver(logger *utils.Logger, strategies ...SizeStrategy) *RoomSizeResolver {
	return &RoomSizeResolver{strategies: strategies, logger: logger}
}

// NewDefaultRoomSizeResolver builds the pattern → question answering → default chain.
func NewDefaultRoomSizeResolver(answerer inference.QuestionAnswerer, timeout time.Duration, logger *utils.Logger) *RoomSizeResolver {
	return NewRoomSizeResolver(logger,
		PatternStrategy{},
		&QuestionStrategy{answerer: answerer, timeout: timeout, logger: logger},
		DefaultSizeStrategy{Size: DefaultRoomSize},
	)
}

// Resolve always returns a positive size.
func (r *RoomSizeResolver) Resolve(ctx context.Context, transcript string) float64 {
	for i, s := range r.strategies {
		size, ok := s.Extract(ctx, transcript)
		if !ok || size <= 0 {
			r.logger.Debug("[resolver] %s strategy found no size", s.Name())
			continue
		}

		if i > 0 {
			metrics.Fallbacks.WithLabelValues("resolver", s.Name()).Inc()
		}
		r.logger.Info("[resolver] Room size %.2f m² from %s strategy", size, s.Name())
		return size
	}

	r.logger.Warn("[resolver] No strategy produced a size, using %.1f m²", DefaultRoomSize)
	return DefaultRoomSize
}

// PatternStrategy reads a size written as "<number>m²" (or "m2").
type PatternStrategy struct{}

func (PatternStrategy) Name() string { return "pattern" }

func (PatternStrategy) Extract(_ context.Context, transcript string) (float64, bool) {
	match := roomSizeRegexp.FindStringSubmatch(transcript)
	if len(match) < 2 {
		return 0, false
	}
	return parsePositive(match[1])
}

// QuestionStrategy asks the question-answering capability for the size
// and parses the first number of its answer.
type QuestionStrategy struct {
	answerer inference.QuestionAnswerer
	timeout  time.Duration
	logger   *utils.Logger
}

func (s *QuestionStrategy) Name() string { return "question_answering" }

func (s *QuestionStrategy) Extract(ctx context.Context, transcript string) (float64, bool) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.answerer.Answer(ctx, RoomSizeQuestion, transcript)
	if err != nil {
		s.logger.Warn("[resolver] Question answering failed, falling back: %v", err)
		return 0, false
	}

	size, ok := parseFirstNumber(answer)
	if !ok {
		s.logger.Debug("[resolver] Answer %q holds no usable number", answer)
	}
	return size, ok
}

// DefaultSizeStrategy always yields Size.
type DefaultSizeStrategy struct {
	Size float64
}

func (DefaultSizeStrategy) Name() string { return "default" }

func (s DefaultSizeStrategy) Extract(context.Context, string) (float64, bool) {
	return s.Size, true
}

func parseFirstNumber(s string) (float64, bool) {
	match := numberRegexp.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	return parsePositive(match)
}

func parsePositive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
