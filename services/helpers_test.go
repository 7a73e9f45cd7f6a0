package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"renovation-quoter/inference"
	"renovation-quoter/utils"
)

func newTestLogger() (*utils.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return utils.NewLoggerFromZap(zap.New(core)), logs
}

// stubClassifier entails the hypotheses naming any of its tasks.
type stubClassifier struct {
	mu      sync.Mutex
	entail  map[string]float64
	err     error
	calls   int
	seenCtx []context.Context
}

func (s *stubClassifier) Classify(ctx context.Context, premise, hypothesis string) (inference.Classification, error) {
	s.mu.Lock()
	s.calls++
	s.seenCtx = append(s.seenCtx, ctx)
	s.mu.Unlock()

	if s.err != nil {
		return inference.Classification{}, s.err
	}
	for task, score := range s.entail {
		if strings.HasSuffix(hypothesis, " "+task) {
			return inference.Classification{Label: "entailment", Score: score}, nil
		}
	}
	return inference.Classification{Label: "neutral", Score: 0.9}, nil
}

func (s *stubClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
