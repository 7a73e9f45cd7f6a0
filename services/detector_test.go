package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"renovation-quoter/inference"
	"renovation-quoter/models"
)

func detectorOpts() DetectorOptions {
	return DetectorOptions{Timeout: time.Second, MaxConcurrency: 4}
}

func TestHypothesis(t *testing.T) {
	assert.Equal(t, "The client wants to remove tiles", Hypothesis(models.RemoveTiles))
}

func TestClassifierDetectionKeepsVocabularyOrder(t *testing.T) {
	logger, _ := newTestLogger()
	stub := &stubClassifier{entail: map[string]float64{
		"lay tiles":      0.91,
		"remove tiles":   0.77,
		"install vanity": 0.64,
	}}

	d := NewDefaultDetector(stub, detectorOpts(), logger)
	got := d.Detect(context.Background(), "Strip the old tiles, put new ones down and add a vanity")

	assert.Equal(t, []models.Task{models.RemoveTiles, models.InstallVanity, models.LayTiles}, got)
	assert.Equal(t, len(models.AllTasks()), stub.callCount(), "one query per vocabulary task")
}

func TestClassifierThresholdIsStrict(t *testing.T) {
	logger, _ := newTestLogger()
	stub := &stubClassifier{entail: map[string]float64{
		"remove tiles":  0.5,
		"redo plumbing": 0.5001,
	}}

	got := NewDetector(logger, NewClassifierStrategy(stub, detectorOpts(), logger)).
		Detect(context.Background(), "anything")

	assert.Equal(t, []models.Task{models.RedoPlumbing}, got)
}

func TestNonEntailmentLabelsIgnored(t *testing.T) {
	logger, _ := newTestLogger()
	classifier := inference.ClassifierFunc(func(context.Context, string, string) (inference.Classification, error) {
		return inference.Classification{Label: "contradiction", Score: 0.99}, nil
	})

	got := NewDetector(logger, NewClassifierStrategy(classifier, detectorOpts(), logger)).
		Detect(context.Background(), "remove tiles please")

	assert.Empty(t, got)
}

func TestKeywordFallbackWhenClassifierFindsNothing(t *testing.T) {
	logger, logs := newTestLogger()
	stub := &stubClassifier{}

	got := NewDefaultDetector(stub, detectorOpts(), logger).
		Detect(context.Background(), "We need to REMOVE   TILES and do some grout-free Caulking")

	assert.Equal(t, []models.Task{models.RemoveTiles, models.Caulking}, got)
	assert.Equal(t, 1, logs.FilterMessageSnippet("keyword strategy detected 2 task(s)").Len())
}

func TestKeywordFallbackWhenClassifierFails(t *testing.T) {
	logger, logs := newTestLogger()
	stub := &stubClassifier{err: errors.New("connection refused")}

	got := NewDefaultDetector(stub, detectorOpts(), logger).
		Detect(context.Background(), "please redo plumbing and repaint walls")

	assert.Equal(t, []models.Task{models.RedoPlumbing, models.RepaintWalls}, got)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "connection refused")
}

func TestPartialClassifierFailureFailsTier(t *testing.T) {
	logger, _ := newTestLogger()
	classifier := inference.ClassifierFunc(func(_ context.Context, _, hypothesis string) (inference.Classification, error) {
		if strings.HasSuffix(hypothesis, "demo work") {
			return inference.Classification{}, inference.ErrUnavailable
		}
		if strings.HasSuffix(hypothesis, "install sink") {
			return inference.Classification{Label: "entailment", Score: 0.9}, nil
		}
		return inference.Classification{Label: "neutral", Score: 0.8}, nil
	})

	got := NewDefaultDetector(classifier, DetectorOptions{Timeout: time.Second, MaxConcurrency: 1}, logger).
		Detect(context.Background(), "replace toilet")

	// Classifier results are not merged with the keyword tier.
	assert.Equal(t, []models.Task{models.ReplaceToilet}, got)
}

func TestClassifierTimeoutTriggersFallback(t *testing.T) {
	logger, _ := newTestLogger()
	classifier := inference.ClassifierFunc(func(ctx context.Context, _, _ string) (inference.Classification, error) {
		<-ctx.Done()
		return inference.Classification{}, ctx.Err()
	})

	start := time.Now()
	got := NewDefaultDetector(classifier, DetectorOptions{Timeout: 20 * time.Millisecond, MaxConcurrency: 20}, logger).
		Detect(context.Background(), "install mirror")

	assert.Equal(t, []models.Task{models.InstallMirror}, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClassifierCallsCarryDeadline(t *testing.T) {
	logger, _ := newTestLogger()
	stub := &stubClassifier{}

	NewDetector(logger, NewClassifierStrategy(stub, detectorOpts(), logger)).
		Detect(context.Background(), "x")

	require.NotEmpty(t, stub.seenCtx)
	for _, ctx := range stub.seenCtx {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	}
}

func TestNoClassifierAndNoKeywordYieldsEmpty(t *testing.T) {
	logger, _ := newTestLogger()

	got := NewDefaultDetector(&stubClassifier{}, detectorOpts(), logger).
		Detect(context.Background(), "We would like a quote for a new garden fence")

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEmptyTranscriptYieldsEmpty(t *testing.T) {
	logger, _ := newTestLogger()

	got := NewDefaultDetector(inference.Unavailable{}, detectorOpts(), logger).Detect(context.Background(), "")
	assert.Empty(t, got)
}

func TestKeywordStrategyNoDuplicates(t *testing.T) {
	got, err := NewKeywordStrategy().Detect(context.Background(), "lay tiles, lay tiles, LAY TILES")
	require.NoError(t, err)
	assert.Equal(t, []models.Task{models.LayTiles}, got)
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Remove Tiles", "removetiles"},
		{"  install\tvanity\n", "installvanity"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compact(tt.in), "compact(%q)", tt.in)
	}
}
