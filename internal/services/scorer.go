package services

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/scribewell/backend/internal/models"
)

// ApproveThreshold is the minimum match score for automatic approval.
const ApproveThreshold = 0.8

// Scorer computes a match score in [0,1] for submitted content against the
// task's source artifact. Production deployments plug in a real OCR or
// document-similarity comparator; the lifecycle logic never changes.
type Scorer interface {
	Score(ctx context.Context, task *models.Task, content string) (float64, error)
}

// RandomScorer is the development stand-in for a real comparator. It
// returns a score uniformly drawn from [0.8, 1.0], rounded to two decimals,
// so most submissions auto-approve.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomScorer returns a RandomScorer seeded from src, or from the
// default source when src is nil.
func NewRandomScorer(src rand.Source) *RandomScorer {
	if src == nil {
		return &RandomScorer{rng: rand.New(rand.NewSource(rand.Int63()))}
	}
	return &RandomScorer{rng: rand.New(src)}
}

func (s *RandomScorer) Score(_ context.Context, _ *models.Task, _ string) (float64, error) {
	s.mu.Lock()
	v := 0.8 + s.rng.Float64()*0.2
	s.mu.Unlock()
	return math.Round(v*100) / 100, nil
}

// LengthRatioScorer scores by content length against an expected length.
// It is the deterministic fallback strategy: score = min(1, len/expected).
type LengthRatioScorer struct {
	ExpectedLength int
}

func (s *LengthRatioScorer) Score(_ context.Context, _ *models.Task, content string) (float64, error) {
	if s.ExpectedLength <= 0 {
		return 1.0, nil
	}
	ratio := float64(len(content)) / float64(s.ExpectedLength)
	return math.Min(1.0, ratio), nil
}

// FixedScorer always returns the same score. Used in tests to force the
// approve or reject path.
type FixedScorer struct {
	Value float64
}

func (s *FixedScorer) Score(_ context.Context, _ *models.Task, _ string) (float64, error) {
	return s.Value, nil
}
