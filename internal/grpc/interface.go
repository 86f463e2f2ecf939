package grpc

import (
	"context"
	"time"

	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// EvaluationService is the slice of the service layer exposed over gRPC.
type EvaluationService interface {
	GetScorecard(ctx context.Context, id string) (scoring.Scorecard, error)
	GetOutcomeSummary(ctx context.Context, id string) (service.EntityOutcomes, error)
	Compare(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error)
}
