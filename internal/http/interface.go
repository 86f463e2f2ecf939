package http

import (
	"context"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

// EvaluationService is the slice of the service layer the JSON API needs.
type EvaluationService interface {
	ListEntities(ctx context.Context, tier catalog.Tier) ([]service.EntitySummary, error)
	GetScorecard(ctx context.Context, id string) (scoring.Scorecard, error)
	GetOutcomeSummary(ctx context.Context, id string) (service.EntityOutcomes, error)
	AggregateReviews(ctx context.Context, records []catalog.ReviewRecord) (outcome.Summary, error)
	BuildRow(ctx context.Context, req service.RowRequest) (comparison.Row, error)
	Compare(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error)
}
