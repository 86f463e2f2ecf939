package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

// MockEvaluationService is a function-field mock of the HTTP handler's
// service dependency.
type MockEvaluationService struct {
	ListEntitiesFunc      func(ctx context.Context, tier catalog.Tier) ([]service.EntitySummary, error)
	GetScorecardFunc      func(ctx context.Context, id string) (scoring.Scorecard, error)
	GetOutcomeSummaryFunc func(ctx context.Context, id string) (service.EntityOutcomes, error)
	AggregateReviewsFunc  func(ctx context.Context, records []catalog.ReviewRecord) (outcome.Summary, error)
	BuildRowFunc          func(ctx context.Context, req service.RowRequest) (comparison.Row, error)
	CompareFunc           func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error)
}

func (m *MockEvaluationService) ListEntities(ctx context.Context, tier catalog.Tier) ([]service.EntitySummary, error) {
	if m.ListEntitiesFunc != nil {
		return m.ListEntitiesFunc(ctx, tier)
	}
	return nil, errors.New("ListEntitiesFunc not implemented")
}

func (m *MockEvaluationService) GetScorecard(ctx context.Context, id string) (scoring.Scorecard, error) {
	if m.GetScorecardFunc != nil {
		return m.GetScorecardFunc(ctx, id)
	}
	return scoring.Scorecard{}, errors.New("GetScorecardFunc not implemented")
}

func (m *MockEvaluationService) GetOutcomeSummary(ctx context.Context, id string) (service.EntityOutcomes, error) {
	if m.GetOutcomeSummaryFunc != nil {
		return m.GetOutcomeSummaryFunc(ctx, id)
	}
	return service.EntityOutcomes{}, errors.New("GetOutcomeSummaryFunc not implemented")
}

func (m *MockEvaluationService) AggregateReviews(ctx context.Context, records []catalog.ReviewRecord) (outcome.Summary, error) {
	if m.AggregateReviewsFunc != nil {
		return m.AggregateReviewsFunc(ctx, records)
	}
	return outcome.Summary{}, errors.New("AggregateReviewsFunc not implemented")
}

func (m *MockEvaluationService) BuildRow(ctx context.Context, req service.RowRequest) (comparison.Row, error) {
	if m.BuildRowFunc != nil {
		return m.BuildRowFunc(ctx, req)
	}
	return comparison.Row{}, errors.New("BuildRowFunc not implemented")
}

func (m *MockEvaluationService) Compare(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, ids, opts)
	}
	return comparison.Comparison{}, errors.New("CompareFunc not implemented")
}
