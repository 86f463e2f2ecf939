package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

// MockEvaluationService is a mock implementation of the EvaluationService
// interface for testing the handler layer.
type MockEvaluationService struct {
	GetScorecardFunc      func(ctx context.Context, id string) (scoring.Scorecard, error)
	GetOutcomeSummaryFunc func(ctx context.Context, id string) (service.EntityOutcomes, error)
	CompareFunc           func(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error)
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

func (m *MockEvaluationService) Compare(ctx context.Context, ids []string, opts service.CompareOptions) (comparison.Comparison, error) {
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, ids, opts)
	}
	return comparison.Comparison{}, errors.New("CompareFunc not implemented")
}
