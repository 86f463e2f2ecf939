package mocks

import (
	"context"
	"errors"

	"github.com/godilite/wellness-eval/internal/repository/models"
)

// MockCatalogRepository is a mock implementation of the CatalogRepository
// interface for testing the service layer. Child getters without a func
// return no rows.
type MockCatalogRepository struct {
	GetEntityFunc          func(ctx context.Context, id string) (models.EntityRow, error)
	ListEntitiesFunc       func(ctx context.Context, tier string) ([]models.EntityRow, error)
	GetDimensionScoresFunc func(ctx context.Context, entityID string) ([]models.DimensionScoreRow, error)
	GetReviewsFunc         func(ctx context.Context, entityID string) ([]models.ReviewRow, error)
	GetBiomarkersFunc      func(ctx context.Context, entityID string) ([]models.BiomarkerRow, error)
	GetOfferingsFunc       func(ctx context.Context, entityID string) ([]models.OfferingRow, error)
	GetAttributesFunc      func(ctx context.Context, entityID string) ([]models.AttributeRow, error)
	GetTierAverageFunc     func(ctx context.Context, tier string) (models.TierAverage, error)
	SaveEntityFunc         func(ctx context.Context, b models.EntityBundle) error
}

func (m *MockCatalogRepository) GetEntity(ctx context.Context, id string) (models.EntityRow, error) {
	if m.GetEntityFunc != nil {
		return m.GetEntityFunc(ctx, id)
	}
	return models.EntityRow{}, errors.New("GetEntityFunc not implemented")
}

func (m *MockCatalogRepository) ListEntities(ctx context.Context, tier string) ([]models.EntityRow, error) {
	if m.ListEntitiesFunc != nil {
		return m.ListEntitiesFunc(ctx, tier)
	}
	return nil, errors.New("ListEntitiesFunc not implemented")
}

func (m *MockCatalogRepository) GetDimensionScores(ctx context.Context, entityID string) ([]models.DimensionScoreRow, error) {
	if m.GetDimensionScoresFunc != nil {
		return m.GetDimensionScoresFunc(ctx, entityID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) GetReviews(ctx context.Context, entityID string) ([]models.ReviewRow, error) {
	if m.GetReviewsFunc != nil {
		return m.GetReviewsFunc(ctx, entityID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) GetBiomarkers(ctx context.Context, entityID string) ([]models.BiomarkerRow, error) {
	if m.GetBiomarkersFunc != nil {
		return m.GetBiomarkersFunc(ctx, entityID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) GetOfferings(ctx context.Context, entityID string) ([]models.OfferingRow, error) {
	if m.GetOfferingsFunc != nil {
		return m.GetOfferingsFunc(ctx, entityID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) GetAttributes(ctx context.Context, entityID string) ([]models.AttributeRow, error) {
	if m.GetAttributesFunc != nil {
		return m.GetAttributesFunc(ctx, entityID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) GetTierAverage(ctx context.Context, tier string) (models.TierAverage, error) {
	if m.GetTierAverageFunc != nil {
		return m.GetTierAverageFunc(ctx, tier)
	}
	return models.TierAverage{}, nil
}

func (m *MockCatalogRepository) SaveEntity(ctx context.Context, b models.EntityBundle) error {
	if m.SaveEntityFunc != nil {
		return m.SaveEntityFunc(ctx, b)
	}
	return errors.New("SaveEntityFunc not implemented")
}
