package service

import (
	"context"

	"github.com/godilite/wellness-eval/internal/repository/models"
)

// CatalogRepository defines the storage operations the service depends on.
type CatalogRepository interface {
	GetEntity(ctx context.Context, id string) (models.EntityRow, error)
	ListEntities(ctx context.Context, tier string) ([]models.EntityRow, error)
	GetDimensionScores(ctx context.Context, entityID string) ([]models.DimensionScoreRow, error)
	GetReviews(ctx context.Context, entityID string) ([]models.ReviewRow, error)
	GetBiomarkers(ctx context.Context, entityID string) ([]models.BiomarkerRow, error)
	GetOfferings(ctx context.Context, entityID string) ([]models.OfferingRow, error)
	GetAttributes(ctx context.Context, entityID string) ([]models.AttributeRow, error)
	GetTierAverage(ctx context.Context, tier string) (models.TierAverage, error)
	SaveEntity(ctx context.Context, b models.EntityBundle) error
}
