package service

import (
	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
)

// EntitySummary is a catalogue listing entry.
type EntitySummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Tier         catalog.Tier  `json:"tier"`
	TierLabel    string        `json:"tierLabel"`
	OverallScore *float64      `json:"overallScore"`
	Band         *scoring.Band `json:"band"`
}

// EntityOutcomes is the review digest of one entity.
type EntityOutcomes struct {
	EntityID string          `json:"entityId"`
	Name     string          `json:"name"`
	Outcomes outcome.Summary `json:"outcomes"`
}

// CompareOptions tunes the offering matrix of a comparison. A zero
// OfferingLimit uses the service default.
type CompareOptions struct {
	OfferingLimit    int
	ShowAllOfferings bool
}

// RowRequest is a single ad hoc comparison row.
type RowRequest struct {
	Label     string             `json:"label" validate:"required"`
	Values    []comparison.Value `json:"values"`
	Highlight string             `json:"highlight"`
	Pad       int                `json:"pad" validate:"gte=0,lte=16"`
	ListLimit int                `json:"listLimit" validate:"gte=0"`
}
