package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/repository/models"
)

// entityFromBundle rebuilds the catalogue shape from stored rows. Attribute
// values that are not valid JSON are malformed input.
func entityFromBundle(b models.EntityBundle) (catalog.Entity, error) {
	e := catalog.Entity{
		ID:           b.Entity.ID,
		Name:         b.Entity.Name,
		Tier:         catalog.Tier(b.Entity.Tier),
		OverallScore: b.Entity.OverallScore,
	}

	for _, d := range b.Dimensions {
		e.Dimensions = append(e.Dimensions, catalog.DimensionScore{Dimension: d.Dimension, Score: d.Score})
	}

	markers := make(map[string][]catalog.BiomarkerReading)
	for _, m := range b.Biomarkers {
		markers[m.ReviewID] = append(markers[m.ReviewID], catalog.BiomarkerReading{
			Marker: m.Marker,
			Before: m.Before,
			After:  m.After,
		})
	}

	for _, r := range b.Reviews {
		rec := catalog.ReviewRecord{
			ID:               r.ID,
			OverallRating:    r.OverallRating,
			ServiceRating:    r.ServiceRating,
			FacilitiesRating: r.FacilitiesRating,
			DiningRating:     r.DiningRating,
			ValueRating:      r.ValueRating,
			WeightChange:     r.WeightChange,
			EnergyChange:     r.EnergyChange,
			SleepChange:      r.SleepChange,
			StressChange:     r.StressChange,
			PainChange:       r.PainChange,
			Biomarkers:       markers[r.ID],
		}
		if r.Outcome != nil {
			rec.Outcome = catalog.Outcome(catalog.OutcomeLabel(*r.Outcome))
		}
		e.Reviews = append(e.Reviews, rec)
	}

	for _, o := range b.Offerings {
		e.Offerings = append(e.Offerings, catalog.AttributeOffering{Key: o.Key, Label: o.Label, Signature: o.Signature})
	}

	for _, a := range b.Attributes {
		var v any
		if a.ValueJSON != "" {
			if err := json.Unmarshal([]byte(a.ValueJSON), &v); err != nil {
				return catalog.Entity{}, fmt.Errorf("%w: entity %q attribute %q: %v",
					catalog.ErrMalformedInput, e.ID, a.Key, err)
			}
		}
		e.Attributes = append(e.Attributes, catalog.Attribute{
			Key:       a.Key,
			Label:     a.Label,
			Value:     v,
			Highlight: a.Highlight,
		})
	}
	return e, nil
}

// bundleFromEntity flattens an entity for storage. Reviews without an ID get
// a random one so their biomarkers can reference them.
func bundleFromEntity(e catalog.Entity) (models.EntityBundle, error) {
	b := models.EntityBundle{
		Entity: models.EntityRow{
			ID:           e.ID,
			Name:         e.Name,
			Tier:         string(e.Tier),
			OverallScore: e.OverallScore,
		},
	}

	for _, d := range e.Dimensions {
		b.Dimensions = append(b.Dimensions, models.DimensionScoreRow{Dimension: d.Dimension, Score: d.Score})
	}

	for _, r := range e.Reviews {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		row := models.ReviewRow{
			ID:               id,
			OverallRating:    r.OverallRating,
			ServiceRating:    r.ServiceRating,
			FacilitiesRating: r.FacilitiesRating,
			DiningRating:     r.DiningRating,
			ValueRating:      r.ValueRating,
			WeightChange:     r.WeightChange,
			EnergyChange:     r.EnergyChange,
			SleepChange:      r.SleepChange,
			StressChange:     r.StressChange,
			PainChange:       r.PainChange,
		}
		if r.Outcome != nil {
			o := string(*r.Outcome)
			row.Outcome = &o
		}
		b.Reviews = append(b.Reviews, row)

		for _, m := range r.Biomarkers {
			b.Biomarkers = append(b.Biomarkers, models.BiomarkerRow{
				ReviewID: id,
				Marker:   m.Marker,
				Before:   m.Before,
				After:    m.After,
			})
		}
	}

	for _, o := range e.Offerings {
		b.Offerings = append(b.Offerings, models.OfferingRow{Key: o.Key, Label: o.Label, Signature: o.Signature})
	}

	for _, a := range e.Attributes {
		raw, err := json.Marshal(a.Value)
		if err != nil {
			return models.EntityBundle{}, fmt.Errorf("%w: entity %q attribute %q: %v",
				catalog.ErrMalformedInput, e.ID, a.Key, err)
		}
		b.Attributes = append(b.Attributes, models.AttributeRow{
			Key:       a.Key,
			Label:     a.Label,
			ValueJSON: string(raw),
			Highlight: a.Highlight,
		})
	}
	return b, nil
}
