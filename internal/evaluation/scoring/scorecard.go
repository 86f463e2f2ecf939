// Package scoring reduces an entity's weighted dimension scores into a single
// comparable score, classifies scores into qualitative bands and labels a
// score against its peer average. Everything here is pure.
package scoring

import (
	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/dimension"
)

// DimensionResult is one row of a scorecard. Score, Contribution and Band are
// nil when the entity has not been assessed on the dimension or the dimension
// is unweighted.
type DimensionResult struct {
	Key          dimension.Key `json:"key"`
	Label        string        `json:"label"`
	Description  string        `json:"description"`
	Weight       *float64      `json:"weight"`
	Score        *float64      `json:"score"`
	Contribution *float64      `json:"contribution"`
	Band         *Band         `json:"band"`
}

// Scorecard is the derived scoring view of one entity.
type Scorecard struct {
	EntityID       string            `json:"entityId"`
	Name           string            `json:"name"`
	Tier           catalog.Tier      `json:"tier"`
	TierLabel      string            `json:"tierLabel"`
	Overall        *float64          `json:"overall"`
	DerivedOverall *float64          `json:"derivedOverall"`
	Band           *Band             `json:"band"`
	Dimensions     []DimensionResult `json:"dimensions"`
	Unmatched      []string          `json:"unmatched,omitempty"`
	PeerAverage    *float64          `json:"peerAverage"`
	PeerComparison *PeerComparison   `json:"peerComparison"`
}

// BuildScorecard lays the entity's dimension scores over its tier's table.
// The stored overall score wins when present; otherwise the derived one is used.
func BuildScorecard(e catalog.Entity, table *dimension.Table, bands BandTable) Scorecard {
	sc := Scorecard{
		EntityID: e.ID,
		Name:     e.Name,
		Tier:     e.Tier,
	}

	tc, ok := table.Tier(e.Tier)
	if ok {
		sc.TierLabel = tc.Label
	}

	scores := make(map[dimension.Key]float64, len(e.Dimensions))
	for _, ds := range e.Dimensions {
		d, found := table.Lookup(e.Tier, ds.Dimension)
		if !found {
			sc.Unmatched = append(sc.Unmatched, ds.Dimension)
			continue
		}
		if _, seen := scores[d.Key]; seen {
			continue
		}
		scores[d.Key] = ds.Score
	}

	sc.Dimensions = make([]DimensionResult, 0, len(tc.Dimensions))
	for _, d := range tc.Dimensions {
		row := DimensionResult{
			Key:         d.Key,
			Label:       d.Label,
			Description: d.Description,
			Weight:      d.Weight,
		}
		if s, has := scores[d.Key]; has {
			score := s
			row.Score = &score
			if c, weighted := WeightedContribution(s, d.Weight); weighted {
				row.Contribution = &c
			}
			b := bands.Classify(s)
			row.Band = &b
		}
		sc.Dimensions = append(sc.Dimensions, row)
	}

	sc.DerivedOverall = DeriveOverall(sc.Dimensions)
	sc.Overall = sc.DerivedOverall
	if e.OverallScore != nil {
		stored := *e.OverallScore
		sc.Overall = &stored
	}
	if b, has := bands.ClassifyOptional(sc.Overall); has {
		sc.Band = &b
	}
	return sc
}

// DeriveOverall is the weighted mean of the scored dimensions, normalised by
// the weights that actually participated so unnormalised or partially scored
// tables still land on the 0–100 scale. Without any weights it falls back to a
// plain mean; without any scores it is nil.
func DeriveOverall(rows []DimensionResult) *float64 {
	var (
		weighted, weightTotal, plain float64
		scored                       int
	)
	for _, r := range rows {
		if r.Score == nil {
			continue
		}
		scored++
		plain += *r.Score
		if r.Weight != nil && *r.Weight > 0 {
			weighted += *r.Score * *r.Weight
			weightTotal += *r.Weight
		}
	}

	var v float64
	switch {
	case weightTotal > 0:
		v = Round1(weighted / weightTotal)
	case scored > 0:
		v = Round1(plain / float64(scored))
	default:
		return nil
	}
	return &v
}

// WithPeerAverage attaches the tier average and the comparison label. Either
// side being unknown leaves the comparison empty.
func (s Scorecard) WithPeerAverage(average *float64) Scorecard {
	s.PeerAverage = nil
	s.PeerComparison = nil
	if average == nil {
		return s
	}
	avg := Round1(*average)
	s.PeerAverage = &avg
	if s.Overall == nil {
		return s
	}
	if label, ok := CompareToPeerAverage(*s.Overall, average); ok {
		s.PeerComparison = &label
	}
	return s
}
