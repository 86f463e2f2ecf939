package models

type EntityRow struct {
	ID           string
	Name         string
	Tier         string
	OverallScore *float64
}

type DimensionScoreRow struct {
	Dimension string
	Score     float64
}

type ReviewRow struct {
	ID               string
	OverallRating    float64
	ServiceRating    *float64
	FacilitiesRating *float64
	DiningRating     *float64
	ValueRating      *float64
	Outcome          *string
	WeightChange     *float64
	EnergyChange     *float64
	SleepChange      *float64
	StressChange     *float64
	PainChange       *float64
}

type BiomarkerRow struct {
	ReviewID string
	Marker   string
	Before   float64
	After    float64
}

type OfferingRow struct {
	Key       string
	Label     string
	Signature bool
}

type AttributeRow struct {
	Key       string
	Label     string
	ValueJSON string
	Highlight string
}

// TierAverage is the mean stored overall score of a tier. Average is nil when
// no entity in the tier has a score.
type TierAverage struct {
	Average *float64
	Count   int64
}

// EntityBundle is everything persisted for one entity, written in one
// transaction.
type EntityBundle struct {
	Entity     EntityRow
	Dimensions []DimensionScoreRow
	Reviews    []ReviewRow
	Biomarkers []BiomarkerRow
	Offerings  []OfferingRow
	Attributes []AttributeRow
}
