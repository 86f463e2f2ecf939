package catalog

import (
	"fmt"
	"strings"
)

// Tier is the classification bucket that selects an entity's dimension set.
type Tier string

const (
	TierOne   Tier = "TIER_1"
	TierTwo   Tier = "TIER_2"
	TierThree Tier = "TIER_3"
)

// Tiers lists every known tier in rank order.
var Tiers = []Tier{TierOne, TierTwo, TierThree}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	for _, known := range Tiers {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTier accepts the canonical form plus the loose "tier-1" / "1" spellings
// editors tend to type.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	if !strings.HasPrefix(norm, "TIER_") {
		norm = "TIER_" + norm
	}
	t := Tier(norm)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tier %q", ErrMalformedInput, s)
	}
	return t, nil
}

// OutcomeLabel is the guest-reported goal achievement category.
type OutcomeLabel string

const (
	OutcomeFully       OutcomeLabel = "FULLY"
	OutcomePartially   OutcomeLabel = "PARTIALLY"
	OutcomeNotAchieved OutcomeLabel = "NOT_ACHIEVED"
)

// OutcomeLabels is the authoritative list shared by the aggregator and the UI.
var OutcomeLabels = []OutcomeLabel{OutcomeFully, OutcomePartially, OutcomeNotAchieved}

// Valid reports whether l is in OutcomeLabels.
func (l OutcomeLabel) Valid() bool {
	for _, known := range OutcomeLabels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseOutcomeLabel normalises case and rejects anything outside OutcomeLabels.
func ParseOutcomeLabel(s string) (OutcomeLabel, error) {
	l := OutcomeLabel(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown outcome label %q", ErrMalformedInput, s)
	}
	return l, nil
}

// Entity is a catalogued, comparable wellness property.
type Entity struct {
	ID           string              `json:"id" yaml:"id" validate:"required"`
	Name         string              `json:"name" yaml:"name" validate:"required"`
	Tier         Tier                `json:"tier" yaml:"tier" validate:"required,tier"`
	OverallScore *float64            `json:"overallScore" yaml:"overallScore" validate:"omitempty,gte=0,lte=100"`
	Dimensions   []DimensionScore    `json:"dimensions" yaml:"dimensions" validate:"dive"`
	Reviews      []ReviewRecord      `json:"reviews" yaml:"reviews" validate:"dive"`
	Offerings    []AttributeOffering `json:"offerings" yaml:"offerings" validate:"dive"`
	Attributes   []Attribute         `json:"attributes" yaml:"attributes" validate:"dive"`
}

// DimensionScore is one entity's score on one quality axis.
type DimensionScore struct {
	Dimension string  `json:"dimension" yaml:"dimension" validate:"required"`
	Score     float64 `json:"score" yaml:"score" validate:"gte=0,lte=100"`
}

// ReviewRecord is one guest's input for one entity. Every sub-rating is
// independently optional.
type ReviewRecord struct {
	ID               string             `json:"id" yaml:"id"`
	OverallRating    float64            `json:"overallRating" yaml:"overallRating" validate:"gte=0,lte=5"`
	ServiceRating    *float64           `json:"serviceRating" yaml:"serviceRating" validate:"omitempty,gte=0,lte=5"`
	FacilitiesRating *float64           `json:"facilitiesRating" yaml:"facilitiesRating" validate:"omitempty,gte=0,lte=5"`
	DiningRating     *float64           `json:"diningRating" yaml:"diningRating" validate:"omitempty,gte=0,lte=5"`
	ValueRating      *float64           `json:"valueRating" yaml:"valueRating" validate:"omitempty,gte=0,lte=5"`
	Outcome          *OutcomeLabel      `json:"outcome" yaml:"outcome" validate:"omitempty,outcome"`
	WeightChange     *float64           `json:"weightChange" yaml:"weightChange" validate:"omitempty,finite"`
	EnergyChange     *float64           `json:"energyChange" yaml:"energyChange" validate:"omitempty,finite"`
	SleepChange      *float64           `json:"sleepChange" yaml:"sleepChange" validate:"omitempty,finite"`
	StressChange     *float64           `json:"stressChange" yaml:"stressChange" validate:"omitempty,finite"`
	PainChange       *float64           `json:"painChange" yaml:"painChange" validate:"omitempty,finite"`
	Biomarkers       []BiomarkerReading `json:"biomarkers" yaml:"biomarkers" validate:"dive"`
}

// BiomarkerReading is a before/after measurement reported with a review.
type BiomarkerReading struct {
	Marker string  `json:"marker" yaml:"marker" validate:"required"`
	Before float64 `json:"before" yaml:"before" validate:"finite"`
	After  float64 `json:"after" yaml:"after" validate:"finite"`
}

// AttributeOffering is a treatment or service an entity provides. Identity is
// by Key across entities.
type AttributeOffering struct {
	Key       string `json:"key" yaml:"key" validate:"required"`
	Label     string `json:"label" yaml:"label"`
	Signature bool   `json:"signature" yaml:"signature"`
}

// DisplayLabel falls back to the key when no label was authored.
func (o AttributeOffering) DisplayLabel() string {
	if strings.TrimSpace(o.Label) == "" {
		return o.Key
	}
	return o.Label
}

// Attribute is a free-form comparable fact about an entity, e.g. "Medical
// supervision: true" or "Minimum stay: 5". Value holds decoded JSON.
type Attribute struct {
	Key       string `json:"key" yaml:"key" validate:"required"`
	Label     string `json:"label" yaml:"label"`
	Value     any    `json:"value" yaml:"value"`
	Highlight string `json:"highlight" yaml:"highlight" validate:"omitempty,oneof=highest lowest none"`
}

// Float returns a pointer to v. Handy for optional ratings.
func Float(v float64) *float64 { return &v }

// Outcome returns a pointer to l.
func Outcome(l OutcomeLabel) *OutcomeLabel { return &l }
