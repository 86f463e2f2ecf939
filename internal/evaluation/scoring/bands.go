package scoring

import "math"

// Band is a qualitative classification of a 0–100 score.
type Band struct {
	Label string  `json:"label"`
	Token string  `json:"token"`
	Min   float64 `json:"min"`
}

// BandTable is an ordered threshold table. Bands must be sorted by descending
// Min; scores below the last threshold fall into Fallback.
type BandTable struct {
	Name     string `json:"name"`
	Bands    []Band `json:"bands"`
	Fallback Band   `json:"fallback"`
}

// CardBands is the four-band classification used on property cards.
var CardBands = BandTable{
	Name: "card",
	Bands: []Band{
		{Label: "Exceptional", Token: "exceptional", Min: 90},
		{Label: "Distinguished", Token: "distinguished", Min: 80},
		{Label: "Notable", Token: "notable", Min: 70},
	},
	Fallback: Band{Label: "Emerging", Token: "emerging"},
}

// TooltipBands is the finer five-band classification used in score tooltips.
var TooltipBands = BandTable{
	Name: "tooltip",
	Bands: []Band{
		{Label: "Exceptional", Token: "exceptional", Min: 90},
		{Label: "Excellent", Token: "excellent", Min: 75},
		{Label: "Very Good", Token: "very-good", Min: 60},
		{Label: "Good", Token: "good", Min: 45},
	},
	Fallback: Band{Label: "Developing", Token: "developing"},
}

// Classify maps score onto the first band whose threshold it reaches.
func (t BandTable) Classify(score float64) Band {
	for _, b := range t.Bands {
		if score >= b.Min {
			return b
		}
	}
	return t.Fallback
}

// ClassifyOptional classifies a nullable score; a nil score has no band.
func (t BandTable) ClassifyOptional(score *float64) (Band, bool) {
	if score == nil {
		return Band{}, false
	}
	return t.Classify(*score), true
}

// WeightedContribution returns round(score × weight, 1). It reports false when
// the dimension carries no weight; callers then omit the figure.
func WeightedContribution(score float64, weight *float64) (float64, bool) {
	if weight == nil {
		return 0, false
	}
	return Round1(score * *weight), true
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
