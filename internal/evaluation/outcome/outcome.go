// Package outcome reduces guest review records into null-safe summary
// statistics. Absent values are excluded from the denominator of the average
// they would have contributed to; they are never read as zero.
package outcome

import (
	"math"
	"sort"

	"github.com/godilite/wellness-eval/internal/catalog"
)

// Stat is an average together with the number of samples behind it. A nil
// *Stat means there were no samples.
type Stat struct {
	Value       float64 `json:"value"`
	SampleCount int     `json:"sampleCount"`
}

// SubRatings holds the independently averaged optional ratings.
type SubRatings struct {
	Service    *Stat `json:"service"`
	Facilities *Stat `json:"facilities"`
	Dining     *Stat `json:"dining"`
	Value      *Stat `json:"value"`
}

// OutcomeStats is the goal-achievement distribution over labelled reviews.
type OutcomeStats struct {
	TotalWithOutcomes int `json:"totalWithOutcomes"`
	FullyAchieved     int `json:"fullyAchieved"`
	PartiallyAchieved int `json:"partiallyAchieved"`
	NotAchieved       int `json:"notAchieved"`
}

// add counts one labelled review. Unknown labels are rejected by catalog
// validation before records get here and are skipped rather than miscounted.
func (o *OutcomeStats) add(label catalog.OutcomeLabel) {
	switch label {
	case catalog.OutcomeFully:
		o.FullyAchieved++
	case catalog.OutcomePartially:
		o.PartiallyAchieved++
	case catalog.OutcomeNotAchieved:
		o.NotAchieved++
	default:
		return
	}
	o.TotalWithOutcomes++
}

// FullyAchievedPercent is the share of labelled reviews that fully achieved
// their goal, rounded to one decimal.
func (o OutcomeStats) FullyAchievedPercent() float64 {
	if o.TotalWithOutcomes == 0 {
		return 0
	}
	return round1(float64(o.FullyAchieved) / float64(o.TotalWithOutcomes) * 100)
}

// Wellbeing holds mean self-reported signed changes.
type Wellbeing struct {
	Weight *Stat `json:"weight"`
	Energy *Stat `json:"energy"`
	Sleep  *Stat `json:"sleep"`
	Stress *Stat `json:"stress"`
	Pain   *Stat `json:"pain"`
}

// BiomarkerChange is the mean before/after movement of one marker.
type BiomarkerChange struct {
	Marker      string  `json:"marker"`
	MeanBefore  float64 `json:"meanBefore"`
	MeanAfter   float64 `json:"meanAfter"`
	MeanChange  float64 `json:"meanChange"`
	SampleCount int     `json:"sampleCount"`
}

// Summary is the aggregated digest of a set of review records.
type Summary struct {
	TotalReviews  int               `json:"totalReviews"`
	AverageRating *float64          `json:"averageRating"`
	Ratings       *SubRatings       `json:"ratings"`
	OutcomeStats  *OutcomeStats     `json:"outcomeStats"`
	Wellbeing     *Wellbeing        `json:"wellbeing,omitempty"`
	Biomarkers    []BiomarkerChange `json:"biomarkers,omitempty"`
}

// Empty reports whether the summary was built from zero reviews.
func (s Summary) Empty() bool { return s.TotalReviews == 0 }

// Aggregate summarises records. It is pure: the result depends only on the
// multiset of records, not their order, and the input is never modified.
func Aggregate(records []catalog.ReviewRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	var (
		overall                            []float64
		service, facilities, dining, value []float64
		weight, energy, sleep, stress      []float64
		pain                               []float64
		outcomes                           OutcomeStats
		markers                            = make(map[string]*markerAcc)
	)

	for _, r := range records {
		overall = append(overall, r.OverallRating)
		service = appendPresent(service, r.ServiceRating)
		facilities = appendPresent(facilities, r.FacilitiesRating)
		dining = appendPresent(dining, r.DiningRating)
		value = appendPresent(value, r.ValueRating)

		weight = appendPresent(weight, r.WeightChange)
		energy = appendPresent(energy, r.EnergyChange)
		sleep = appendPresent(sleep, r.SleepChange)
		stress = appendPresent(stress, r.StressChange)
		pain = appendPresent(pain, r.PainChange)

		if r.Outcome != nil {
			outcomes.add(*r.Outcome)
		}

		for _, b := range r.Biomarkers {
			acc, ok := markers[b.Marker]
			if !ok {
				acc = &markerAcc{}
				markers[b.Marker] = acc
			}
			acc.before = append(acc.before, b.Before)
			acc.after = append(acc.after, b.After)
			acc.change = append(acc.change, b.After-b.Before)
		}
	}

	s := Summary{
		TotalReviews: len(records),
		Ratings: &SubRatings{
			Service:    mean(service),
			Facilities: mean(facilities),
			Dining:     mean(dining),
			Value:      mean(value),
		},
	}
	if avg := mean(overall); avg != nil {
		v := avg.Value
		s.AverageRating = &v
	}
	if outcomes.TotalWithOutcomes > 0 {
		s.OutcomeStats = &outcomes
	}

	wb := Wellbeing{
		Weight: mean(weight),
		Energy: mean(energy),
		Sleep:  mean(sleep),
		Stress: mean(stress),
		Pain:   mean(pain),
	}
	if wb != (Wellbeing{}) {
		s.Wellbeing = &wb
	}

	s.Biomarkers = biomarkerChanges(markers)
	return s
}

type markerAcc struct {
	before, after, change []float64
}

func biomarkerChanges(markers map[string]*markerAcc) []BiomarkerChange {
	if len(markers) == 0 {
		return nil
	}
	names := make([]string, 0, len(markers))
	for name := range markers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BiomarkerChange, 0, len(names))
	for _, name := range names {
		acc := markers[name]
		out = append(out, BiomarkerChange{
			Marker:      name,
			MeanBefore:  mean(acc.before).Value,
			MeanAfter:   mean(acc.after).Value,
			MeanChange:  mean(acc.change).Value,
			SampleCount: len(acc.change),
		})
	}
	return out
}

func appendPresent(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

// mean sorts a private copy before summing so the float result cannot depend
// on input order.
func mean(values []float64) *Stat {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return &Stat{
		Value:       round1(sum / float64(len(sorted))),
		SampleCount: len(sorted),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
