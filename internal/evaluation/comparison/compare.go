package comparison

import (
	"errors"
	"fmt"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/evaluation/dimension"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
)

var ErrTooManyEntities = errors.New("too many entities to compare")

// Subject is one entity entering a comparison, with its tier's peer average
// when the caller knows it.
type Subject struct {
	Entity      catalog.Entity
	PeerAverage *float64
}

// Options controls the shape of the comparison.
type Options struct {
	// MaxColumns is the fixed table width; missing entities are padded.
	MaxColumns       int
	OfferingLimit    int
	ShowAllOfferings bool
	ListLimit        int
	Bands            *scoring.BandTable
}

// Column heads one slot of the comparison table.
type Column struct {
	EntityID  string       `json:"entityId,omitempty"`
	Name      string       `json:"name,omitempty"`
	Tier      catalog.Tier `json:"tier,omitempty"`
	TierLabel string       `json:"tierLabel,omitempty"`
	Padding   bool         `json:"padding,omitempty"`
}

// Comparison is the fully rendered side-by-side view.
type Comparison struct {
	Columns    []Column   `json:"columns"`
	Summary    []Row      `json:"summary"`
	Dimensions []Row      `json:"dimensions"`
	Attributes []Row      `json:"attributes"`
	Offerings  MatrixView `json:"offerings"`
}

// Summary row labels.
const (
	RowOverall       = "Overall score"
	RowBand          = "Rating"
	RowPeers         = "Versus tier average"
	RowReviews       = "Reviews"
	RowAverageRating = "Guest rating"
	RowGoalsAchieved = "Goals fully achieved (%)"
)

// Build assembles every row of the comparison for subjects, in the given
// order, padded to opts.MaxColumns.
func Build(subjects []Subject, table *dimension.Table, opts Options) (Comparison, error) {
	width := opts.MaxColumns
	if width < 1 {
		width = DefaultMaxEntities
	}
	if len(subjects) > width {
		return Comparison{}, fmt.Errorf("%w: %d requested, at most %d", ErrTooManyEntities, len(subjects), width)
	}
	bands := scoring.CardBands
	if opts.Bands != nil {
		bands = *opts.Bands
	}

	pad := width - len(subjects)
	rowOpts := []RowOption{WithPad(pad)}
	if opts.ListLimit > 0 {
		rowOpts = append(rowOpts, WithListLimit(opts.ListLimit))
	}

	cards := make([]scoring.Scorecard, len(subjects))
	summaries := make([]outcome.Summary, len(subjects))
	sets := make([]OfferingSet, len(subjects))
	cmp := Comparison{Columns: make([]Column, 0, width)}

	for i, s := range subjects {
		cards[i] = scoring.BuildScorecard(s.Entity, table, bands).WithPeerAverage(s.PeerAverage)
		summaries[i] = outcome.Aggregate(s.Entity.Reviews)
		sets[i] = OfferingSet{EntityID: s.Entity.ID, Offerings: s.Entity.Offerings}
		cmp.Columns = append(cmp.Columns, Column{
			EntityID:  s.Entity.ID,
			Name:      s.Entity.Name,
			Tier:      s.Entity.Tier,
			TierLabel: cards[i].TierLabel,
		})
	}
	for i := 0; i < pad; i++ {
		cmp.Columns = append(cmp.Columns, Column{Padding: true})
	}

	cmp.Summary = summaryRows(cards, summaries, rowOpts)
	cmp.Dimensions = dimensionRows(cards, table, rowOpts)

	attrs, err := attributeRows(subjects, rowOpts)
	if err != nil {
		return Comparison{}, err
	}
	cmp.Attributes = attrs

	cmp.Offerings = BuildAvailabilityMatrix(sets).Padded(width).View(opts.OfferingLimit, opts.ShowAllOfferings)
	return cmp, nil
}

func summaryRows(cards []scoring.Scorecard, summaries []outcome.Summary, opts []RowOption) []Row {
	n := len(cards)
	overall := make([]Value, n)
	band := make([]Value, n)
	peers := make([]Value, n)
	reviews := make([]Value, n)
	rating := make([]Value, n)
	goals := make([]Value, n)

	for i, sc := range cards {
		overall[i] = NumberPtr(sc.Overall)
		if sc.Band != nil {
			band[i] = Text(sc.Band.Label)
		}
		if sc.PeerComparison != nil {
			peers[i] = Text(string(*sc.PeerComparison))
		}

		s := summaries[i]
		reviews[i] = Number(float64(s.TotalReviews))
		rating[i] = NumberPtr(s.AverageRating)
		if s.OutcomeStats != nil {
			goals[i] = Number(s.OutcomeStats.FullyAchievedPercent())
		}
	}

	return []Row{
		BuildRow(RowOverall, overall, HighlightHighest, opts...),
		BuildRow(RowBand, band, HighlightNone, opts...),
		BuildRow(RowPeers, peers, HighlightNone, opts...),
		BuildRow(RowAverageRating, rating, HighlightHighest, opts...),
		BuildRow(RowReviews, reviews, HighlightHighest, opts...),
		BuildRow(RowGoalsAchieved, goals, HighlightHighest, opts...),
	}
}

// dimensionRows walks the union of dimension keys across the subjects' tiers
// in column order. A key outside a subject's tier renders as no data.
func dimensionRows(cards []scoring.Scorecard, table *dimension.Table, opts []RowOption) []Row {
	var (
		keys   []dimension.Key
		labels = make(map[dimension.Key]string)
	)
	for _, sc := range cards {
		for _, d := range table.Dimensions(sc.Tier) {
			if _, seen := labels[d.Key]; seen {
				continue
			}
			labels[d.Key] = d.Label
			keys = append(keys, d.Key)
		}
	}

	scores := make([]map[dimension.Key]*float64, len(cards))
	for i, sc := range cards {
		scores[i] = make(map[dimension.Key]*float64, len(sc.Dimensions))
		for _, d := range sc.Dimensions {
			scores[i][d.Key] = d.Score
		}
	}

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		values := make([]Value, len(cards))
		for i := range cards {
			values[i] = NumberPtr(scores[i][k])
		}
		rows = append(rows, BuildRow(labels[k], values, HighlightHighest, opts...))
	}
	return rows
}

// attributeRows unions attribute keys in first-seen order. The first
// non-empty highlight mode and label declared for a key apply to its row.
func attributeRows(subjects []Subject, opts []RowOption) ([]Row, error) {
	type attrRow struct {
		label  string
		mode   HighlightMode
		values []Value
	}
	var order []string
	rows := make(map[string]*attrRow)

	for col, s := range subjects {
		for _, a := range s.Entity.Attributes {
			r, ok := rows[a.Key]
			if !ok {
				r = &attrRow{values: make([]Value, len(subjects))}
				rows[a.Key] = r
				order = append(order, a.Key)
			}
			if r.label == "" {
				r.label = a.Label
			}
			if r.mode == "" && a.Highlight != "" {
				mode, err := ParseHighlightMode(a.Highlight)
				if err != nil {
					return nil, fmt.Errorf("entity %q attribute %q: %w", s.Entity.ID, a.Key, err)
				}
				r.mode = mode
			}
			v, err := FromAny(a.Value)
			if err != nil {
				return nil, fmt.Errorf("entity %q attribute %q: %w", s.Entity.ID, a.Key, err)
			}
			if r.values[col].Kind() == KindEmpty {
				r.values[col] = v
			}
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		r := rows[key]
		label := r.label
		if label == "" {
			label = key
		}
		out = append(out, BuildRow(label, r.values, r.mode, opts...))
	}
	return out, nil
}
