// Package report renders evaluation results for a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/godilite/wellness-eval/internal/evaluation/comparison"
	"github.com/godilite/wellness-eval/internal/evaluation/outcome"
	"github.com/godilite/wellness-eval/internal/evaluation/scoring"
	"github.com/godilite/wellness-eval/internal/service"
)

const (
	labelWidth = 28
	cellWidth  = 18
)

type styles struct {
	title     lipgloss.Style
	label     lipgloss.Style
	dim       lipgloss.Style
	highlight lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
}

func newStyles(colorize bool) styles {
	if !colorize {
		plain := lipgloss.NewStyle()
		return styles{title: plain, label: plain, dim: plain, highlight: plain, good: plain, bad: plain}
	}
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		good:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		bad:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Renderer writes human readable tables to an io.Writer.
type Renderer struct {
	w  io.Writer
	st styles
}

// New creates a Renderer. With colorize off the output is plain text.
func New(w io.Writer, colorize bool) *Renderer {
	return &Renderer{w: w, st: newStyles(colorize)}
}

// pad left-aligns s in a column of width cells, measuring by display width.
func pad(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-n)
}

func fmtScore(v *float64) string {
	if v == nil {
		return comparison.DefaultPlaceholder
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func fmtStat(s *outcome.Stat) string {
	if s == nil {
		return comparison.DefaultPlaceholder
	}
	return fmt.Sprintf("%s (n=%d)", strconv.FormatFloat(s.Value, 'f', 1, 64), s.SampleCount)
}

func fmtSigned(s *outcome.Stat) string {
	if s == nil {
		return comparison.DefaultPlaceholder
	}
	return fmt.Sprintf("%+.1f (n=%d)", s.Value, s.SampleCount)
}

func (r *Renderer) line(label, value string) {
	fmt.Fprintf(r.w, "  %s%s\n", r.st.label.Render(pad(label, labelWidth)), value)
}

// Entities prints a one-line summary per catalogue entry.
func (r *Renderer) Entities(list []service.EntitySummary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(r.w, r.st.dim.Render("no entities"))
		return err
	}
	header := pad("ID", 20) + pad("NAME", 32) + pad("TIER", 10) + pad("SCORE", 8) + "BAND"
	fmt.Fprintln(r.w, r.st.title.Render(header))
	for _, e := range list {
		band := comparison.DefaultPlaceholder
		if e.Band != nil {
			band = e.Band.Label
		}
		fmt.Fprintln(r.w, pad(e.ID, 20)+pad(e.Name, 32)+pad(string(e.Tier), 10)+pad(fmtScore(e.OverallScore), 8)+band)
	}
	return nil
}

// Scorecard prints the overall score followed by one line per dimension in
// tier order.
func (r *Renderer) Scorecard(sc scoring.Scorecard) error {
	title := sc.Name
	if sc.TierLabel != "" {
		title += " · " + sc.TierLabel
	}
	fmt.Fprintln(r.w, r.st.title.Render(title))

	overall := fmtScore(sc.Overall)
	if sc.Band != nil {
		overall += "  " + r.st.highlight.Render(sc.Band.Label)
	}
	r.line("Overall", overall)
	if sc.DerivedOverall != nil && (sc.Overall == nil || *sc.Overall != *sc.DerivedOverall) {
		r.line("Derived from dimensions", fmtScore(sc.DerivedOverall))
	}
	if sc.PeerComparison != nil {
		r.line("Versus tier average", fmt.Sprintf("%s (avg %s)", *sc.PeerComparison, fmtScore(sc.PeerAverage)))
	}

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.st.title.Render(pad("  DIMENSION", labelWidth+2)+pad("SCORE", 8)+pad("WEIGHT", 8)+pad("CONTRIB", 9)+"BAND"))
	for _, d := range sc.Dimensions {
		band := comparison.DefaultPlaceholder
		if d.Band != nil {
			band = d.Band.Label
		}
		weight := comparison.DefaultPlaceholder
		if d.Weight != nil {
			weight = strconv.FormatFloat(*d.Weight*100, 'f', 0, 64) + "%"
		}
		row := pad(fmtScore(d.Score), 8) + pad(weight, 8) + pad(fmtScore(d.Contribution), 9) + band
		if d.Score == nil {
			row = r.st.dim.Render(row)
		}
		r.line(d.Label, row)
	}
	if len(sc.Unmatched) > 0 {
		fmt.Fprintln(r.w)
		r.line("Not in tier table", r.st.bad.Render(strings.Join(sc.Unmatched, ", ")))
	}
	return nil
}

// Outcomes prints the review digest. Sections with no samples are omitted.
func (r *Renderer) Outcomes(o service.EntityOutcomes) error {
	fmt.Fprintln(r.w, r.st.title.Render(o.Name))
	s := o.Outcomes
	if s.Empty() {
		_, err := fmt.Fprintln(r.w, r.st.dim.Render("  no reviews yet"))
		return err
	}

	r.line("Reviews", strconv.Itoa(s.TotalReviews))
	r.line("Guest rating", fmtScore(s.AverageRating))
	if s.Ratings != nil {
		r.line("Service", fmtStat(s.Ratings.Service))
		r.line("Facilities", fmtStat(s.Ratings.Facilities))
		r.line("Dining", fmtStat(s.Ratings.Dining))
		r.line("Value", fmtStat(s.Ratings.Value))
	}
	if st := s.OutcomeStats; st != nil && st.TotalWithOutcomes > 0 {
		fmt.Fprintln(r.w)
		r.line("Goals fully achieved", fmt.Sprintf("%d of %d (%.1f%%)", st.FullyAchieved, st.TotalWithOutcomes, st.FullyAchievedPercent()))
		r.line("Partially achieved", strconv.Itoa(st.PartiallyAchieved))
		r.line("Not achieved", strconv.Itoa(st.NotAchieved))
	}
	if wb := s.Wellbeing; wb != nil {
		fmt.Fprintln(r.w)
		r.line("Weight change", fmtSigned(wb.Weight))
		r.line("Energy change", fmtSigned(wb.Energy))
		r.line("Sleep change", fmtSigned(wb.Sleep))
		r.line("Stress change", fmtSigned(wb.Stress))
		r.line("Pain change", fmtSigned(wb.Pain))
	}
	if len(s.Biomarkers) > 0 {
		fmt.Fprintln(r.w)
		for _, b := range s.Biomarkers {
			style := r.st.good
			if b.MeanChange > 0 {
				style = r.st.bad
			}
			r.line(b.Marker, fmt.Sprintf("%.1f → %.1f  %s  (n=%d)",
				b.MeanBefore, b.MeanAfter, style.Render(fmt.Sprintf("%+.1f", b.MeanChange)), b.SampleCount))
		}
	}
	return nil
}

func (r *Renderer) cell(c comparison.Cell) string {
	text := c.Display
	switch {
	case c.Highlighted:
		return r.st.highlight.Render(pad(text, cellWidth))
	case c.Placeholder || c.Padding:
		return r.st.dim.Render(pad(text, cellWidth))
	default:
		return pad(text, cellWidth)
	}
}

func (r *Renderer) rows(title string, rows []comparison.Row) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.st.title.Render(title))
	for _, row := range rows {
		var b strings.Builder
		b.WriteString(r.st.label.Render(pad("  "+row.Label, labelWidth+2)))
		for _, c := range row.Cells {
			b.WriteString(r.cell(c))
		}
		fmt.Fprintln(r.w, strings.TrimRight(b.String(), " "))
	}
}

func availabilityMark(a comparison.Availability) string {
	switch a {
	case comparison.AvailableSignature:
		return comparison.PresentMark + " signature"
	case comparison.AvailablePlain:
		return comparison.PresentMark
	case comparison.Unavailable:
		return comparison.AbsentMark
	default:
		return ""
	}
}

// Comparison prints the side-by-side table: one column per slot, padding
// slots included.
func (r *Renderer) Comparison(cmp comparison.Comparison) error {
	var head strings.Builder
	head.WriteString(pad("", labelWidth+2))
	for _, col := range cmp.Columns {
		name := col.Name
		if col.Padding {
			name = ""
		}
		head.WriteString(pad(name, cellWidth))
	}
	fmt.Fprintln(r.w, r.st.title.Render(strings.TrimRight(head.String(), " ")))

	r.rows("Summary", cmp.Summary)
	r.rows("Dimensions", cmp.Dimensions)
	r.rows("Attributes", cmp.Attributes)

	if cmp.Offerings.Total == 0 {
		return nil
	}
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.st.title.Render("Offerings"))
	for _, row := range cmp.Offerings.Rows {
		var b strings.Builder
		label := row.Label
		if row.Signature {
			label += " *"
		}
		b.WriteString(r.st.label.Render(pad("  "+label, labelWidth+2)))
		for _, a := range row.Cells {
			mark := pad(availabilityMark(a), cellWidth)
			switch a {
			case comparison.AvailableSignature:
				mark = r.st.highlight.Render(mark)
			case comparison.Unavailable:
				mark = r.st.dim.Render(mark)
			}
			b.WriteString(mark)
		}
		fmt.Fprintln(r.w, strings.TrimRight(b.String(), " "))
	}
	if cmp.Offerings.Hidden > 0 {
		fmt.Fprintln(r.w, r.st.dim.Render(fmt.Sprintf("  … %d more (use --show-all)", cmp.Offerings.Hidden)))
	}
	return nil
}
