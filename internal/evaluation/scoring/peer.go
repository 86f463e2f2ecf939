package scoring

// PeerComparison describes a score relative to its tier's average.
type PeerComparison string

const (
	WellAbovePeers PeerComparison = "Well above average"
	AbovePeers     PeerComparison = "Above average"
	AtPeers        PeerComparison = "Average"
	BelowPeers     PeerComparison = "Below average"
	WellBelowPeers PeerComparison = "Well below average"
)

const (
	wideDelta   = 10.0
	narrowDelta = 3.0
)

// CompareToPeerAverage labels score against average. Without an average there
// is nothing to compare to and the second result is false.
func CompareToPeerAverage(score float64, average *float64) (PeerComparison, bool) {
	if average == nil {
		return "", false
	}

	delta := score - *average
	switch {
	case delta >= wideDelta:
		return WellAbovePeers, true
	case delta >= narrowDelta:
		return AbovePeers, true
	case delta <= -wideDelta:
		return WellBelowPeers, true
	case delta <= -narrowDelta:
		return BelowPeers, true
	default:
		return AtPeers, true
	}
}
