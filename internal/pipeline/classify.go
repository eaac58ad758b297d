package pipeline

// Tier is a visual density band assigned from a cell's occupancy count.
type Tier int

const (
	// TierSingle is a lone aircraft.
	TierSingle Tier = iota

	// TierSmall is a small cluster.
	TierSmall

	// TierDense is a busy cluster.
	TierDense

	// TierHeavy is a saturated cluster.
	TierHeavy
)

// Occupancy thresholds separating the density tiers.
const (
	smallThreshold = 2
	denseThreshold = 8
	heavyThreshold = 24
)

// Classify maps an occupancy count to its density tier.
func Classify(count int) Tier {
	switch {
	case count >= heavyThreshold:
		return TierHeavy
	case count >= denseThreshold:
		return TierDense
	case count >= smallThreshold:
		return TierSmall
	default:
		return TierSingle
	}
}

// String returns a short name for logging and telemetry panels.
func (t Tier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierDense:
		return "dense"
	case TierHeavy:
		return "heavy"
	default:
		return "single"
	}
}
