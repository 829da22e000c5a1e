package noshow

// Neutral priors used when a patient or a record carries no usable signal.
// The impact tables in factors.go and the thresholds in scorer.go are
// heuristic calibration constants, not fitted coefficients. Keep them as
// they are until there is labeled outcome data to refit against.
const (
	// DefaultLeadTimeDays stands in for a missing or negative booking lead time
	// and for the average lead time of a patient with no history.
	DefaultLeadTimeDays = 7

	// preferredSlotCount is how many of the most-booked time slots count as
	// the patient's preference.
	preferredSlotCount = 2

	// TopFactorLimit caps the ranked factor list in analytics.
	TopFactorLimit = 5
)

// DefaultPreferredTimeSlots is the preference assumed for a patient with no
// booking history.
var DefaultPreferredTimeSlots = []TimeSlot{SlotMorning, SlotAfternoon}

// Score normalisation.
const (
	baselineScore   = 50.0
	scoreMultiplier = 2.0
	minScore        = 0.0
	maxScore        = 100.0

	minImpact = -10.0
	maxImpact = 10.0
)

// Risk level lower bounds, inclusive.
const (
	criticalThreshold = 80.0
	highThreshold     = 60.0
	mediumThreshold   = 40.0
)

// Confidence tiers.
const (
	baseConfidence      = 50.0
	maxConfidence       = 95.0
	confidencePerFactor = 3.0
	maxFactorConfidence = 15.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
