package noshow

// Score is the reduced form of a factor list.
type Score struct {
	Raw        float64
	Normalized float64
	Level      RiskLevel
}

// ScoreFactors sums factor impacts and maps the sum onto 0-100. Factors with
// an unknown id are ignored and every impact is clamped to its allowed range
// before summing.
func ScoreFactors(factors []RiskFactor) Score {
	var raw float64
	for _, f := range factors {
		if !f.Factor.Valid() {
			continue
		}
		raw += clamp(f.Impact, minImpact, maxImpact)
	}
	normalized := clamp(baselineScore+raw*scoreMultiplier, minScore, maxScore)
	return Score{Raw: raw, Normalized: normalized, Level: LevelFor(normalized)}
}

// LevelFor buckets a normalized score. Each band includes its lower bound.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= criticalThreshold:
		return RiskCritical
	case score >= highThreshold:
		return RiskHigh
	case score >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Confidence reflects how much history backs a prediction, never reaching
// full certainty.
func Confidence(historyCount, factorCount int) float64 {
	c := baseConfidence
	switch {
	case historyCount >= 10:
		c += 20
	case historyCount >= 5:
		c += 10
	case historyCount >= 2:
		c += 5
	}
	if factorCount > 0 {
		c += min(float64(factorCount)*confidencePerFactor, maxFactorConfidence)
	}
	return clamp(c, 0, maxConfidence)
}
