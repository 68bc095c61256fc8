package suggest

import "strings"

// FactorScores groups the four per-pair factor scores.
type FactorScores struct {
	Proximity    float64
	Availability float64
	Experience   float64
	Performance  float64
}

// Reasoning renders factor scores into a short human-readable justification.
// Deterministic and side-effect free: a presentation layer over scores that
// are already computed.
//
// Per-factor phrase thresholds:
//
//	proximity:    ≥0.8 excellent, ≥0.6 good, ≥0.4 moderate, else distant
//	availability: ≥0.9 fully,     ≥0.7 generally, ≥0.5 partial, else limited
//	experience:   ≥0.9 ideal,     ≥0.7 suitable,  ≥0.5 acceptable, else gap
//	performance:  ≥0.9 outstanding, ≥0.7 solid,   ≥0.5 average, else below avg
//	history:      bonus >0.2 strong, >0.1 good (omitted otherwise)
func Reasoning(f FactorScores, historicalBonus float64) string {
	phrases := []string{
		ladder(f.Proximity, 0.8, 0.6, 0.4,
			"excellent proximity", "good proximity", "moderate proximity", "distant location"),
		ladder(f.Availability, 0.9, 0.7, 0.5,
			"fully available", "generally available", "partial availability", "limited availability"),
		ladder(f.Experience, 0.9, 0.7, 0.5,
			"ideal experience level", "suitable experience", "acceptable experience", "experience gap"),
		ladder(f.Performance, 0.9, 0.7, 0.5,
			"outstanding track record", "solid track record", "average ratings", "below-average ratings"),
	}
	switch {
	case historicalBonus > 0.2:
		phrases = append(phrases, "strong history at this level")
	case historicalBonus > 0.1:
		phrases = append(phrases, "good history at this level")
	}
	return "Recommended based on: " + strings.Join(phrases, ", ")
}

func ladder(score, high, mid, low float64, best, good, fair, poor string) string {
	switch {
	case score >= high:
		return best
	case score >= mid:
		return good
	case score >= low:
		return fair
	default:
		return poor
	}
}
