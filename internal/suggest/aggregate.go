package suggest

import (
	"fmt"
	"strings"

	"refzone/assignment-service/internal/model"
)

// The historical bonus contributes at most 10% of total confidence
// regardless of its own magnitude; warnings shave 10% off.
const (
	historicalBonusWeight = 0.1
	warningPenalty        = 0.9
)

// Aggregate combines factor scores, weights, the historical bonus and any
// conflict warnings into a confidence score and its reasoning text.
//
// Confidence is monotonically non-decreasing in each factor score for
// non-negative weights, and is clamped to [0,1] after all adjustments as a
// guard against out-of-range scorer inputs.
func Aggregate(f FactorScores, w model.Weights, historicalBonus float64, warnings []string) (float64, string) {
	base := f.Proximity*w.Proximity +
		f.Availability*w.Availability +
		f.Experience*w.Experience +
		f.Performance*w.Performance

	confidence := base + historicalBonus*historicalBonusWeight
	if confidence > 1 {
		confidence = 1
	}

	reasoning := Reasoning(f, historicalBonus)
	if len(warnings) > 0 {
		reasoning += fmt.Sprintf(" (Warnings: %s)", strings.Join(warnings, ", "))
		confidence *= warningPenalty
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, reasoning
}
