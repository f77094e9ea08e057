package analytics

import (
	"fmt"
	"math"
)

// maxEstimableReps is the rep count past which no estimate is attempted.
const maxEstimableReps = 15

// Estimate1RM estimates the maximal single-repetition load for a set of
// weight×reps by blending the Epley, Brzycki and Lombardi formulas.
// Low-rep sets lean on Epley, higher-rep sets on Brzycki. One rep, or more
// than 15, returns the weight unchanged. The result has 2 decimals.
func Estimate1RM(weight float64, reps int) (float64, error) {
	if reps < 1 {
		return 0, fmt.Errorf("estimate 1RM for %d reps: %w", reps, ErrInvalidInput)
	}
	if weight < 0 {
		return 0, fmt.Errorf("estimate 1RM for weight %g: %w", weight, ErrInvalidInput)
	}
	return estimate1RM(weight, float64(reps)), nil
}

// estimate1RM accepts fractional reps so session averages can be fed in.
func estimate1RM(weight, reps float64) float64 {
	if reps == 1 || reps > maxEstimableReps {
		return weight
	}

	epley := weight * (1 + reps/30)
	brzycki := weight * (36 / (37 - reps))
	lombardi := weight * math.Pow(reps, 0.10)

	var blended float64
	if reps <= 6 {
		blended = 0.5*epley + 0.3*brzycki + 0.2*lombardi
	} else {
		blended = 0.3*epley + 0.5*brzycki + 0.2*lombardi
	}
	return round2(blended)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
