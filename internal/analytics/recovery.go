package analytics

import (
	"fmt"
	"math"
)

// Intensity is the training recommendation derived from a recovery score.
type Intensity string

const (
	IntensityFull    Intensity = "full_intensity"
	IntensityReduced Intensity = "reduced_intensity"
	IntensityRest    Intensity = "rest_day"
)

// targetSleepHours scores as a full 10.
const targetSleepHours = 8.0

// RecoveryInput is the athlete's self-reported readiness. Levels are 1–10,
// higher meaning more stressed, more sore or more motivated.
type RecoveryInput struct {
	SleepHours      float64 `json:"sleep_hours" yaml:"sleep_hours"`
	StressLevel     int     `json:"stress_level" yaml:"stress_level"`
	MuscleSoreness  int     `json:"muscle_soreness" yaml:"muscle_soreness"`
	MotivationLevel int     `json:"motivation_level" yaml:"motivation_level"`
}

// RecoveryFactors are the per-input sub-scores on a 0–10 scale, where
// higher is always better.
type RecoveryFactors struct {
	Sleep      float64 `json:"sleep"`
	Stress     float64 `json:"stress"`
	Soreness   float64 `json:"soreness"`
	Motivation float64 `json:"motivation"`
}

// RecoveryMetrics is the composite readiness score.
type RecoveryMetrics struct {
	Score          float64         `json:"score"`
	Factors        RecoveryFactors `json:"factors"`
	Recommendation Intensity       `json:"recommendation"`
}

// CalculateRecoveryScore weights sleep and stress at 35% each, soreness at
// 20% and motivation at 10%. Scores of 8 and up allow full intensity, 6 and
// up reduced intensity; anything lower suggests a rest day.
func CalculateRecoveryScore(in RecoveryInput) (RecoveryMetrics, error) {
	if in.SleepHours < 0 || math.IsNaN(in.SleepHours) {
		return RecoveryMetrics{}, fmt.Errorf("sleep hours %g: %w", in.SleepHours, ErrInvalidInput)
	}
	levels := []struct {
		name  string
		level int
	}{
		{"stress level", in.StressLevel},
		{"muscle soreness", in.MuscleSoreness},
		{"motivation level", in.MotivationLevel},
	}
	for _, l := range levels {
		if l.level < 1 || l.level > 10 {
			return RecoveryMetrics{}, fmt.Errorf("%s %d outside 1-10: %w", l.name, l.level, ErrInvalidInput)
		}
	}

	sleep := min(10, max(0, in.SleepHours/targetSleepHours*10))
	stress := float64(11 - in.StressLevel)
	soreness := float64(11 - in.MuscleSoreness)
	motivation := float64(in.MotivationLevel)

	score := 0.35*sleep + 0.35*stress + 0.20*soreness + 0.10*motivation

	rec := IntensityRest
	switch {
	case score >= 8:
		rec = IntensityFull
	case score >= 6:
		rec = IntensityReduced
	}

	return RecoveryMetrics{
		Score: round1(score),
		Factors: RecoveryFactors{
			Sleep:      round1(sleep),
			Stress:     round1(stress),
			Soreness:   round1(soreness),
			Motivation: motivation,
		},
		Recommendation: rec,
	}, nil
}
