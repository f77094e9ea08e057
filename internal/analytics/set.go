// Package analytics turns logged strength-training sets into derived metrics:
// estimated one-rep maxes, training volume, progression advice, recovery
// scores and deload detection. Every function is pure; callers supply all
// history per call and own the ordering of sessions (most recent first).
package analytics

import (
	"errors"
	"fmt"
	"time"
)

// DefaultRPE is substituted wherever a set has no recorded exertion rating.
const DefaultRPE = 7.0

// ErrInvalidInput is wrapped by every error returned from this package.
var ErrInvalidInput = errors.New("invalid input")

// LoggedSet is one completed set.
type LoggedSet struct {
	ID          string    `json:"id" yaml:"id"`
	Weight      float64   `json:"weight" yaml:"weight"`
	Reps        int       `json:"reps" yaml:"reps"`
	RPE         *float64  `json:"rpe,omitempty" yaml:"rpe,omitempty"`
	ExerciseID  string    `json:"exercise_id" yaml:"exercise_id"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// EffectiveRPE returns the recorded RPE, or DefaultRPE when none was recorded.
// A stored zero counts as "not recorded".
func (s LoggedSet) EffectiveRPE() float64 {
	if s.RPE == nil || *s.RPE == 0 {
		return DefaultRPE
	}
	return *s.RPE
}

// EffectiveRPE is the free-function form of LoggedSet.EffectiveRPE.
func EffectiveRPE(s LoggedSet) float64 {
	return s.EffectiveRPE()
}

// Session is every set of one exercise performed within one workout.
type Session []LoggedSet

// MeanRPE is the average effective RPE. Zero for an empty session.
func (s Session) MeanRPE() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, set := range s {
		sum += set.EffectiveRPE()
	}
	return sum / float64(len(s))
}

// MeanWeight is the average load. Zero for an empty session.
func (s Session) MeanWeight() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, set := range s {
		sum += set.Weight
	}
	return sum / float64(len(s))
}

// MeanReps is the average rep count. Zero for an empty session.
func (s Session) MeanReps() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum int
	for _, set := range s {
		sum += set.Reps
	}
	return float64(sum) / float64(len(s))
}

// MaxReps is the highest single-set rep count.
func (s Session) MaxReps() int {
	var m int
	for _, set := range s {
		m = max(m, set.Reps)
	}
	return m
}

// TotalVolume is Σ weight×reps.
func (s Session) TotalVolume() float64 {
	var sum float64
	for _, set := range s {
		sum += set.Weight * float64(set.Reps)
	}
	return sum
}

// validateSets checks the rep-count precondition shared by every calculation.
func validateSets(sets []LoggedSet) error {
	for i, set := range sets {
		if set.Reps < 1 {
			return fmt.Errorf("set %d has %d reps: %w", i, set.Reps, ErrInvalidInput)
		}
	}
	return nil
}
