package analytics

import (
	"fmt"
	"math"
)

// Action is the progression advisor's verdict for the next session.
type Action string

const (
	ActionIncreaseWeight Action = "increase_weight"
	ActionIncreaseReps   Action = "increase_reps"
	ActionMaintain       Action = "maintain"
	ActionDeload         Action = "deload"
)

const (
	// heavyLoadThreshold separates the small and large load jumps.
	heavyLoadThreshold = 135.0
	smallIncrement     = 2.5
	largeIncrement     = 5.0

	// completionTolerance is the fraction of the session's best set a set
	// must reach to count as completed.
	completionTolerance = 0.9

	hardSessionRPE       = 8.5
	hardSessionLookback  = 3
	hardSessionsToDeload = 2
	deloadFactor         = 0.9
)

// ExercisePerformance is read-only context about one exercise.
type ExercisePerformance struct {
	ExerciseID          string      `json:"exercise_id" yaml:"exercise_id"`
	ExerciseName        string      `json:"exercise_name" yaml:"exercise_name"`
	Sets                []LoggedSet `json:"sets" yaml:"sets"`
	PreviousMax         float64     `json:"previous_max" yaml:"previous_max"`
	CurrentEstimated1RM float64     `json:"current_estimated_1rm" yaml:"current_estimated_1rm"`
}

// ProgressionRecommendation is the advice for an exercise's next session.
type ProgressionRecommendation struct {
	ExerciseID string   `json:"exercise_id"`
	Action     Action   `json:"action"`
	NewWeight  *float64 `json:"new_weight,omitempty"`
	NewReps    *int     `json:"new_reps,omitempty"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
}

// CalculateProgression recommends how to progress an exercise based on its
// session history, most recent session first. The first matching rule wins:
//
//  1. no sets in the latest session: maintain
//  2. mean RPE ≤ 7 and completion ≥ 80%: add load
//  3. mean RPE ≤ 8 and completion ≥ 70%: add a rep
//  4. mean RPE ≥ 9 or completion < 60%, with at least 2 of the last 3
//     sessions averaging RPE ≥ 8.5: deload by 10%
//  5. otherwise: maintain
//
// Completion is the share of sets reaching 90% of the session's best set.
func CalculateProgression(perf ExercisePerformance, history []Session) (ProgressionRecommendation, error) {
	var last Session
	if len(history) > 0 {
		last = history[0]
	}
	if len(last) == 0 {
		return ProgressionRecommendation{
			ExerciseID: perf.ExerciseID,
			Action:     ActionMaintain,
			Reasoning:  "No recent performance data",
			Confidence: 0.1,
		}, nil
	}
	for i, s := range history[:min(hardSessionLookback, len(history))] {
		if err := validateSets(s); err != nil {
			return ProgressionRecommendation{}, fmt.Errorf("session %d of %s: %w", i, perf.ExerciseID, err)
		}
	}

	avgRPE := last.MeanRPE()
	avgWeight := last.MeanWeight()
	completion := completionRate(last)
	// Halves round up in both figures.
	rpeStr := fmt.Sprintf("%.1f", round1(avgRPE))
	completionStr := fmt.Sprintf("%.0f%%", math.Round(completion*100))

	if avgRPE <= 7 && completion >= 0.8 {
		increment := largeIncrement
		if avgWeight < heavyLoadThreshold {
			increment = smallIncrement
		}
		newWeight := avgWeight + increment
		return ProgressionRecommendation{
			ExerciseID: perf.ExerciseID,
			Action:     ActionIncreaseWeight,
			NewWeight:  &newWeight,
			Reasoning: fmt.Sprintf("Low RPE (%s) and high completion rate (%s) indicate readiness for weight increase",
				rpeStr, completionStr),
			Confidence: 0.85,
		}, nil
	}

	if avgRPE <= 8 && completion >= 0.7 {
		newReps := int(math.Ceil(last.MeanReps())) + 1
		return ProgressionRecommendation{
			ExerciseID: perf.ExerciseID,
			Action:     ActionIncreaseReps,
			NewReps:    &newReps,
			Reasoning: fmt.Sprintf("Moderate RPE (%s) and completion rate (%s) suggest adding volume before weight",
				rpeStr, completionStr),
			Confidence: 0.75,
		}, nil
	}

	if avgRPE >= 9 || completion < 0.6 {
		hard := hardSessions(history)
		if hard >= hardSessionsToDeload {
			newWeight := avgWeight * deloadFactor
			return ProgressionRecommendation{
				ExerciseID: perf.ExerciseID,
				Action:     ActionDeload,
				NewWeight:  &newWeight,
				Reasoning: fmt.Sprintf("%d consecutive hard sessions indicate need for deload (RPE: %s, Completion: %s)",
					hard, rpeStr, completionStr),
				Confidence: 0.9,
			}, nil
		}
		// A single hard session is not enough; fall through to maintain.
	}

	return ProgressionRecommendation{
		ExerciseID: perf.ExerciseID,
		Action:     ActionMaintain,
		Reasoning: fmt.Sprintf("Performance metrics suggest maintaining current load (RPE: %s, Completion: %s)",
			rpeStr, completionStr),
		Confidence: 0.6,
	}, nil
}

// completionRate treats the session's highest rep count as the target.
func completionRate(s Session) float64 {
	target := float64(s.MaxReps()) * completionTolerance
	var completed int
	for _, set := range s {
		if float64(set.Reps) >= target {
			completed++
		}
	}
	return float64(completed) / float64(len(s))
}

// hardSessions counts sessions among the first three whose mean RPE is at
// least 8.5. Empty sessions never count.
func hardSessions(history []Session) int {
	var n int
	for _, s := range history[:min(hardSessionLookback, len(history))] {
		if len(s) > 0 && s.MeanRPE() >= hardSessionRPE {
			n++
		}
	}
	return n
}
