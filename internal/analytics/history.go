package analytics

import (
	"fmt"
	"math"
	"time"
)

// progressLookback is how many sets back the "previous" estimate is taken.
const progressLookback = 5

// GroupSessions splits sets into sessions: consecutive sets completed on the
// same UTC calendar day belong together. Order is preserved, so sets given
// most recent first yield sessions most recent first.
func GroupSessions(sets []LoggedSet) []Session {
	var sessions []Session
	var current Session
	var currentDay string
	for _, set := range sets {
		day := set.CompletedAt.UTC().Format(time.DateOnly)
		if day != currentDay && len(current) > 0 {
			sessions = append(sessions, current)
			current = nil
		}
		currentDay = day
		current = append(current, set)
	}
	if len(current) > 0 {
		sessions = append(sessions, current)
	}
	return sessions
}

// Progress compares the latest estimated 1RM of an exercise with an earlier one.
type Progress struct {
	Exercise string  `json:"exercise"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

// ProgressDelta estimates the 1RM of the most recent set and of the set
// five back (or the oldest available), rounded to whole units. Fewer than
// two sets reports no progress.
func ProgressDelta(exercise string, sets []LoggedSet) (Progress, error) {
	p := Progress{Exercise: exercise}
	if len(sets) < 2 {
		return p, nil
	}
	if err := validateSets(sets); err != nil {
		return Progress{}, fmt.Errorf("progress of %s: %w", exercise, err)
	}

	cur := sets[0]
	prev := sets[min(progressLookback, len(sets)-1)]
	current := estimate1RM(cur.Weight, float64(cur.Reps))
	previous := estimate1RM(prev.Weight, float64(prev.Reps))

	p.Current = math.Round(current)
	p.Previous = math.Round(previous)
	p.Change = math.Round(current - previous)
	return p, nil
}

// VolumeChangePct is the whole-number percentage change from previous to
// current, or 0 when there is no previous volume.
func VolumeChangePct(current, previous float64) int {
	if previous == 0 {
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// Streak counts consecutive workouts leading up to today. workouts holds one
// timestamp per workout, most recent first. A gap of one day keeps the
// streak going, a single two-day gap is forgiven without counting, and
// anything longer ends it.
func Streak(workouts []time.Time, today time.Time) int {
	current := midnight(today, today.Location())
	var streak int
	for _, w := range workouts {
		day := midnight(w, today.Location())
		diff := int(math.Floor(current.Sub(day).Hours() / 24))
		switch {
		case diff <= 1:
			streak++
			current = day
		case diff == 2:
			continue
		default:
			return streak
		}
	}
	return streak
}

// WeekStart returns Sunday 00:00 of the week containing t.
func WeekStart(t time.Time) time.Time {
	return midnight(t, t.Location()).AddDate(0, 0, -int(t.Weekday()))
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
