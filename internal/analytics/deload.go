package analytics

import "fmt"

// Severity grades how urgently a deload is needed.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// DefaultDeloadWindowDays is the window callers conventionally pre-filter
// sessions to before calling DetectDeloadNeed.
const DefaultDeloadWindowDays = 14

const minDeloadSessions = 3

// DeloadAssessment reports whether a deload period is warranted.
type DeloadAssessment struct {
	NeedsDeload bool     `json:"needs_deload"`
	Reason      string   `json:"reason"`
	Severity    Severity `json:"severity"`
}

// DetectDeloadNeed looks for falling volume under high exertion and for
// sustained high-RPE sessions. recentSessions is ordered most recent first
// and must hold at least three sessions for any verdict.
//
// windowDays is accepted for interface compatibility but does not filter:
// the caller restricts recentSessions to the window before calling.
func DetectDeloadNeed(recentSessions []Session, windowDays int) (DeloadAssessment, error) {
	if len(recentSessions) < minDeloadSessions {
		return DeloadAssessment{Reason: "Insufficient data", Severity: SeverityMild}, nil
	}

	volumes := make([]float64, len(recentSessions))
	rpes := make([]float64, len(recentSessions))
	for i, s := range recentSessions {
		summary, err := CalculateVolume(s)
		if err != nil {
			return DeloadAssessment{}, fmt.Errorf("session %d: %w", i, err)
		}
		volumes[i] = summary.TotalVolume
		rpes[i] = s.MeanRPE()
	}

	recentVolume := mean(volumes[:2])
	olderVolume := mean(volumes[len(volumes)-2:])
	var volumeDecline float64
	if olderVolume != 0 {
		volumeDecline = (olderVolume - recentVolume) / olderVolume * 100
	}

	avgRecentRPE := mean(rpes[:3])
	var highRPESessions int
	for _, rpe := range rpes {
		if rpe >= hardSessionRPE {
			highRPESessions++
		}
	}

	switch {
	case volumeDecline > 15 && avgRecentRPE > 8:
		return DeloadAssessment{
			NeedsDeload: true,
			Reason:      fmt.Sprintf("Volume declined %.1f%% with high RPE (%.1f)", round1(volumeDecline), round1(avgRecentRPE)),
			Severity:    SeveritySevere,
		}, nil
	case highRPESessions >= 3:
		return DeloadAssessment{
			NeedsDeload: true,
			Reason:      fmt.Sprintf("%d consecutive high-RPE sessions", highRPESessions),
			Severity:    SeverityModerate,
		}, nil
	case avgRecentRPE > 8.5:
		return DeloadAssessment{
			NeedsDeload: true,
			Reason:      fmt.Sprintf("Consistently high RPE (%.1f)", round1(avgRecentRPE)),
			Severity:    SeverityMild,
		}, nil
	}

	return DeloadAssessment{Reason: "Performance within normal range", Severity: SeverityMild}, nil
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
