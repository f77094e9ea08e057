package analytics

import "fmt"

// VolumeSummary aggregates a collection of sets.
type VolumeSummary struct {
	TotalVolume   float64 `json:"total_volume"`
	IntensityLoad float64 `json:"intensity_load"`
	SetVolume     int     `json:"set_volume"`
	// AverageIntensity is the mean weight as a percentage of the 1RM
	// estimated from the mean weight and mean reps.
	AverageIntensity float64 `json:"average_intensity"`
}

// CalculateVolume sums load moved and RPE-weighted load across sets and
// derives the average relative intensity. sets must be non-empty.
func CalculateVolume(sets []LoggedSet) (VolumeSummary, error) {
	if len(sets) == 0 {
		return VolumeSummary{}, fmt.Errorf("calculate volume of no sets: %w", ErrInvalidInput)
	}
	if err := validateSets(sets); err != nil {
		return VolumeSummary{}, fmt.Errorf("calculate volume: %w", err)
	}

	s := Session(sets)
	var intensityLoad float64
	for _, set := range sets {
		intensityLoad += set.Weight * float64(set.Reps) * set.EffectiveRPE()
	}

	meanWeight := s.MeanWeight()
	reference := estimate1RM(meanWeight, s.MeanReps())
	var avgIntensity float64
	if reference != 0 {
		avgIntensity = round2(meanWeight / reference * 100)
	}

	return VolumeSummary{
		TotalVolume:      s.TotalVolume(),
		IntensityLoad:    intensityLoad,
		SetVolume:        len(sets),
		AverageIntensity: avgIntensity,
	}, nil
}
