package analytics

import (
	"errors"
	"testing"
)

// TestEstimate1RMSingleRep verifies a single rep is already a max.
func TestEstimate1RMSingleRep(t *testing.T) {
	for _, w := range []float64{20, 100, 142.5, 315} {
		got, err := Estimate1RM(w, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != w {
			t.Errorf("Estimate1RM(%g, 1) = %g, want %g", w, got, w)
		}
	}
}

// TestEstimate1RMHighReps verifies no estimate is attempted past 15 reps.
func TestEstimate1RMHighReps(t *testing.T) {
	for _, reps := range []int{16, 20, 50} {
		got, err := Estimate1RM(60, reps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 60 {
			t.Errorf("Estimate1RM(60, %d) = %g, want 60", reps, got)
		}
	}
}

// TestEstimate1RMBlend checks the blended formulas against hand-computed
// values on both sides of the 6-rep weighting switch.
func TestEstimate1RMBlend(t *testing.T) {
	tests := []struct {
		weight float64
		reps   int
		want   float64
	}{
		// 0.5×157.5 + 0.3×151.875 + 0.2×158.574
		{135, 5, 156.03},
		{225, 3, 245.45},
		{100, 2, 105.63},
		{100, 6, 118.76},
		// rep 7 switches to the Brzycki-heavy weighting
		{100, 7, 121.3},
		{100, 8, 124.69},
		{100, 10, 131.85},
	}
	for _, tt := range tests {
		got, err := Estimate1RM(tt.weight, tt.reps)
		if err != nil {
			t.Fatalf("Estimate1RM(%g, %d): unexpected error: %v", tt.weight, tt.reps, err)
		}
		if got != tt.want {
			t.Errorf("Estimate1RM(%g, %d) = %g, want %g", tt.weight, tt.reps, got, tt.want)
		}
	}
}

// TestEstimate1RMInvalid verifies non-positive reps and negative loads fail fast.
func TestEstimate1RMInvalid(t *testing.T) {
	if _, err := Estimate1RM(100, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reps=0: err = %v, want ErrInvalidInput", err)
	}
	if _, err := Estimate1RM(100, -3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reps=-3: err = %v, want ErrInvalidInput", err)
	}
	if _, err := Estimate1RM(-10, 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("weight=-10: err = %v, want ErrInvalidInput", err)
	}
}
