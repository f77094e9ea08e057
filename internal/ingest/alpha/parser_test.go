package alpha

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/meltforce/freelift/internal/models"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;1
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
3;+35;10;0
"4. Reverse Lunges · Dumbbells · 10 reps"
#;KG;REPS;RIR
1;10;10;1
2;10;10;1
3;10;10;0
"5. Standing Calf Raises · Machine · 12 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;157,5;11;1
2;157,5;11;0
3;157,5;10;0
"6. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;1
3;+0;12;0

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps<br>WU3 · 77,5 kg · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
`

// TestParseSessions verifies a multi-session export splits into sessions,
// exercises and sets with names and equipment separated.
func TestParseSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	if got := sessions[0].Date.Format("2006-01-02 15:04"); got != "2026-02-19 04:54" {
		t.Errorf("date = %s, want 2026-02-19 04:54", got)
	}
	if sessions[1].Name != "Push · Day 1 · Week 4 · Push-Pull-Legs" {
		t.Errorf("second session = %q", sessions[1].Name)
	}

	type shape struct {
		Name, Equipment string
		Target, Sets    int
	}
	var got []shape
	for _, ex := range sessions[0].Exercises {
		got = append(got, shape{ex.Name, ex.Equipment, ex.TargetReps, len(ex.Sets)})
	}
	want := []shape{
		{"Hack Squats", "Machine", 8, 5},
		{"Sumo Squats", "Smith machine", 10, 3},
		{"Hyperextensions on Roman Chair", "Bodyweight", 10, 4},
		{"Reverse Lunges", "Dumbbells", 10, 3},
		{"Standing Calf Raises", "Machine", 12, 4},
		{"Hanging Leg Raises", "Bodyweight", 12, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
}

// TestParseWorkingSets verifies European decimals, bodyweight-plus loads and RIR.
func TestParseWorkingSets(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	calf := sessions[0].Exercises[4].Sets
	want := models.AlphaSet{Number: 1, WeightKg: 157.5, Reps: 11, RIR: 1}
	if diff := cmp.Diff(want, calf[1]); diff != "" {
		t.Errorf("calf set mismatch (-want +got):\n%s", diff)
	}

	hyper := sessions[0].Exercises[2].Sets
	want = models.AlphaSet{Number: 1, WeightKg: 35, IsBodyweightPlus: true, Reps: 10, RIR: 0}
	if diff := cmp.Diff(want, hyper[1]); diff != "" {
		t.Errorf("hyperextension set mismatch (-want +got):\n%s", diff)
	}
}

// TestParseWeight covers plain, decimal-comma and bodyweight-plus loads.
func TestParseWeight(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantBW bool
	}{
		{"115", 115, false},
		{"102,5", 102.5, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{" 7,25 ", 7.25, false},
	}
	for _, tt := range tests {
		got, bw := parseWeight(tt.in)
		if got != tt.want || bw != tt.wantBW {
			t.Errorf("parseWeight(%q) = (%g, %v), want (%g, %v)", tt.in, got, bw, tt.want, tt.wantBW)
		}
	}
}

// TestParseRIR verifies half-RIR values and the untracked sentinel.
func TestParseRIR(t *testing.T) {
	tests := map[string]float64{
		"0,5": 0.5,
		"2":   2,
		"-1":  models.UntrackedRIR,
		"":    models.UntrackedRIR,
		"-":   models.UntrackedRIR,
	}
	for in, want := range tests {
		if got := parseRIR(in); got != want {
			t.Errorf("parseRIR(%q) = %g, want %g", in, got, want)
		}
	}
}

// TestParseWarmups verifies <br>-separated warm-ups are flagged and carry no RIR.
func TestParseWarmups(t *testing.T) {
	got := parseWarmups("WU1 · 37,5 kg · 9 reps<br>WU2 · +0 kg · 7 reps")
	want := []models.AlphaSet{
		{Number: 1, WeightKg: 37.5, Reps: 9, RIR: models.UntrackedRIR, IsWarmup: true},
		{Number: 2, WeightKg: 0, IsBodyweightPlus: true, Reps: 7, RIR: models.UntrackedRIR, IsWarmup: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("warmups mismatch (-want +got):\n%s", diff)
	}
	if parseWarmups("") != nil {
		t.Error("empty warm-up field should yield no sets")
	}
}

// TestParseEmptyInput verifies empty input returns no sessions without error.
func TestParseEmptyInput(t *testing.T) {
	sessions, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
}

// TestParseOrphanRows verifies structural errors report the line number.
func TestParseOrphanRows(t *testing.T) {
	tests := map[string]string{
		"exercise before session": `"1. Bench Press · Barbell · 6 reps"`,
		"set before exercise":     "\"Push\";\"2026-02-17 5:04 h\";\"1:12 hr\"\n1;100;6;0",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			if err == nil || !strings.HasPrefix(err.Error(), "line ") {
				t.Errorf("err = %v, want line-numbered error", err)
			}
		})
	}
}
