package biofeedback

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeStressKnownUnits(t *testing.T) {
	t.Parallel()

	// stress_high is documented as seconds; 5400s = 1.5h.
	row := map[string]any{
		"day":           "2026-08-24",
		"stress_high":   5400.0,
		"stress_medium": 10800.0,
		"stress_low":    7200.0,
		"recovery_high": 3600.0,
		"day_summary":   "normal",
	}

	got := normalizeStress(row)

	want := StressBuckets{
		Day:           "2026-08-24",
		StressedHours: 1.5,
		EngagedHours:  3.0,
		RelaxedHours:  2.0,
		RestoredHours: 1.0,
		Summary:       "normal",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeStressMagnitudeHeuristic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "large values are seconds", raw: 5400, want: 1.5},
		{name: "mid values are minutes", raw: 90, want: 1.5},
		{name: "small values are hours", raw: 3, want: 3.0},
		{name: "boundary 24 is hours", raw: 24, want: 24.0},
		{name: "boundary 25 is minutes", raw: 25, want: 0.4},
		{name: "boundary 3600 is seconds", raw: 3600, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeStress(map[string]any{"stressed": tt.raw})
			if got.StressedHours != tt.want {
				t.Errorf("StressedHours = %v, want %v", got.StressedHours, tt.want)
			}
		})
	}
}

func TestNormalizeStressFieldPriority(t *testing.T) {
	t.Parallel()

	// the explicitly-suffixed vendor field wins over the bare one
	row := map[string]any{
		"stress_high": 7200.0,
		"stressed":    9.0,
	}

	got := normalizeStress(row)
	if got.StressedHours != 2.0 {
		t.Errorf("StressedHours = %v, want 2.0 from stress_high", got.StressedHours)
	}
}

func TestNormalizeStressedLabelWithZeroDuration(t *testing.T) {
	t.Parallel()

	row := map[string]any{
		"day":         "2026-08-24",
		"stress_high": 0.0,
		"day_summary": "stressed",
	}

	got := normalizeStress(row)
	if got.StressedHours != 0.1 {
		t.Errorf("StressedHours = %v, want nominal 0.1 for stressed label", got.StressedHours)
	}
}

func TestNormalizeStressMissingFields(t *testing.T) {
	t.Parallel()

	got := normalizeStress(map[string]any{"day": "2026-08-24"})

	want := StressBuckets{Day: "2026-08-24"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}
