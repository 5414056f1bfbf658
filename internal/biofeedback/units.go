package biofeedback

type StressBuckets struct {
	Day           string  `json:"day,omitempty"`
	StressedHours float64 `json:"stressed_hours"`
	EngagedHours  float64 `json:"engaged_hours"`
	RelaxedHours  float64 `json:"relaxed_hours"`
	RestoredHours float64 `json:"restored_hours"`
	Summary       string  `json:"summary,omitempty"`
}

type timeUnit int

const (
	unitAuto timeUnit = iota
	unitSeconds
	unitMinutes
	unitHours
)

type bucketField struct {
	name string
	unit timeUnit
}

// Field names observed across vendor API versions, in priority order.
// Explicitly-suffixed fields carry a known unit; bare names fall back
// to the magnitude heuristic.
var (
	stressedFields = []bucketField{
		{"stress_high", unitSeconds},
		{"high_stress_minutes", unitMinutes},
		{"stressed_hours", unitHours},
		{"stressed", unitAuto},
	}
	engagedFields = []bucketField{
		{"stress_medium", unitSeconds},
		{"medium_stress_minutes", unitMinutes},
		{"engaged_hours", unitHours},
		{"engaged", unitAuto},
	}
	relaxedFields = []bucketField{
		{"stress_low", unitSeconds},
		{"low_stress_minutes", unitMinutes},
		{"relaxed_hours", unitHours},
		{"relaxed", unitAuto},
	}
	restoredFields = []bucketField{
		{"recovery_high", unitSeconds},
		{"restored_minutes", unitMinutes},
		{"restored_hours", unitHours},
		{"restored", unitAuto},
	}

	dayFields     = []string{"day", "date", "calendar_date"}
	summaryFields = []string{"day_summary", "stress_summary", "summary"}
)

func normalizeStress(row map[string]any) StressBuckets {
	b := StressBuckets{
		StressedHours: bucketHours(row, stressedFields),
		EngagedHours:  bucketHours(row, engagedFields),
		RelaxedHours:  bucketHours(row, relaxedFields),
		RestoredHours: bucketHours(row, restoredFields),
	}
	b.Day, _ = stringField(row, dayFields...)
	b.Summary, _ = stringField(row, summaryFields...)

	// The vendor sometimes labels a day "stressed" while reporting zero
	// stressed time. Show a nominal 0.1h so the UI does not contradict
	// the label. TODO: confirm with the vendor whether the zeroed
	// duration is a reporting bug and drop this override if so.
	if b.StressedHours == 0 && isStressedLabel(b.Summary) {
		b.StressedHours = 0.1
	}
	return b
}

func isStressedLabel(summary string) bool {
	return summary == "stressed" || summary == "stressful"
}

func bucketHours(row map[string]any, fields []bucketField) float64 {
	for _, f := range fields {
		v, ok := floatField(row, f.name)
		if !ok {
			continue
		}
		return round1(toHours(v, f.unit))
	}
	return 0
}

func toHours(v float64, unit timeUnit) float64 {
	if unit == unitAuto {
		unit = inferUnit(v)
	}
	switch unit {
	case unitSeconds:
		return v / 3600
	case unitMinutes:
		return v / 60
	default:
		return v
	}
}

// inferUnit guesses the unit of an unsuffixed duration from its
// magnitude: a day holds at most 24 hours and 1440 minutes.
func inferUnit(v float64) timeUnit {
	switch {
	case v >= 3600:
		return unitSeconds
	case v > 24:
		return unitMinutes
	default:
		return unitHours
	}
}
