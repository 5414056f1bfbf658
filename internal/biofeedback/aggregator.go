package biofeedback

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/mtreharne/focusbeat/internal/client/oura"
)

// rollingWindow is the smoothing window for the heart-rate mean.
// Wearable bpm readings are noisy; a single spike should not flip the
// focus signal.
const rollingWindow = 5 * time.Minute

// Vendor payloads are not stable across firmware versions. Candidates
// are tried in order; the first present field wins.
var (
	bpmFields       = []string{"bpm", "heart_rate", "hr", "value"}
	timestampFields = []string{"timestamp", "datetime", "time", "recorded_at"}
)

type Sample struct {
	Timestamp string  `json:"timestamp"`
	Bpm       float64 `json:"bpm"`
}

type Summary struct {
	Samples []Sample       `json:"samples"`
	Latest  *Sample        `json:"latest,omitempty"`
	Rolling float64        `json:"rolling_bpm"`
	Stress  *StressBuckets `json:"stress,omitempty"`
}

// Summarize normalizes raw vendor rows into an ordered sample series
// with a rolling mean, plus today's stress buckets when present.
func Summarize(heartRows []oura.Row, stressRow oura.Row) Summary {
	samples := extractSamples(heartRows)

	s := Summary{Samples: samples}
	if len(samples) > 0 {
		latest := samples[len(samples)-1]
		s.Latest = &latest
		s.Rolling = rollingMean(samples)
	}
	if stressRow != nil {
		stress := normalizeStress(stressRow)
		s.Stress = &stress
	}
	return s
}

func extractSamples(rows []oura.Row) []Sample {
	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		bpm, okBpm := floatField(row, bpmFields...)
		ts, okTS := stringField(row, timestampFields...)
		if !okBpm || !okTS {
			continue
		}
		samples = append(samples, Sample{Timestamp: ts, Bpm: bpm})
	}

	// ISO-8601 timestamps sort correctly as strings; stable sort keeps
	// same-second readings in vendor order.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})
	return samples
}

// rollingMean averages the samples inside the window ending at the
// newest sample's timestamp, rounded to one decimal.
func rollingMean(samples []Sample) float64 {
	latest, err := time.Parse(time.RFC3339, samples[len(samples)-1].Timestamp)
	if err != nil {
		return meanOf(samples)
	}
	cutoff := latest.Add(-rollingWindow)

	var windowed []Sample
	for _, s := range samples {
		ts, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			continue
		}
		if ts.After(cutoff) {
			windowed = append(windowed, s)
		}
	}
	if len(windowed) == 0 {
		return meanOf(samples)
	}
	return meanOf(windowed)
}

func meanOf(samples []Sample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.Bpm
	}
	return round1(sum / float64(len(samples)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func floatField(row oura.Row, names ...string) (float64, bool) {
	for _, name := range names {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stringField(row oura.Row, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := row[name].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
