package bench

import (
	"math"
	"sort"
	"time"
)

// TimingStats collects per-operation durations for one benchmark case.
type TimingStats struct {
	Samples []time.Duration
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
}

func NewTimingStats() *TimingStats {
	return &TimingStats{Min: time.Duration(math.MaxInt64)}
}

func (ts *TimingStats) Record(d time.Duration) {
	ts.Samples = append(ts.Samples, d)
	ts.Total += d
	if d < ts.Min {
		ts.Min = d
	}
	if d > ts.Max {
		ts.Max = d
	}
}

func (ts *TimingStats) CalculateAverage() time.Duration {
	if len(ts.Samples) == 0 {
		return 0
	}
	return ts.Total / time.Duration(len(ts.Samples))
}

func (ts *TimingStats) CalculatePercentile(p float64) time.Duration {
	if len(ts.Samples) == 0 {
		return 0
	}

	times := make([]time.Duration, len(ts.Samples))
	copy(times, ts.Samples)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	n := len(times)
	index := p * float64(n-1)

	if index == float64(int(index)) {
		return times[int(index)]
	}

	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	weight := index - math.Floor(index)

	return time.Duration(float64(times[lower]) + weight*float64(times[upper]-times[lower]))
}

func (ts *TimingStats) CalculateStandardDeviation() float64 {
	if len(ts.Samples) == 0 {
		return 0
	}

	mean := ts.CalculateAverage()
	sum := 0.0
	for _, d := range ts.Samples {
		diff := float64(d - mean)
		sum += diff * diff
	}

	variance := sum / float64(len(ts.Samples))
	return math.Sqrt(variance)
}

// Summary is the reported view of a TimingStats, in milliseconds.
type Summary struct {
	Samples  int     `json:"samples"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	MeanMs   float64 `json:"mean_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P99Ms    float64 `json:"p99_ms"`
	StdDevMs float64 `json:"std_dev_ms"`
}

func (ts *TimingStats) Summarize() Summary {
	if len(ts.Samples) == 0 {
		return Summary{}
	}
	return Summary{
		Samples:  len(ts.Samples),
		MinMs:    float64(ts.Min.Nanoseconds()) / 1e6,
		MaxMs:    float64(ts.Max.Nanoseconds()) / 1e6,
		MeanMs:   float64(ts.CalculateAverage().Nanoseconds()) / 1e6,
		P50Ms:    float64(ts.CalculatePercentile(0.5).Nanoseconds()) / 1e6,
		P90Ms:    float64(ts.CalculatePercentile(0.9).Nanoseconds()) / 1e6,
		P99Ms:    float64(ts.CalculatePercentile(0.99).Nanoseconds()) / 1e6,
		StdDevMs: ts.CalculateStandardDeviation() / 1e6,
	}
}
