package bench

import (
	"bytes"
	"context"
	"math/rand"
	"time"

	"github.com/dnastore/dnars/log"
	"github.com/dnastore/dnars/pipeline"
)

// Options selects the benchmark sweeps. Zero-valued fields fall back
// to DefaultOptions.
type Options struct {
	DataSymbols    int
	ParitySymbols  int
	PayloadSizes   []int
	ErrorsPerBlock []int
	WorkerCounts   []int
	Trials         int
	Seed           int64
}

func DefaultOptions() Options {
	return Options{
		DataSymbols:    223,
		ParitySymbols:  32,
		PayloadSizes:   []int{1 << 10, 16 << 10, 256 << 10, 1 << 20},
		ErrorsPerBlock: []int{0, 4, 8, 12, 16},
		WorkerCounts:   []int{1, 2, 4, 8},
		Trials:         5,
		Seed:           1,
	}
}

func (o *Options) setDefaults() {
	def := DefaultOptions()
	if o.DataSymbols == 0 {
		o.DataSymbols = def.DataSymbols
	}
	if o.ParitySymbols == 0 {
		o.ParitySymbols = def.ParitySymbols
	}
	if len(o.PayloadSizes) == 0 {
		o.PayloadSizes = def.PayloadSizes
	}
	if len(o.ErrorsPerBlock) == 0 {
		o.ErrorsPerBlock = def.ErrorsPerBlock
	}
	if len(o.WorkerCounts) == 0 {
		o.WorkerCounts = def.WorkerCounts
	}
	if o.Trials == 0 {
		o.Trials = def.Trials
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
}

// SizeResult is one row of the payload-size sweep.
type SizeResult struct {
	PayloadBytes int     `json:"payload_bytes"`
	Encode       Summary `json:"encode"`
	Decode       Summary `json:"decode"`
	EncodeMBps   float64 `json:"encode_mbps"`
	DecodeMBps   float64 `json:"decode_mbps"`
}

// ErrorResult is one row of the errors-per-block sweep.
type ErrorResult struct {
	ErrorsPerBlock int     `json:"errors_per_block"`
	Blocks         int     `json:"blocks"`
	Recovered      int     `json:"recovered"`
	Failed         int     `json:"failed"`
	RecoveryPct    float64 `json:"recovery_pct"`
	Decode         Summary `json:"decode"`
}

// WorkerResult is one row of the worker-count sweep.
type WorkerResult struct {
	Workers    int     `json:"workers"`
	Encode     Summary `json:"encode"`
	EncodeMBps float64 `json:"encode_mbps"`
}

// Report aggregates one complete benchmark run.
type Report struct {
	GeneratedAt    string         `json:"generated_at"`
	DataSymbols    int            `json:"data_symbols"`
	ParitySymbols  int            `json:"parity_symbols"`
	Trials         int            `json:"trials"`
	TotalElapsedMs float64        `json:"total_elapsed_ms"`
	Sizes          []SizeResult   `json:"sizes"`
	ErrorRates     []ErrorResult  `json:"error_rates"`
	Workers        []WorkerResult `json:"workers"`
}

func mbps(bytes int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) / (1 << 20) / d.Seconds()
}

// Run executes all three sweeps and returns the aggregated report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts.setDefaults()
	start := time.Now()

	report := &Report{
		GeneratedAt:   start.UTC().Format(time.RFC3339),
		DataSymbols:   opts.DataSymbols,
		ParitySymbols: opts.ParitySymbols,
		Trials:        opts.Trials,
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	for _, size := range opts.PayloadSizes {
		res, err := runSizeCase(ctx, opts, rng, size)
		if err != nil {
			return nil, err
		}
		report.Sizes = append(report.Sizes, res)
	}

	for _, errs := range opts.ErrorsPerBlock {
		res, err := runErrorCase(ctx, opts, rng, errs)
		if err != nil {
			return nil, err
		}
		report.ErrorRates = append(report.ErrorRates, res)
	}

	for _, workers := range opts.WorkerCounts {
		res, err := runWorkerCase(ctx, opts, rng, workers)
		if err != nil {
			return nil, err
		}
		report.Workers = append(report.Workers, res)
	}

	report.TotalElapsedMs = float64(time.Since(start).Nanoseconds()) / 1e6
	log.Info(log.BenchMonitoring, "benchmark complete", "elapsed", time.Since(start))
	return report, nil
}

func randomPayload(rng *rand.Rand, size int) []byte {
	payload := make([]byte, size)
	rng.Read(payload)
	return payload
}

func runSizeCase(ctx context.Context, opts Options, rng *rand.Rand, size int) (SizeResult, error) {
	cfg := pipeline.Config{DataSymbols: opts.DataSymbols, ParitySymbols: opts.ParitySymbols}
	proc, err := pipeline.NewProcessor(cfg)
	if err != nil {
		return SizeResult{}, err
	}

	payload := randomPayload(rng, size)
	encStats := NewTimingStats()
	decStats := NewTimingStats()

	for i := 0; i < opts.Trials; i++ {
		t0 := time.Now()
		art, err := proc.Encode(ctx, payload)
		if err != nil {
			return SizeResult{}, err
		}
		encStats.Record(time.Since(t0))

		t0 = time.Now()
		if _, _, err := proc.Decode(ctx, art, nil); err != nil {
			return SizeResult{}, err
		}
		decStats.Record(time.Since(t0))
	}

	log.Debug(log.BenchMonitoring, "size case done", "bytes", size, "encode_mean", encStats.CalculateAverage(), "decode_mean", decStats.CalculateAverage())

	return SizeResult{
		PayloadBytes: size,
		Encode:       encStats.Summarize(),
		Decode:       decStats.Summarize(),
		EncodeMBps:   mbps(size*opts.Trials, encStats.Total),
		DecodeMBps:   mbps(size*opts.Trials, decStats.Total),
	}, nil
}

func runErrorCase(ctx context.Context, opts Options, rng *rand.Rand, errsPerBlock int) (ErrorResult, error) {
	cfg := pipeline.Config{DataSymbols: opts.DataSymbols, ParitySymbols: opts.ParitySymbols}
	proc, err := pipeline.NewProcessor(cfg)
	if err != nil {
		return ErrorResult{}, err
	}

	const payloadSize = 64 << 10
	payload := randomPayload(rng, payloadSize)
	decStats := NewTimingStats()
	result := ErrorResult{ErrorsPerBlock: errsPerBlock}

	for i := 0; i < opts.Trials; i++ {
		art, err := proc.Encode(ctx, payload)
		if err != nil {
			return ErrorResult{}, err
		}

		corruptor := NewCorruptor(opts.Seed + int64(errsPerBlock)*1000 + int64(i))
		corruptor.CorruptArtifact(art, errsPerBlock)

		t0 := time.Now()
		got, stats, err := proc.Decode(ctx, art, nil)
		decStats.Record(time.Since(t0))
		if stats == nil {
			return ErrorResult{}, err
		}

		result.Blocks += stats.Blocks
		result.Recovered += stats.Recovered
		result.Failed += stats.Failed
		if err == nil && !bytes.Equal(got, payload) {
			log.Warn(log.BenchMonitoring, "silent payload mismatch", "errors_per_block", errsPerBlock, "trial", i)
		}
	}

	if result.Blocks > 0 {
		result.RecoveryPct = 100 * float64(result.Recovered) / float64(result.Blocks)
	}
	result.Decode = decStats.Summarize()
	return result, nil
}

func runWorkerCase(ctx context.Context, opts Options, rng *rand.Rand, workers int) (WorkerResult, error) {
	cfg := pipeline.Config{DataSymbols: opts.DataSymbols, ParitySymbols: opts.ParitySymbols, Workers: workers}
	proc, err := pipeline.NewProcessor(cfg)
	if err != nil {
		return WorkerResult{}, err
	}

	const payloadSize = 1 << 20
	payload := randomPayload(rng, payloadSize)
	encStats := NewTimingStats()

	for i := 0; i < opts.Trials; i++ {
		t0 := time.Now()
		if _, err := proc.Encode(ctx, payload); err != nil {
			return WorkerResult{}, err
		}
		encStats.Record(time.Since(t0))
	}

	return WorkerResult{
		Workers:    workers,
		Encode:     encStats.Summarize(),
		EncodeMBps: mbps(payloadSize*opts.Trials, encStats.Total),
	}, nil
}
