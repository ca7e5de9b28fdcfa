// Package pipeline splits large payloads into fixed-geometry blocks,
// runs the codec over them on a worker pool, and reassembles the
// result. The codec itself stays single-codeword; everything about
// chunking, padding, ordering, and per-block failure policy lives
// here.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/dnastore/dnars/common"
	"github.com/dnastore/dnars/log"
	"github.com/dnastore/dnars/rs"
	"github.com/dnastore/dnars/rserrors"
)

// Config fixes the block geometry and worker count for a Processor.
type Config struct {
	DataSymbols   int // payload symbols per block (k)
	ParitySymbols int // parity symbols per block (nsym)
	Workers       int // 0 means GOMAXPROCS
}

// BlockLen is the full codeword length n = k + nsym.
func (c Config) BlockLen() int {
	return c.DataSymbols + c.ParitySymbols
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Config) validate() error {
	if c.DataSymbols <= 0 || c.ParitySymbols <= 0 || c.BlockLen() > rs.MaxCodewordLen {
		return rserrors.ErrBadGeometry
	}
	return nil
}

// Manifest describes one encoded artifact: enough to decode it back,
// trim the padding, and verify the reassembled payload.
type Manifest struct {
	PayloadSize   int         `json:"payload_size"`
	DataSymbols   int         `json:"data_symbols"`
	ParitySymbols int         `json:"parity_symbols"`
	BlockCount    int         `json:"block_count"`
	Checksum      common.Hash `json:"checksum"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Config reconstructs the block geometry the artifact was encoded
// with.
func (m Manifest) Config() Config {
	return Config{DataSymbols: m.DataSymbols, ParitySymbols: m.ParitySymbols}
}

// Artifact is an encoded payload: ordered codeword blocks plus the
// manifest that describes them.
type Artifact struct {
	Manifest Manifest `json:"manifest"`
	Blocks   [][]byte `json:"blocks"`
}

// BlockReport records the decode outcome of a single block.
type BlockReport struct {
	Index     int    `json:"index"`
	Corrected int    `json:"corrected"`
	Erasures  int    `json:"erasures,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Stats aggregates per-block outcomes over one decode run.
type Stats struct {
	Blocks           int           `json:"blocks"`
	Recovered        int           `json:"recovered"`
	Failed           int           `json:"failed"`
	SymbolsCorrected int           `json:"symbols_corrected"`
	Reports          []BlockReport `json:"reports,omitempty"`
}

// Processor runs the codec over block streams. It is stateless apart
// from the codec's immutable tables and safe for concurrent use.
type Processor struct {
	cfg   Config
	codec *rs.Codec
}

func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Processor{cfg: cfg, codec: rs.New(cfg.ParitySymbols)}, nil
}

func (p *Processor) Config() Config {
	return p.cfg
}

// Encode splits the payload into k-symbol blocks (the last one
// zero-padded), encodes each block, and returns the artifact. Block
// order is preserved regardless of worker scheduling.
func (p *Processor) Encode(ctx context.Context, payload []byte) (*Artifact, error) {
	k := p.cfg.DataSymbols
	padded := common.PadToMultipleOfN(payload, k)
	blockCount := len(padded) / k
	if len(payload) == 0 {
		blockCount = 0
	}

	blocks := make([][]byte, blockCount)
	err := p.forEachBlock(ctx, blockCount, func(i int) error {
		cw, err := p.codec.EncodeBytes(padded[i*k : (i+1)*k])
		if err != nil {
			return err
		}
		blocks[i] = cw
		return nil
	})
	if err != nil {
		return nil, err
	}

	art := &Artifact{
		Manifest: Manifest{
			PayloadSize:   len(payload),
			DataSymbols:   k,
			ParitySymbols: p.cfg.ParitySymbols,
			BlockCount:    blockCount,
			Checksum:      common.Blake2Hash(payload),
			CreatedAt:     time.Now().UTC(),
		},
		Blocks: blocks,
	}
	log.Debug(log.PipelineMonitoring, "payload encoded",
		"bytes", len(payload), "blocks", blockCount, "k", k, "nsym", p.cfg.ParitySymbols)
	return art, nil
}

// Erasures supplies known-bad positions per block index; nil means no
// erasure information.
type Erasures map[int][]int

// Decode corrects every block and reassembles the payload. A block
// that cannot be corrected does not abort the batch: its received
// data symbols pass through unmodified, the failure lands in Stats,
// and the final checksum mismatch is surfaced as an error alongside
// the best-effort payload.
func (p *Processor) Decode(ctx context.Context, art *Artifact, erasures Erasures) ([]byte, *Stats, error) {
	m := art.Manifest
	k := m.DataSymbols
	n := m.DataSymbols + m.ParitySymbols
	codec := p.codec
	if m.ParitySymbols != p.cfg.ParitySymbols {
		codec = rs.New(m.ParitySymbols)
	}

	for _, b := range art.Blocks {
		if len(b) != n {
			return nil, nil, rserrors.ErrBlockSizeMismatch
		}
	}

	stats := &Stats{
		Blocks:  len(art.Blocks),
		Reports: make([]BlockReport, len(art.Blocks)),
	}
	out := make([]byte, len(art.Blocks)*k)

	var mu sync.Mutex
	err := p.forEachBlock(ctx, len(art.Blocks), func(i int) error {
		res, err := codec.DecodeBytes(art.Blocks[i], erasures[i])
		rep := BlockReport{Index: i, Erasures: len(erasures[i])}
		if err != nil {
			rep.Error = err.Error()
			copy(out[i*k:], art.Blocks[i][:k])
			log.Debug(log.PipelineMonitoring, "block unrecoverable", "index", i, "err", err)
		} else {
			rep.Corrected = res.Corrected
			copy(out[i*k:], res.MessageBytes())
		}
		mu.Lock()
		stats.Reports[i] = rep
		if err != nil {
			stats.Failed++
		} else {
			stats.Recovered++
			stats.SymbolsCorrected += rep.Corrected
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if m.PayloadSize > len(out) {
		return nil, nil, rserrors.ErrBlockSizeMismatch
	}
	payload := out[:m.PayloadSize]

	log.Debug(log.PipelineMonitoring, "payload decoded",
		"blocks", stats.Blocks, "recovered", stats.Recovered,
		"failed", stats.Failed, "corrected", stats.SymbolsCorrected)

	if common.Blake2Hash(payload) != m.Checksum {
		return payload, stats, rserrors.ErrChecksumMismatch
	}
	return payload, stats, nil
}

// forEachBlock fans block indices out over the worker pool,
// cancelling promptly when ctx is done. The first worker error wins.
func (p *Processor) forEachBlock(ctx context.Context, count int, fn func(i int) error) error {
	if count == 0 {
		return ctx.Err()
	}
	workers := p.cfg.workers()
	if workers > count {
		workers = count
	}

	jobs := make(chan int)
	errc := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(i); err != nil {
					select {
					case errc <- err:
					default:
					}
					// keep draining so the dispatcher never blocks
					for range jobs {
					}
					return
				}
			}
		}()
	}

	var ctxErr error
dispatch:
	for i := 0; i < count; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(errc)

	if err := <-errc; err != nil {
		return err
	}
	return ctxErr
}
