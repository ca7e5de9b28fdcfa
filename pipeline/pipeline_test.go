package pipeline

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnastore/dnars/rserrors"
)

func testPayload(t *testing.T, size int, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	payload := make([]byte, size)
	_, err := rng.Read(payload)
	require.NoError(t, err)
	return payload
}

func TestProcessorBadGeometry(t *testing.T) {
	_, err := NewProcessor(Config{DataSymbols: 0, ParitySymbols: 4})
	assert.ErrorIs(t, err, rserrors.ErrBadGeometry)

	_, err = NewProcessor(Config{DataSymbols: 250, ParitySymbols: 10})
	assert.ErrorIs(t, err, rserrors.ErrBadGeometry)

	_, err = NewProcessor(Config{DataSymbols: 223, ParitySymbols: 32})
	assert.NoError(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 223, ParitySymbols: 32, Workers: 4})
	require.NoError(t, err)

	for _, size := range []int{0, 1, 100, 223, 224, 10000} {
		payload := testPayload(t, size, int64(size))
		art, err := p.Encode(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, size, art.Manifest.PayloadSize)
		assert.Equal(t, (size+222)/223, art.Manifest.BlockCount)

		got, stats, err := p.Decode(context.Background(), art, nil)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, payload, got)
		assert.Equal(t, stats.Blocks, stats.Recovered)
		assert.Zero(t, stats.Failed)
		assert.Zero(t, stats.SymbolsCorrected, "clean artifact needs no correction")
	}
}

func TestDecodeCorrectsScatteredErrors(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 50, ParitySymbols: 10, Workers: 2})
	require.NoError(t, err)

	payload := testPayload(t, 500, 11)
	art, err := p.Encode(context.Background(), payload)
	require.NoError(t, err)

	// up to floor(10/2)=5 substitutions in every block
	rng := rand.New(rand.NewSource(12))
	for i := range art.Blocks {
		for _, pos := range rng.Perm(len(art.Blocks[i]))[:5] {
			art.Blocks[i][pos] ^= byte(1 + rng.Intn(255))
		}
	}

	got, stats, err := p.Decode(context.Background(), art, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, stats.Blocks, stats.Recovered)
	assert.Equal(t, 5*stats.Blocks, stats.SymbolsCorrected)
}

func TestDecodeWithErasures(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 20, ParitySymbols: 6, Workers: 1})
	require.NoError(t, err)

	payload := testPayload(t, 60, 21)
	art, err := p.Encode(context.Background(), payload)
	require.NoError(t, err)

	// six erased symbols in block 1, full parity budget
	erased := []int{0, 3, 7, 10, 15, 25}
	for _, pos := range erased {
		art.Blocks[1][pos] = 0
	}

	got, stats, err := p.Decode(context.Background(), art, Erasures{1: erased})
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, len(erased), stats.Reports[1].Erasures)
}

func TestDecodeFailurePolicy(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 10, ParitySymbols: 4, Workers: 3})
	require.NoError(t, err)

	payload := testPayload(t, 100, 31)
	art, err := p.Encode(context.Background(), payload)
	require.NoError(t, err)

	// destroy block 2 far beyond the Singleton bound
	rng := rand.New(rand.NewSource(32))
	for _, pos := range rng.Perm(len(art.Blocks[2]))[:7] {
		art.Blocks[2][pos] ^= byte(1 + rng.Intn(255))
	}

	got, stats, err := p.Decode(context.Background(), art, nil)
	// best-effort payload plus an explicit failure signal
	assert.ErrorIs(t, err, rserrors.ErrChecksumMismatch)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, stats.Blocks-1, stats.Recovered)
	assert.NotEmpty(t, stats.Reports[2].Error)

	// undamaged blocks still came back intact
	require.Len(t, got, len(payload))
	assert.Equal(t, payload[:20], got[:20])
	assert.Equal(t, payload[30:], got[30:])
}

func TestDecodeBlockSizeMismatch(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 10, ParitySymbols: 4})
	require.NoError(t, err)

	payload := testPayload(t, 30, 41)
	art, err := p.Encode(context.Background(), payload)
	require.NoError(t, err)

	art.Blocks[0] = art.Blocks[0][:len(art.Blocks[0])-1]
	_, _, err = p.Decode(context.Background(), art, nil)
	assert.ErrorIs(t, err, rserrors.ErrBlockSizeMismatch)
}

func TestEncodeCancelled(t *testing.T) {
	p, err := NewProcessor(Config{DataSymbols: 10, ParitySymbols: 4, Workers: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Encode(ctx, testPayload(t, 100000, 51))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManifestConfigRoundTrip(t *testing.T) {
	cfg := Config{DataSymbols: 100, ParitySymbols: 16}
	p, err := NewProcessor(cfg)
	require.NoError(t, err)

	art, err := p.Encode(context.Background(), testPayload(t, 250, 61))
	require.NoError(t, err)

	back := art.Manifest.Config()
	assert.Equal(t, cfg.DataSymbols, back.DataSymbols)
	assert.Equal(t, cfg.ParitySymbols, back.ParitySymbols)
}
