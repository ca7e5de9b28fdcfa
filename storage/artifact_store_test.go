package storage

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnastore/dnars/pipeline"
)

func newTestArtifact(t *testing.T, size int) *pipeline.Artifact {
	t.Helper()
	p, err := pipeline.NewProcessor(pipeline.Config{DataSymbols: 20, ParitySymbols: 6})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(int64(size)))
	payload := make([]byte, size)
	rng.Read(payload)

	art, err := p.Encode(context.Background(), payload)
	require.NoError(t, err)
	return art
}

func TestArtifactRoundTrip(t *testing.T) {
	as, err := NewArtifactStore("")
	require.NoError(t, err)
	defer as.Close()

	art := newTestArtifact(t, 200)
	require.NoError(t, as.PutArtifact("sample", art))

	got, found, err := as.GetArtifact("sample")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, art.Manifest.Checksum, got.Manifest.Checksum)
	assert.Equal(t, art.Blocks, got.Blocks)

	_, found, err = as.GetArtifact("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutBlockOverwrite(t *testing.T) {
	as, err := NewArtifactStore("")
	require.NoError(t, err)
	defer as.Close()

	art := newTestArtifact(t, 100)
	require.NoError(t, as.PutArtifact("sample", art))

	damaged := append([]byte(nil), art.Blocks[1]...)
	damaged[0] ^= 0xFF
	require.NoError(t, as.PutBlock("sample", 1, damaged))

	got, found, err := as.GetArtifact("sample")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, damaged, got.Blocks[1])
	assert.Equal(t, art.Blocks[0], got.Blocks[0])

	assert.Error(t, as.PutBlock("sample", 99, damaged))
	assert.Error(t, as.PutBlock("missing", 0, damaged))
}

func TestReportRoundTrip(t *testing.T) {
	as, err := NewArtifactStore("")
	require.NoError(t, err)
	defer as.Close()

	stats := &pipeline.Stats{
		Blocks:           4,
		Recovered:        3,
		Failed:           1,
		SymbolsCorrected: 7,
		Reports: []pipeline.BlockReport{
			{Index: 2, Error: "D2|TooManyErrors"},
		},
	}
	require.NoError(t, as.PutReport("sample", stats))

	got, found, err := as.GetReport("sample")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stats, got)

	_, found, err = as.GetReport("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListArtifacts(t *testing.T) {
	as, err := NewArtifactStore("")
	require.NoError(t, err)
	defer as.Close()

	require.NoError(t, as.PutArtifact("beta", newTestArtifact(t, 40)))
	require.NoError(t, as.PutArtifact("alpha", newTestArtifact(t, 40)))

	names, err := as.ListArtifacts()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestPersistenceStoreBasics(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, ps.Put([]byte("k"), []byte("v")))

	got, found, err := ps.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)

	has, err := ps.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, ps.Delete([]byte("k")))
	_, found, err = ps.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, found)
}
