package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dnastore/dnars/common"
	"github.com/dnastore/dnars/log"
	"github.com/dnastore/dnars/pipeline"
)

// Key prefixes. Blocks are content-addressed by BLAKE2b hash so
// identical blocks across artifacts share one record.
var (
	prefixArtifact = []byte("a/")
	prefixBlock    = []byte("b/")
	prefixReport   = []byte("r/")
)

// ArtifactRecord is the persisted form of an encoded artifact: the
// manifest plus the ordered content hashes of its blocks.
type ArtifactRecord struct {
	Manifest    pipeline.Manifest `json:"manifest"`
	BlockHashes []common.Hash     `json:"block_hashes"`
}

// ArtifactStore persists encoded artifacts, their blocks, and decode
// reports on top of the raw PersistenceStore.
type ArtifactStore struct {
	ps *PersistenceStore
}

// NewArtifactStore opens an artifact store at path, or in memory when
// path is empty.
func NewArtifactStore(path string) (*ArtifactStore, error) {
	ps, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return &ArtifactStore{ps: ps}, nil
}

func artifactKey(name string) []byte {
	return append(append([]byte{}, prefixArtifact...), name...)
}

func blockKey(h common.Hash) []byte {
	return append(append([]byte{}, prefixBlock...), h.Bytes()...)
}

func reportKey(name string) []byte {
	return append(append([]byte{}, prefixReport...), name...)
}

// PutArtifact stores every block content-addressed and the record
// under the artifact name.
func (as *ArtifactStore) PutArtifact(name string, art *pipeline.Artifact) error {
	record := ArtifactRecord{
		Manifest:    art.Manifest,
		BlockHashes: make([]common.Hash, len(art.Blocks)),
	}
	for i, block := range art.Blocks {
		h := common.Blake2Hash(block)
		record.BlockHashes[i] = h
		if err := as.ps.Put(blockKey(h), block); err != nil {
			return fmt.Errorf("store block %d: %w", i, err)
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := as.ps.Put(artifactKey(name), data); err != nil {
		return err
	}
	log.Debug(log.StoreMonitoring, "artifact stored",
		"name", name, "blocks", len(art.Blocks), "checksum", art.Manifest.Checksum.StringShort())
	return nil
}

// GetArtifact loads an artifact and its blocks back. Returns
// (nil, false, nil) when the name is unknown.
func (as *ArtifactStore) GetArtifact(name string) (*pipeline.Artifact, bool, error) {
	data, found, err := as.ps.Get(artifactKey(name))
	if err != nil || !found {
		return nil, false, err
	}

	var record ArtifactRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, false, fmt.Errorf("artifact %s: %w", name, err)
	}

	art := &pipeline.Artifact{
		Manifest: record.Manifest,
		Blocks:   make([][]byte, len(record.BlockHashes)),
	}
	for i, h := range record.BlockHashes {
		block, found, err := as.ps.Get(blockKey(h))
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, fmt.Errorf("artifact %s: block %d (%s) missing", name, i, h.StringShort())
		}
		art.Blocks[i] = block
	}
	return art, true, nil
}

// PutBlock overwrites one block of a stored artifact, rehashing it
// into the record. Used by the corruption tool.
func (as *ArtifactStore) PutBlock(name string, index int, block []byte) error {
	data, found, err := as.ps.Get(artifactKey(name))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("artifact %s not found", name)
	}
	var record ArtifactRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	if index < 0 || index >= len(record.BlockHashes) {
		return fmt.Errorf("artifact %s: block index %d out of range", name, index)
	}

	h := common.Blake2Hash(block)
	if err := as.ps.Put(blockKey(h), block); err != nil {
		return err
	}
	record.BlockHashes[index] = h
	updated, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return as.ps.Put(artifactKey(name), updated)
}

// PutReport stores a decode stats report under the artifact name.
func (as *ArtifactStore) PutReport(name string, stats *pipeline.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return as.ps.Put(reportKey(name), data)
}

// GetReport loads a decode stats report.
func (as *ArtifactStore) GetReport(name string) (*pipeline.Stats, bool, error) {
	data, found, err := as.ps.Get(reportKey(name))
	if err != nil || !found {
		return nil, false, err
	}
	var stats pipeline.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

// ListArtifacts returns the names of every stored artifact in key
// order.
func (as *ArtifactStore) ListArtifacts() ([]string, error) {
	pairs, err := as.ps.GetWithPrefix(prefixArtifact)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pairs))
	for i, pair := range pairs {
		names[i] = string(pair[0][len(prefixArtifact):])
	}
	return names, nil
}

func (as *ArtifactStore) Close() error {
	return as.ps.Close()
}
