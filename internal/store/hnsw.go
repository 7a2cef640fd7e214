package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWIndex implements VectorIndex using the pure Go coder/hnsw graph.
// Chunk metadata (regulation, parent node id) is kept in a sidecar map so
// searches can be filtered without an external store lookup.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorConfig

	// string id <-> internal graph key
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	// per-id metadata used for equality filters
	metadata map[string]map[string]string

	closed bool
}

// hnswSidecar is the gob-persisted companion of the graph export.
type hnswSidecar struct {
	IDMap    map[string]uint64
	NextKey  uint64
	Config   VectorConfig
	Metadata map[string]map[string]string
}

// filterOversample controls how many extra neighbors a filtered search
// pulls from the graph before applying the metadata filter.
const filterOversample = 4

// NewHNSWIndex creates an empty HNSW vector index with cosine distance.
func NewHNSWIndex(cfg VectorConfig) (*HNSWIndex, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector index requires positive dimensions, got %d", cfg.Dimensions)
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWIndex{
		graph:    graph,
		config:   cfg,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		metadata: make(map[string]map[string]string),
	}, nil
}

// Add inserts vectors with their ids and metadata. metas may be nil when
// no filtering is needed; otherwise it must be the same length as ids.
// An existing id is lazily replaced: the old graph node is orphaned
// rather than deleted.
func (s *HNSWIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metas []map[string]string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if metas != nil && len(metas) != len(ids) {
		return fmt.Errorf("ids and metadata length mismatch: %d vs %d", len(ids), len(metas))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(v)}
		}
	}

	for i, id := range ids {
		if existingKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, id)
			delete(s.metadata, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[id] = key
		s.keyMap[key] = id
		if metas != nil && metas[i] != nil {
			s.metadata[id] = metas[i]
		}
	}

	return nil
}

// Search finds the k nearest neighbors of query. With a non-nil filter,
// the search over-samples the graph and keeps only entries whose metadata
// field equals the filter value.
func (s *HNSWIndex) Search(ctx context.Context, query []float32, k int, filter *Filter) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(query)}
	}
	if s.graph.Len() == 0 || k <= 0 {
		return []*VectorResult{}, nil
	}

	normalizedQuery := make([]float32, len(query))
	copy(normalizedQuery, query)
	normalizeVectorInPlace(normalizedQuery)

	fetchK := k
	if filter != nil {
		fetchK = k * filterOversample
		if fetchK > s.graph.Len() {
			fetchK = s.graph.Len()
		}
	}

	nodes := s.graph.Search(normalizedQuery, fetchK)

	results := make([]*VectorResult, 0, k)
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			// orphaned by a lazy replace
			continue
		}
		if filter != nil && s.metadata[id][filter.Field] != filter.Value {
			continue
		}

		distance := s.graph.Distance(normalizedQuery, node.Value)
		results = append(results, &VectorResult{
			ID:       id,
			Distance: distance,
			Score:    cosineDistanceToScore(distance),
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// Metadata returns the stored metadata for an id, or nil.
func (s *HNSWIndex) Metadata(id string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[id]
}

// Contains checks if an id exists.
func (s *HNSWIndex) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	_, exists := s.idMap[id]
	return exists
}

// Count returns the number of vectors.
func (s *HNSWIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	return len(s.idMap)
}

// Save persists the graph and its sidecar atomically (temp file + rename).
func (s *HNSWIndex) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpIndexPath := path + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpIndexPath, path); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	if err := s.saveSidecar(path + ".meta"); err != nil {
		return fmt.Errorf("failed to save sidecar: %w", err)
	}

	return nil
}

func (s *HNSWIndex) saveSidecar(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp sidecar file: %w", err)
	}

	sidecar := hnswSidecar{
		IDMap:    s.idMap,
		NextKey:  s.nextKey,
		Config:   s.config,
		Metadata: s.metadata,
	}

	if err := gob.NewEncoder(file).Encode(sidecar); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close temp sidecar during cleanup", slog.String("error", closeErr.Error()))
		}
		os.Remove(tmpPath)
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close sidecar file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Load restores the graph and sidecar from disk.
func (s *HNSWIndex) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	if err := s.loadSidecar(path + ".meta"); err != nil {
		return fmt.Errorf("failed to load sidecar: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	// coder/hnsw Import requires an io.ByteReader
	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}

	return nil
}

func (s *HNSWIndex) loadSidecar(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sidecar file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close sidecar file", slog.String("error", err.Error()))
		}
	}()

	var sidecar hnswSidecar
	if err := gob.NewDecoder(file).Decode(&sidecar); err != nil {
		return fmt.Errorf("decode hnsw sidecar: %w", err)
	}

	s.idMap = sidecar.IDMap
	s.nextKey = sidecar.NextKey
	s.config = sidecar.Config
	s.metadata = sidecar.Metadata
	if s.metadata == nil {
		s.metadata = make(map[string]map[string]string)
	}
	s.keyMap = make(map[uint64]string, len(s.idMap))
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}

	return nil
}

// Close releases resources.
func (s *HNSWIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.graph = nil
	return nil
}

// ReadHNSWDimensions reads the dimension count from an existing index
// sidecar. Returns 0 when the sidecar does not exist.
func ReadHNSWDimensions(vectorPath string) (int, error) {
	metaPath := vectorPath + ".meta"

	file, err := os.Open(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open hnsw sidecar: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close hnsw sidecar file", slog.String("error", err.Error()))
		}
	}()

	var sidecar hnswSidecar
	if err := gob.NewDecoder(file).Decode(&sidecar); err != nil {
		return 0, fmt.Errorf("failed to decode hnsw sidecar: %w", err)
	}

	return sidecar.Config.Dimensions, nil
}

var _ VectorIndex = (*HNSWIndex)(nil)

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// cosineDistanceToScore maps cosine distance (0-2) to similarity (0-1).
func cosineDistanceToScore(distance float32) float32 {
	return 1.0 - distance/2.0
}
