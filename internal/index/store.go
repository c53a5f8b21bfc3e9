package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
)

// snapshotVersion guards the on-disk encoding. Bump on incompatible changes.
const snapshotVersion = 1

// snapshot is the persisted form of the index: one file, written whole.
type snapshot struct {
	Version int
	Model   string
	Dim     int
	Chunks  []domain.Chunk
	Vectors [][]float32
}

// Store is an exact nearest-neighbor index over embedded chunks with local
// file persistence. At the target scale (hundreds to low thousands of
// chunks) a linear scan beats the operational cost of an ANN structure.
//
// Search takes the read lock, ReplaceAll and Add the write lock: a search
// running concurrently with an append observes either the pre- or the
// post-append state, never a partial merge. Persistence is a staging write
// followed by an atomic rename, so a crash mid-write leaves the previous
// snapshot intact.
type Store struct {
	path   string
	model  string
	logger *zap.Logger

	mu      sync.RWMutex
	dim     int
	chunks  []domain.Chunk
	vectors [][]float32
}

// Open loads the index persisted at path, tagged with the embedding model
// identifier the caller is configured for. An absent file yields an explicit
// empty store, never an error. A snapshot written by a different embedding
// model fails loudly with domain.ErrModelMismatch: querying it would produce
// meaningless similarity scores.
func Open(path, model string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, model: model, logger: logger}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("No persisted index found, starting empty", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("index %s: unsupported snapshot version %d", path, snap.Version)
	}
	if snap.Model != model {
		return nil, fmt.Errorf("index %s built with model %q, configured model is %q: %w",
			path, snap.Model, model, domain.ErrModelMismatch)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("index %s: %d chunks but %d vectors", path, len(snap.Chunks), len(snap.Vectors))
	}

	s.dim = snap.Dim
	s.chunks = snap.Chunks
	s.vectors = snap.Vectors
	metrics.IndexChunks.Set(float64(len(s.chunks)))

	logger.Info("Index loaded",
		zap.String("path", path),
		zap.String("model", model),
		zap.Int("chunks", len(s.chunks)),
		zap.Int("dimensions", s.dim),
	)
	return s, nil
}

// Empty reports whether the index holds no chunks.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) == 0
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Model returns the embedding model identifier the index is tagged with.
func (s *Store) Model() string { return s.model }

// Path returns the persistence location.
func (s *Store) Path() string { return s.path }

// ReplaceAll swaps the whole index for the given chunks and persists the new
// snapshot atomically. On any failure the previous on-disk snapshot and the
// in-memory state both remain valid.
func (s *Store) ReplaceAll(chunks []domain.Chunk, vectors [][]float32) error {
	dim, err := checkVectors(chunks, vectors, 0)
	if err != nil {
		return err
	}
	normalizeAll(vectors)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(dim, chunks, vectors); err != nil {
		return err
	}

	s.dim = dim
	s.chunks = chunks
	s.vectors = vectors
	metrics.IndexChunks.Set(float64(len(s.chunks)))

	s.logger.Info("Index rebuilt", zap.Int("chunks", len(chunks)), zap.Int("dimensions", dim))
	return nil
}

// Add merges new chunks into the index and persists the merged snapshot
// atomically. The in-memory state is swapped only after the snapshot is
// durably on disk.
func (s *Store) Add(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkVectors(chunks, vectors, s.dim)
	if err != nil {
		return err
	}
	normalizeAll(vectors)

	mergedChunks := make([]domain.Chunk, 0, len(s.chunks)+len(chunks))
	mergedChunks = append(mergedChunks, s.chunks...)
	mergedChunks = append(mergedChunks, chunks...)

	mergedVectors := make([][]float32, 0, len(s.vectors)+len(vectors))
	mergedVectors = append(mergedVectors, s.vectors...)
	mergedVectors = append(mergedVectors, vectors...)

	if err := s.persist(dim, mergedChunks, mergedVectors); err != nil {
		return err
	}

	s.dim = dim
	s.chunks = mergedChunks
	s.vectors = mergedVectors
	metrics.IndexChunks.Set(float64(len(s.chunks)))

	s.logger.Info("Index extended", zap.Int("added", len(chunks)), zap.Int("total", len(s.chunks)))
	return nil
}

// Search returns up to k chunks whose cosine similarity to query is at least
// minScore, in non-increasing score order. Ties keep insertion order. An
// empty index or a threshold nothing clears yields an empty result, not an
// error.
func (s *Store) Search(query []float32, k int, minScore float64) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), s.dim, domain.ErrDimensionMismatch)
	}

	q := make([]float32, len(query))
	copy(q, query)
	domain.Normalize(q)

	hits := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i, vec := range s.vectors {
		score := domain.Dot(vec, q)
		if score >= minScore {
			hits = append(hits, domain.ScoredChunk{Chunk: s.chunks[i], Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// persist writes the snapshot next to the target file and renames it into
// place. Callers hold the write lock.
func (s *Store) persist(dim int, chunks []domain.Chunk, vectors [][]float32) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	snap := snapshot{
		Version: snapshotVersion,
		Model:   s.model,
		Dim:     dim,
		Chunks:  chunks,
		Vectors: vectors,
	}
	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("swap index snapshot: %w", err)
	}
	return nil
}

// checkVectors validates chunk/vector pairing and dimensional consistency.
// wantDim == 0 accepts any (first write sets the dimension).
func checkVectors(chunks []domain.Chunk, vectors [][]float32, wantDim int) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors))
	}
	dim := wantDim
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("vector %d is empty: %w", i, domain.ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has %d dimensions, want %d: %w",
				i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	if dim == 0 {
		dim = wantDim
	}
	return dim, nil
}

func normalizeAll(vectors [][]float32) {
	for _, v := range vectors {
		domain.Normalize(v)
	}
}
