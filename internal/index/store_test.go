package index

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
)

const testModel = "test-embedding-model"

func newStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(dir, "index.gob"), testModel, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func chunk(source string, seq int, text string) domain.Chunk {
	return domain.Chunk{Source: source, Seq: seq, Text: text}
}

func TestOpen_AbsentFileIsEmpty(t *testing.T) {
	s := newStore(t, t.TempDir())

	if !s.Empty() {
		t.Error("fresh store should be empty")
	}
	hits, err := s.Search([]float32{1, 0}, 4, 0.3)
	if err != nil {
		t.Fatalf("Search on empty store: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)

	chunks := []domain.Chunk{chunk("a.txt", 0, "alpha"), chunk("a.txt", 1, "bravo")}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	if err := s.ReplaceAll(chunks, vectors); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// A fresh Open must see the persisted state.
	reopened := newStore(t, dir)
	if reopened.Len() != 2 {
		t.Fatalf("reopened store has %d chunks, want 2", reopened.Len())
	}

	hits, err := reopened.Search([]float32{1, 0, 0}, 4, 0.3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Chunk.Text != "alpha" {
		t.Errorf("top hit = %q, want alpha", hits[0].Chunk.Text)
	}
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("identical vector score = %v, want 1", hits[0].Score)
	}
}

func TestAdd_AppendedChunkIsTopHit(t *testing.T) {
	s := newStore(t, t.TempDir())

	if err := s.ReplaceAll(
		[]domain.Chunk{chunk("base.txt", 0, "base")},
		[][]float32{{0, 1}},
	); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	added := []float32{3, 4} // normalized to (0.6, 0.8)
	if err := s.Add([]domain.Chunk{chunk("new.txt", 0, "fresh")}, [][]float32{added}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	hits, err := s.Search([]float32{3, 4}, 4, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Chunk.Text != "fresh" {
		t.Errorf("top hit = %q, want the appended chunk", hits[0].Chunk.Text)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("scores not in descending order")
	}
}

func TestSearch_ThresholdAndK(t *testing.T) {
	s := newStore(t, t.TempDir())

	var chunks []domain.Chunk
	var vectors [][]float32
	// six vectors at decreasing similarity to (1, 0)
	angles := []float64{0, 0.2, 0.4, 0.6, 0.9, 1.4}
	for i, a := range angles {
		chunks = append(chunks, chunk("c.txt", i, "chunk"))
		vectors = append(vectors, []float32{float32(math.Cos(a)), float32(math.Sin(a))})
	}
	if err := s.ReplaceAll(chunks, vectors); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	hits, err := s.Search([]float32{1, 0}, 4, 0.3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) > 4 {
		t.Fatalf("got %d hits, max 4", len(hits))
	}
	for i, h := range hits {
		if h.Score < 0.3 {
			t.Errorf("hit %d score %v below threshold", i, h.Score)
		}
		if i > 0 && hits[i-1].Score < h.Score {
			t.Errorf("scores not monotonically non-increasing at %d", i)
		}
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	s := newStore(t, t.TempDir())

	chunks := []domain.Chunk{chunk("t.txt", 0, "first"), chunk("t.txt", 1, "second")}
	vectors := [][]float32{{1, 0}, {1, 0}}
	if err := s.ReplaceAll(chunks, vectors); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	hits, err := s.Search([]float32{1, 0}, 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Chunk.Text != "first" || hits[1].Chunk.Text != "second" {
		t.Errorf("tie order = %q, %q; want insertion order", hits[0].Chunk.Text, hits[1].Chunk.Text)
	}
}

func TestOpen_ModelMismatchFailsLoudly(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)
	if err := s.ReplaceAll(
		[]domain.Chunk{chunk("m.txt", 0, "text")},
		[][]float32{{1, 0}},
	); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	_, err := Open(filepath.Join(dir, "index.gob"), "another-model", zap.NewNop())
	if err == nil {
		t.Fatal("expected model mismatch error")
	}
	if !errors.Is(err, domain.ErrModelMismatch) {
		t.Errorf("error = %v, want ErrModelMismatch", err)
	}
}

func TestAdd_FailureLeavesPriorSnapshotIntact(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)
	if err := s.ReplaceAll(
		[]domain.Chunk{chunk("keep.txt", 0, "kept")},
		[][]float32{{1, 0, 0}},
	); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// Wrong dimensionality must fail before anything touches the disk.
	err := s.Add([]domain.Chunk{chunk("bad.txt", 0, "bad")}, [][]float32{{1, 0}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}

	reopened := newStore(t, dir)
	if reopened.Len() != 1 {
		t.Fatalf("prior snapshot has %d chunks, want 1", reopened.Len())
	}
	hits, err := reopened.Search([]float32{1, 0, 0}, 1, 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Text != "kept" {
		t.Errorf("prior content not intact: %+v", hits)
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := newStore(t, t.TempDir())
	if err := s.ReplaceAll(
		[]domain.Chunk{chunk("d.txt", 0, "text")},
		[][]float32{{1, 0, 0}},
	); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	_, err := s.Search([]float32{1, 0}, 4, 0)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	s := newStore(t, t.TempDir())
	if err := s.ReplaceAll(
		[]domain.Chunk{chunk("c.txt", 0, "base")},
		[][]float32{{1, 0}},
	); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if err := s.Add(
				[]domain.Chunk{chunk("add.txt", i, "more")},
				[][]float32{{0, 1}},
			); err != nil {
				t.Errorf("Add: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hits, err := s.Search([]float32{1, 1}, 1000, -1)
			if err != nil {
				t.Errorf("Search: %v", err)
				return
			}
			// Every observation is a complete state: the base chunk plus
			// some prefix of the appends, never a torn merge.
			if len(hits) < 1 || len(hits) > 21 {
				t.Errorf("torn read: %d hits", len(hits))
				return
			}
		}
	}()

	wg.Wait()

	if s.Len() != 21 {
		t.Errorf("final length = %d, want 21", s.Len())
	}
}
