package memory

import (
	"context"
	"math"
	"testing"
)

func newTestPatternStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSaveAndSearchPatterns(t *testing.T) {
	ctx := context.Background()
	s := newTestPatternStore(t)

	patterns := []struct {
		p      Pattern
		vector []float32
	}{
		{Pattern{Category: "ai-ml", Context: "ML grading", SuccessfulQueries: []string{"Gradescope funding"}}, []float32{1, 0, 0}},
		{Pattern{Category: "blockchain", Context: "token launch", SuccessfulQueries: []string{"ChainDraft ICO"}}, []float32{0, 1, 0}},
		{Pattern{Category: "ai-ml", Context: "ML tutoring", SuccessfulQueries: []string{"TutorAI seed round"}}, []float32{0.9, 0.1, 0}},
	}
	for _, tc := range patterns {
		if err := s.SavePattern(ctx, tc.p, tc.vector); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	got, err := s.SearchSimilarPatterns(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Category != "ai-ml" || got[0].Context != "ML grading" {
		t.Errorf("unexpected best match: %+v", got[0])
	}
	if got[1].Context != "ML tutoring" {
		t.Errorf("unexpected second match: %+v", got[1])
	}
	if got[0].SimilarityScore < got[1].SimilarityScore {
		t.Error("results should be ordered by similarity")
	}
	if len(got[0].SuccessfulQueries) != 1 || got[0].SuccessfulQueries[0] != "Gradescope funding" {
		t.Errorf("queries did not round-trip: %v", got[0].SuccessfulQueries)
	}
}

func TestSQLiteSearchEmptyStore(t *testing.T) {
	s := newTestPatternStore(t)
	got, err := s.SearchSimilarPatterns(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 3.75, 0}
	got := decodeVector(encodeVector(v))
	if len(got) != len(v) {
		t.Fatalf("len = %d, want %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("v[%d] = %v, want %v", i, got[i], v[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("identical vectors: got %v, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
}
