package rag

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbedder(t *testing.T) {
	e := NewEmbedder(384)
	if e.Dim() != 384 {
		t.Errorf("expected dim 384, got %d", e.Dim())
	}

	vectors := e.Embed([]string{"one", "two"})
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 384 {
			t.Errorf("vector %d has dim %d", i, len(v))
		}
		for _, x := range v {
			if x != 0 {
				t.Fatalf("stub embedder should emit zero vectors, got %g", x)
			}
		}
	}
	if e.Embed(nil) != nil {
		t.Error("empty input should return nil")
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cosineSimilarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("cosineSimilarity = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestMemoryStore_QueryRanksBySimilarity(t *testing.T) {
	s := NewMemoryStore()
	s.Add("exact", []float64{1, 0}, map[string]string{"text": "exact"})
	s.Add("close", []float64{0.9, 0.1}, map[string]string{"text": "close"})
	s.Add("far", []float64{0, 1}, map[string]string{"text": "far"})

	results := s.Query([]float64{1, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("expected topK bound of 2, got %d results", len(results))
	}
	if results[0].ID != "exact" || results[1].ID != "close" {
		t.Errorf("unexpected ranking: %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ordered by score: %g < %g", results[0].Score, results[1].Score)
	}
}

func TestMemoryStore_AddReplaces(t *testing.T) {
	s := NewMemoryStore()
	s.Add("a", []float64{1, 0}, map[string]string{"text": "old"})
	s.Add("a", []float64{0, 1}, map[string]string{"text": "new"})

	if s.Len() != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", s.Len())
	}
	results := s.Query([]float64{0, 1}, 1)
	if results[0].Payload["text"] != "new" {
		t.Errorf("expected replaced payload, got %q", results[0].Payload["text"])
	}
}

func TestSplit(t *testing.T) {
	doc := Document{ID: "doc", Text: strings.Repeat("x", 120)}

	chunks := Split([]Document{doc}, 50, 10)
	// step 40: starts at 0, 40, 80 cover all 120 bytes.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "doc-0" || chunks[1].ID != "doc-40" || chunks[2].ID != "doc-80" {
		t.Errorf("unexpected chunk ids: %v, %v, %v", chunks[0].ID, chunks[1].ID, chunks[2].ID)
	}
	if len(chunks[0].Text) != 50 || len(chunks[1].Text) != 50 {
		t.Errorf("interior chunks should be full size, got %d and %d", len(chunks[0].Text), len(chunks[1].Text))
	}
	if len(chunks[2].Text) != 40 {
		t.Errorf("final chunk should hold the 40-byte remainder, got %d", len(chunks[2].Text))
	}
}

func TestSplit_EdgeCases(t *testing.T) {
	if got := Split([]Document{{ID: "empty"}}, 50, 10); len(got) != 0 {
		t.Errorf("empty document should produce no chunks, got %d", len(got))
	}

	short := Split([]Document{{ID: "s", Text: "tiny"}}, 50, 10)
	if len(short) != 1 || short[0].Text != "tiny" {
		t.Errorf("short document should be a single chunk: %+v", short)
	}

	// Invalid overlap falls back to the default rather than looping forever.
	bad := Split([]Document{{ID: "b", Text: strings.Repeat("y", 600)}}, 100, 100)
	if len(bad) == 0 {
		t.Fatal("expected chunks despite invalid overlap")
	}
	if bad[1].ID != fmt.Sprintf("b-%d", 100-defaultOverlap) {
		t.Errorf("expected default overlap step, second chunk at %s", bad[1].ID)
	}
}

func TestPipeline_IngestAndRetrieve(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("the reactor core runs between 350 and 380 degrees. ", 20)
	if err := os.WriteFile(filepath.Join(dir, "manual.txt"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(8, 4)
	n, err := p.Ingest(dir)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n == 0 {
		t.Fatal("expected at least one ingested chunk")
	}
	if p.store.Len() != n {
		t.Errorf("store holds %d entries, ingest reported %d", p.store.Len(), n)
	}

	contexts := p.Retrieve("what temperature does the core run at?")
	if len(contexts) == 0 || len(contexts) > 4 {
		t.Fatalf("expected between 1 and topK contexts, got %d", len(contexts))
	}
	for i, c := range contexts {
		if c["text"] == "" {
			t.Errorf("context %d has no text payload", i)
		}
	}
}

func TestPipeline_IngestMissingDirectory(t *testing.T) {
	p := NewPipeline(8, 4)
	if _, err := p.Ingest(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestPipeline_IngestEmptyDirectory(t *testing.T) {
	p := NewPipeline(8, 4)
	n, err := p.Ingest(t.TempDir())
	if err != nil {
		t.Fatalf("empty directory should not error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks, got %d", n)
	}
}
