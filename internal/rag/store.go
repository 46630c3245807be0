package rag

import (
	"math"
	"sort"
	"sync"
)

// Result is one scored store entry.
type Result struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// MemoryStore is an in-memory vector store with brute-force
// cosine-similarity search.
type MemoryStore struct {
	mu       sync.RWMutex
	vectors  map[string][]float64
	payloads map[string]map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vectors:  make(map[string][]float64),
		payloads: make(map[string]map[string]string),
	}
}

// Add inserts or replaces one entry.
func (s *MemoryStore) Add(id string, vector []float64, payload map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[id] = vector
	s.payloads[id] = payload
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Query returns the topK entries most similar to the given vector,
// highest score first.
func (s *MemoryStore) Query(vector []float64, topK int) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.vectors))
	for id, stored := range s.vectors {
		results = append(results, Result{
			ID:      id,
			Score:   cosineSimilarity(vector, stored),
			Payload: s.payloads[id],
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
