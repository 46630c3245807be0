// Package rag is the retrieval stub backing the chat endpoints: a
// constant-dimension zero-vector embedder over an in-memory cosine store.
package rag

// Embedder produces fixed-dimension embeddings. This is a stand-in for a
// real embedding model: every text maps to the zero vector.
type Embedder struct {
	dim int
}

// NewEmbedder creates an embedder with the given output dimension.
func NewEmbedder(dim int) *Embedder {
	return &Embedder{dim: dim}
}

// Dim returns the embedding dimension.
func (e *Embedder) Dim() int {
	return e.dim
}

// Embed returns one zero vector of the configured dimension per text.
func (e *Embedder) Embed(texts []string) [][]float64 {
	if len(texts) == 0 {
		return nil
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, e.dim)
	}
	return out
}
