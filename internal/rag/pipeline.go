package rag

// Pipeline ties the embedder, store and retrieval together: ingest chunks
// documents into the store, Retrieve returns the top-k context payloads
// for a query.
type Pipeline struct {
	embedder *Embedder
	store    *MemoryStore
	topK     int
}

// NewPipeline creates a pipeline with an empty store.
func NewPipeline(embeddingDim, topK int) *Pipeline {
	return &Pipeline{
		embedder: NewEmbedder(embeddingDim),
		store:    NewMemoryStore(),
		topK:     topK,
	}
}

// Ingest loads every file under dir, chunks it, embeds the chunks and adds
// them to the store. Returns the number of chunks ingested.
func (p *Pipeline) Ingest(dir string) (int, error) {
	docs, err := LoadDirectory(dir)
	if err != nil {
		return 0, err
	}
	chunks := Split(docs, defaultChunkSize, defaultOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors := p.embedder.Embed(texts)
	for i, c := range chunks {
		p.store.Add(c.ID, vectors[i], map[string]string{"text": c.Text})
	}
	return len(chunks), nil
}

// Retrieve returns the payloads of the top-k chunks most similar to the
// query. With the stub embedder all similarities tie at zero, so this is a
// bounded arbitrary selection; the shape matches a real retriever.
func (p *Pipeline) Retrieve(query string) []map[string]string {
	vectors := p.embedder.Embed([]string{query})
	if len(vectors) == 0 {
		return nil
	}
	results := p.store.Query(vectors[0], p.topK)
	payloads := make([]map[string]string, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, r.Payload)
	}
	return payloads
}
