package rag

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Document is one loaded source file.
type Document struct {
	ID   string
	Text string
}

// Chunk is one overlapping slice of a document.
type Chunk struct {
	ID   string
	Text string
}

const (
	defaultChunkSize = 500
	defaultOverlap   = 50
)

// LoadDirectory reads every regular file under dir as a document.
func LoadDirectory(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("document source not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document source is not a directory: %s", dir)
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, Document{ID: path, Text: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Split cuts documents into chunks of chunkSize bytes with the given
// overlap between consecutive chunks.
func Split(docs []Document, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultOverlap
	}

	var chunks []Chunk
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		step := chunkSize - overlap
		for start := 0; start < len(doc.Text); start += step {
			end := start + chunkSize
			if end > len(doc.Text) {
				end = len(doc.Text)
			}
			chunks = append(chunks, Chunk{
				ID:   fmt.Sprintf("%s-%d", doc.ID, start),
				Text: doc.Text[start:end],
			})
			if end == len(doc.Text) {
				break
			}
		}
	}
	return chunks
}
