// Package index builds and queries the retrieval index over a feedback
// corpus: chunking, embedding, and version-keyed vector storage.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
)

// ErrIndexingUnavailable is returned by Build when the embedding capability
// cannot serve. The corpus itself is fine; callers degrade to sentiment-only
// reporting and may rebuild later.
var ErrIndexingUnavailable = errors.New("indexing unavailable")

// Indexer turns a corpus into a searchable Index.
type Indexer struct {
	embedder  *Embedder
	store     VectorStore
	chunkSize int
	overlap   int
}

// NewIndexer creates an Indexer with the given chunking geometry. Zero values
// fall back to the package defaults.
func NewIndexer(embedder *Embedder, store VectorStore, chunkSize, overlap int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	return &Indexer{embedder: embedder, store: store, chunkSize: chunkSize, overlap: overlap}
}

// Build chunks the corpus records, embeds them, and replaces the vector store
// contents with the new version. Low-signal records are skipped. An embedding
// failure yields ErrIndexingUnavailable wrapping the capability error; the
// store keeps whatever version it held before.
func (ix *Indexer) Build(ctx context.Context, c *corpus.Corpus) (*Index, error) {
	if c == nil || c.Len() == 0 {
		return nil, corpus.ErrEmptyCorpus
	}

	var chunks []Chunk
	var texts []string
	for _, r := range c.Records {
		if r.LowSignal {
			continue
		}
		for _, part := range Split(r.NormalizedText, ix.chunkSize, ix.overlap) {
			chunks = append(chunks, Chunk{
				ID:            uuid.NewString(),
				RecordID:      r.ID,
				CorpusVersion: c.Version,
				Text:          part,
				Label:         string(r.Label),
				CreatedAt:     c.CreatedAt,
			})
			texts = append(texts, part)
		}
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if isCapability(err) {
			return nil, fmt.Errorf("%w: %w", ErrIndexingUnavailable, err)
		}
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ix.store.ReplaceVersion(c.Version, chunks); err != nil {
		return nil, fmt.Errorf("storing index version %d: %w", c.Version, err)
	}

	return &Index{
		Version:    c.Version,
		EmbedModel: ix.embedder.Model(),
		ChunkCount: len(chunks),
		embedder:   ix.embedder,
		store:      ix.store,
	}, nil
}

// isCapability reports whether err carries a CapabilityError anywhere in its chain.
func isCapability(err error) bool {
	var ce *engine.CapabilityError
	return errors.As(err, &ce)
}

// Index is a searchable view over one built corpus version.
type Index struct {
	Version    uint64
	EmbedModel string
	ChunkCount int

	embedder *Embedder
	store    VectorStore
}

// Search embeds the query text and returns the top-K most similar chunks.
// A capability failure on the query embedding surfaces as a CapabilityError;
// a store that moved on to a newer corpus surfaces ErrStaleIndex.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return ix.store.Search(vec, topK, ix.Version)
}
