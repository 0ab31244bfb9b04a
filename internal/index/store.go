package index

import (
	"context"
	"errors"
	"time"
)

// ErrStaleIndex is returned by Search when the requested corpus version is no
// longer the one the store holds. Callers retry against the latest snapshot.
var ErrStaleIndex = errors.New("index built for a replaced corpus version")

// VectorStore is the interface for chunk storage and similarity search
// backends. The default implementation uses SQLite with brute-force cosine
// similarity, which is adequate for corpora in the tens of thousands of
// chunks. An ANN-capable backend can replace it behind this interface.
type VectorStore interface {
	// ReplaceVersion atomically removes all chunks from prior corpus
	// versions and inserts the chunks for the given version.
	ReplaceVersion(version uint64, chunks []Chunk) error

	// Search returns the top-K chunks most similar to the query vector.
	// The version must match the store's current version, otherwise
	// ErrStaleIndex is returned.
	Search(vector []float32, topK int, version uint64) ([]ScoredChunk, error)

	// GetByIDs returns chunks matching the given IDs.
	GetByIDs(ctx context.Context, ids []string) ([]Chunk, error)

	// CurrentVersion returns the corpus version the store currently holds,
	// or 0 when the store is empty.
	CurrentVersion() (uint64, error)

	// Count returns the number of chunks stored for the given version.
	Count(version uint64) (int, error)
}

// Chunk is one embedded slice of a feedback record.
type Chunk struct {
	ID            string
	RecordID      string
	CorpusVersion uint64
	Text          string
	Label         string
	Embedding     []float32
	CreatedAt     time.Time
}

// ScoredChunk is a Chunk with a similarity score attached.
type ScoredChunk struct {
	Chunk
	Score float32
}
