// Package rag answers questions about the ingested feedback by retrieving
// the most relevant chunks and generating a grounded response.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
)

// ErrNoCorpusIndexed is returned when a question arrives before any corpus
// has been ingested and indexed.
var ErrNoCorpusIndexed = errors.New("no corpus indexed")

// State tracks a query through its lifecycle. Terminal states are Answered
// and Failed; a query never moves backwards.
type State string

const (
	StateReceived   State = "received"
	StateRetrieving State = "retrieving"
	StateGenerating State = "generating"
	StateAnswered   State = "answered"
	StateFailed     State = "failed"
)

// Turn is one prior question/answer pair. History is supplied by the caller
// on every query; the engine itself keeps no conversation state.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answer is the result of one query, terminal state included. On failure the
// Text is empty and State is StateFailed; the error explains why.
type Answer struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Text          string   `json:"answer"`
	ChunkIDs      []string `json:"chunk_ids"`
	Confidence    float32  `json:"confidence"`
	State         State    `json:"state"`
	CorpusVersion uint64   `json:"corpus_version"`
}

// Searcher is the retrieval surface the query engine needs. *index.Index
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]index.ScoredChunk, error)
}

// QueryEngine runs the retrieve-then-generate flow for one question at a time.
type QueryEngine struct {
	engine   engine.Engine
	model    string
	topK     int
	composer *Composer
}

// NewQueryEngine creates a QueryEngine generating with the given model.
// topK <= 0 falls back to the default of 5.
func NewQueryEngine(e engine.Engine, model string, topK int) *QueryEngine {
	if topK <= 0 {
		topK = 5
	}
	return &QueryEngine{engine: e, model: model, topK: topK, composer: NewComposer(0)}
}

// Ask answers a question against the given index. The index may be nil when
// nothing has been ingested yet; that query fails with ErrNoCorpusIndexed
// before any capability is touched. Retrieval and generation failures come
// back as a Failed answer plus the underlying error, so callers can log the
// terminal state and map the error to a transport response separately.
func (q *QueryEngine) Ask(ctx context.Context, idx *index.Index, question string, history []Turn) (*Answer, error) {
	ans := &Answer{
		ID:       uuid.NewString(),
		Question: question,
		State:    StateReceived,
	}

	if idx == nil {
		ans.State = StateFailed
		return ans, ErrNoCorpusIndexed
	}
	ans.CorpusVersion = idx.Version

	ans.State = StateRetrieving
	chunks, err := idx.Search(ctx, question, q.topK)
	if err != nil {
		ans.State = StateFailed
		return ans, fmt.Errorf("retrieving context: %w", err)
	}

	for _, ch := range chunks {
		ans.ChunkIDs = append(ans.ChunkIDs, ch.ID)
	}
	if len(chunks) > 0 {
		// Chunks arrive sorted by score; the best match bounds how
		// grounded the answer can be.
		ans.Confidence = chunks[0].Score
	}

	ans.State = StateGenerating
	messages := q.composer.Compose(question, history, chunks)
	text, err := q.engine.Generate(ctx, q.model, messages)
	if err != nil {
		ans.State = StateFailed
		return ans, fmt.Errorf("generating answer: %w", err)
	}

	ans.Text = text
	ans.State = StateAnswered
	return ans, nil
}
