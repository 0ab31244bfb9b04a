package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/normalize"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/sentiment"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/storage"
)

// Snapshot bundles everything derived from one ingestion: the labeled corpus,
// its aggregate report, and the retrieval index. A Snapshot is immutable;
// re-ingestion publishes a replacement. Index is nil when indexing was
// unavailable, with IndexErr explaining why; the report still serves.
type Snapshot struct {
	Corpus   *corpus.Corpus
	Report   *aggregate.Report
	Index    *index.Index
	IndexErr error
}

// Manager hands out the current snapshot to readers and accepts replacements
// from the pipeline. Readers always see a complete snapshot, never a corpus
// paired with a stale report.
type Manager struct {
	mu      sync.RWMutex
	current *Snapshot
	version uint64
}

// NewManager creates an empty Manager. Current returns nil until the first
// successful ingestion publishes a snapshot.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the latest published snapshot, nil when nothing has been
// ingested yet.
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// nextVersion reserves the next corpus version number.
func (m *Manager) nextVersion() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	return m.version
}

// publish installs a snapshot as current. Last writer wins.
func (m *Manager) publish(s *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	if s.Corpus.Version > m.version {
		m.version = s.Corpus.Version
	}
}

// Pipeline runs the full ingestion flow. Ingest calls are serialized; two
// concurrent uploads resolve by version order, last writer wins.
type Pipeline struct {
	classifier *sentiment.Classifier
	builder    *aggregate.Builder
	indexer    *index.Indexer
	store      *storage.Store
	manager    *Manager
	logger     *slog.Logger

	mu sync.Mutex
}

// NewPipeline wires the ingestion flow together. The store may be nil in
// tests that do not exercise persistence.
func NewPipeline(classifier *sentiment.Classifier, builder *aggregate.Builder, indexer *index.Indexer, store *storage.Store, manager *Manager, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		classifier: classifier,
		builder:    builder,
		indexer:    indexer,
		store:      store,
		manager:    manager,
		logger:     logger,
	}
}

// Ingest turns parsed rows into a published snapshot: normalize, classify,
// aggregate, persist, index. parseExcluded counts rows the parser already
// dropped; they surface in the corpus excluded total. An indexing outage is
// tolerated: the snapshot publishes without an index and the report still
// renders. An upload with no rows at all fails with ErrEmptyCorpus and leaves
// the current snapshot in place.
func (p *Pipeline) Ingest(ctx context.Context, sourceName string, rows []Row, parseExcluded int) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	version := p.manager.nextVersion()
	c := &corpus.Corpus{
		Version:    version,
		SourceName: sourceName,
		CreatedAt:  time.Now().UTC(),
		Excluded:   parseExcluded,
	}

	for _, row := range rows {
		rec := corpus.Record{
			ID:         uuid.NewString(),
			RawText:    row.Text,
			Timestamp:  row.Timestamp,
			Source:     row.Source,
			Engagement: row.Engagement,
			Label:      corpus.LabelUnset,
		}
		if rec.Source == "" {
			rec.Source = corpus.SourceUpload
		}
		result := normalize.Normalize(row.Text)
		rec.NormalizedText = result.Text
		rec.LowSignal = result.LowSignal
		// Low-signal text still gets a deterministic (Neutral, 0)
		// classification; LowSignal only keeps it out of the index.
		rec.Label, rec.Score = p.classifier.Classify(rec.NormalizedText)
		c.Records = append(c.Records, rec)
	}

	report, err := p.builder.Build(c)
	if err != nil {
		return nil, fmt.Errorf("building report for corpus %d: %w", version, err)
	}

	if p.store != nil {
		if err := p.store.SaveCorpus(c); err != nil {
			return nil, fmt.Errorf("persisting corpus %d: %w", version, err)
		}
	}

	snap := &Snapshot{Corpus: c, Report: report}
	idx, err := p.indexer.Build(ctx, c)
	switch {
	case err == nil:
		snap.Index = idx
		p.logger.Info("corpus indexed",
			"version", version, "records", c.Len(), "chunks", idx.ChunkCount, "model", idx.EmbedModel)
	case errors.Is(err, index.ErrIndexingUnavailable):
		snap.IndexErr = err
		p.logger.Warn("indexing unavailable, serving sentiment-only", "version", version, "error", err)
	default:
		return nil, fmt.Errorf("indexing corpus %d: %w", version, err)
	}

	p.manager.publish(snap)
	p.logger.Info("snapshot published",
		"version", version, "source", sourceName, "records", c.Len(), "excluded", report.Excluded)
	return snap, nil
}

// WarmStart restores the last persisted corpus after a restart: the report is
// rebuilt from the stored labels and the index is rebuilt from scratch. With
// nothing persisted it is a no-op.
func (p *Pipeline) WarmStart(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	c, err := p.store.LatestCorpus()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading persisted corpus: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report, err := p.builder.Build(c)
	if err != nil {
		return fmt.Errorf("rebuilding report for corpus %d: %w", c.Version, err)
	}

	snap := &Snapshot{Corpus: c, Report: report}
	idx, err := p.indexer.Build(ctx, c)
	switch {
	case err == nil:
		snap.Index = idx
	case errors.Is(err, index.ErrIndexingUnavailable):
		snap.IndexErr = err
		p.logger.Warn("indexing unavailable on warm start", "version", c.Version, "error", err)
	default:
		return fmt.Errorf("rebuilding index for corpus %d: %w", c.Version, err)
	}

	p.manager.publish(snap)
	p.logger.Info("warm start restored snapshot", "version", c.Version, "records", c.Len())
	return nil
}

// LogInteraction persists an answered or failed query for the interaction
// log. Storage failures are logged, not returned; the answer already reached
// the caller.
func (p *Pipeline) LogInteraction(id, question, answer, model, status string, chunkIDs []string, corpusVersion uint64) {
	if p.store == nil {
		return
	}
	ids, err := json.Marshal(chunkIDs)
	if err != nil {
		ids = []byte("[]")
	}
	if err := p.store.SaveInteraction(storage.Interaction{
		ID:            id,
		CreatedAt:     time.Now().UTC(),
		Question:      question,
		Answer:        answer,
		Model:         model,
		Status:        status,
		ChunkIDs:      string(ids),
		CorpusVersion: corpusVersion,
	}); err != nil {
		p.logger.Error("saving interaction failed", "id", id, "error", err)
	}
}
