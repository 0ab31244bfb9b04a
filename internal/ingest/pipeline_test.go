package ingest

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/sentiment"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/storage"
)

// hashEngine embeds text deterministically; Generate is unused here.
type hashEngine struct {
	failEmbed error
}

func (e *hashEngine) Generate(ctx context.Context, model string, messages []engine.Message) (string, error) {
	return "", errors.New("not a generation engine")
}

func (e *hashEngine) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if e.failEmbed != nil {
		return nil, e.failEmbed
	}
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r) / 1000
	}
	return v, nil
}

func (e *hashEngine) IsRunning(ctx context.Context) bool { return true }

func aggregateBuilder() *aggregate.Builder {
	return aggregate.NewBuilder(5)
}

func newTestPipeline(t *testing.T, eng engine.Engine) (*Pipeline, *Manager, *storage.Store) {
	t.Helper()
	lex, err := sentiment.DefaultLexicon()
	if err != nil {
		t.Fatalf("loading lexicon: %v", err)
	}
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	manager := NewManager()
	indexer := index.NewIndexer(index.NewEmbedder(eng, "test-embed"), index.NewSQLiteStore(store.DB()), 400, 60)
	p := NewPipeline(
		sentiment.NewClassifier(lex),
		aggregateBuilder(),
		indexer,
		store,
		manager,
		slog.New(slog.DiscardHandler),
	)
	return p, manager, store
}

func TestIngest(t *testing.T) {
	p, manager, _ := newTestPipeline(t, &hashEngine{})

	rows := []Row{
		{Text: "I love this product!", Source: corpus.SourceUpload},
		{Text: "terrible experience, never again", Source: corpus.SourceUpload},
		{Text: "it arrived on tuesday", Source: corpus.SourceUpload},
	}
	snap, err := p.Ingest(context.Background(), "reviews.csv", rows, 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if snap.Corpus.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Corpus.Version)
	}
	if snap.Corpus.Len() != 3 {
		t.Errorf("Len = %d, want 3", snap.Corpus.Len())
	}
	if snap.Corpus.Excluded != 1 {
		t.Errorf("Excluded = %d, want the parser's count", snap.Corpus.Excluded)
	}
	if snap.Report == nil {
		t.Fatal("Report is nil")
	}
	if snap.Index == nil {
		t.Fatalf("Index is nil: %v", snap.IndexErr)
	}

	if got := snap.Corpus.Records[0].Label; got != corpus.LabelPositive {
		t.Errorf("records[0].Label = %q, want Positive", got)
	}
	if got := snap.Corpus.Records[1].Label; got != corpus.LabelNegative {
		t.Errorf("records[1].Label = %q, want Negative", got)
	}

	if manager.Current() != snap {
		t.Error("snapshot not published")
	}
}

func TestIngest_ReplacesSnapshot(t *testing.T) {
	p, manager, _ := newTestPipeline(t, &hashEngine{})

	first, err := p.Ingest(context.Background(), "first.csv", []Row{{Text: "good value"}}, 0)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := p.Ingest(context.Background(), "second.csv", []Row{{Text: "bad value"}}, 0)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if second.Corpus.Version != first.Corpus.Version+1 {
		t.Errorf("versions = %d then %d, want strictly increasing",
			first.Corpus.Version, second.Corpus.Version)
	}
	if manager.Current() != second {
		t.Error("current snapshot is not the latest")
	}

	// The replaced index must reject queries rather than answer stale.
	_, err = first.Index.Search(context.Background(), "value", 1)
	if !errors.Is(err, index.ErrStaleIndex) {
		t.Errorf("stale Search err = %v, want ErrStaleIndex", err)
	}
}

func TestIngest_EmptyRows(t *testing.T) {
	p, manager, _ := newTestPipeline(t, &hashEngine{})

	if _, err := p.Ingest(context.Background(), "empty.csv", nil, 3); !errors.Is(err, corpus.ErrEmptyCorpus) {
		t.Errorf("Ingest(nil) err = %v, want ErrEmptyCorpus", err)
	}
	if manager.Current() != nil {
		t.Error("failed ingest published a snapshot")
	}
}

func TestIngest_LowSignalRowsClassifiedNeutral(t *testing.T) {
	p, _, _ := newTestPipeline(t, &hashEngine{})

	rows := []Row{
		{Text: "great phone, battery lasts forever"},
		{Text: "   "},
		{Text: "https://example.com/only-a-link"},
	}
	snap, err := p.Ingest(context.Background(), "mixed.csv", rows, 0)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if snap.Corpus.Len() != 3 {
		t.Errorf("Len = %d, want 3 (low-signal rows kept in corpus)", snap.Corpus.Len())
	}
	for i, rec := range snap.Corpus.Records[1:] {
		if rec.Label != corpus.LabelNeutral || rec.Score != 0 {
			t.Errorf("record %d: label = %v score = %v, want Neutral 0", i+1, rec.Label, rec.Score)
		}
		if !rec.LowSignal {
			t.Errorf("record %d: LowSignal = false, want true", i+1)
		}
	}
	if snap.Report.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3 (low-signal rows count as Neutral)", snap.Report.TotalRecords)
	}
	if snap.Report.Excluded != 0 {
		t.Errorf("Report.Excluded = %d, want 0", snap.Report.Excluded)
	}
	if got := snap.Report.Distribution.Counts[corpus.LabelNeutral]; got != 2 {
		t.Errorf("Neutral count = %d, want 2", got)
	}
}

func TestIngest_EmptyTextYieldsNeutralDistribution(t *testing.T) {
	p, _, _ := newTestPipeline(t, &hashEngine{})

	rows := []Row{
		{Text: "I love this!"},
		{Text: "Terrible experience."},
		{Text: ""},
	}
	snap, err := p.Ingest(context.Background(), "batch.json", rows, 0)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	want := []corpus.Label{corpus.LabelPositive, corpus.LabelNegative, corpus.LabelNeutral}
	for i, rec := range snap.Corpus.Records {
		if rec.Label != want[i] {
			t.Errorf("record %d: label = %v, want %v", i, rec.Label, want[i])
		}
	}
	if snap.Corpus.Records[2].Score != 0 {
		t.Errorf("empty record score = %v, want 0", snap.Corpus.Records[2].Score)
	}

	dist := snap.Report.Distribution
	sum := 0
	for _, l := range want {
		if dist.Counts[l] != 1 {
			t.Errorf("count[%v] = %d, want 1", l, dist.Counts[l])
		}
		if p := dist.Percent[l]; p != 33 && p != 34 {
			t.Errorf("percent[%v] = %d, want 33 or 34", l, p)
		}
		sum += dist.Percent[l]
	}
	if sum != 100 {
		t.Errorf("percentages sum to %d, want 100", sum)
	}
}

func TestIngest_IndexingUnavailableDegrades(t *testing.T) {
	eng := &hashEngine{failEmbed: engine.WrapError("embed", errors.New("connection refused"))}
	p, manager, _ := newTestPipeline(t, eng)

	snap, err := p.Ingest(context.Background(), "reviews.csv", []Row{{Text: "decent product overall"}}, 0)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if snap.Index != nil {
		t.Error("Index present despite embedding outage")
	}
	if !errors.Is(snap.IndexErr, index.ErrIndexingUnavailable) {
		t.Errorf("IndexErr = %v, want ErrIndexingUnavailable", snap.IndexErr)
	}
	if snap.Report == nil {
		t.Error("Report missing; sentiment analysis must not depend on indexing")
	}
	if manager.Current() != snap {
		t.Error("degraded snapshot not published")
	}
}

func TestWarmStart(t *testing.T) {
	eng := &hashEngine{}
	p, _, store := newTestPipeline(t, eng)

	if _, err := p.Ingest(context.Background(), "reviews.csv", []Row{
		{Text: "I love it"},
		{Text: "worst purchase ever"},
	}, 0); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// A fresh pipeline over the same store simulates a restart.
	lex, err := sentiment.DefaultLexicon()
	if err != nil {
		t.Fatalf("loading lexicon: %v", err)
	}
	manager2 := NewManager()
	indexer := index.NewIndexer(index.NewEmbedder(eng, "test-embed"), index.NewSQLiteStore(store.DB()), 400, 60)
	p2 := NewPipeline(sentiment.NewClassifier(lex), aggregateBuilder(), indexer, store, manager2, slog.New(slog.DiscardHandler))

	if err := p2.WarmStart(context.Background()); err != nil {
		t.Fatalf("WarmStart: %v", err)
	}
	snap := manager2.Current()
	if snap == nil {
		t.Fatal("no snapshot after warm start")
	}
	if snap.Corpus.Version != 1 || snap.Corpus.Len() != 2 {
		t.Errorf("restored corpus = v%d with %d records", snap.Corpus.Version, snap.Corpus.Len())
	}
	if snap.Report == nil || snap.Index == nil {
		t.Error("warm start did not rebuild report and index")
	}

	// The next ingest must not reuse the restored version number.
	next, err := p2.Ingest(context.Background(), "new.csv", []Row{{Text: "fresh feedback"}}, 0)
	if err != nil {
		t.Fatalf("Ingest after warm start: %v", err)
	}
	if next.Corpus.Version <= snap.Corpus.Version {
		t.Errorf("version after warm start = %d, want > %d", next.Corpus.Version, snap.Corpus.Version)
	}
}

func TestWarmStart_EmptyStore(t *testing.T) {
	p, manager, _ := newTestPipeline(t, &hashEngine{})
	if err := p.WarmStart(context.Background()); err != nil {
		t.Fatalf("WarmStart: %v", err)
	}
	if manager.Current() != nil {
		t.Error("warm start over an empty store published a snapshot")
	}
}

func TestLogInteraction(t *testing.T) {
	p, _, store := newTestPipeline(t, &hashEngine{})

	p.LogInteraction("q1", "what changed?", "Not much.", "llama3", "answered", []string{"c1"}, 4)

	got, err := store.GetInteraction("q1")
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.Answer != "Not much." || got.ChunkIDs != `["c1"]` || got.CorpusVersion != 4 {
		t.Errorf("interaction = %+v", got)
	}
}
