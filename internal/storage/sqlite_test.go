package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("no migrations applied")
	}
	if versions[0] != 1 {
		t.Errorf("first migration = %d, want 1", versions[0])
	}
}

func TestSaveAndLoadCorpus(t *testing.T) {
	s := openTestStore(t)

	engagement := 42
	c := &corpus.Corpus{
		Version:    1,
		SourceName: "reviews.csv",
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Excluded:   2,
		Records: []corpus.Record{
			{
				ID:             "r1",
				RawText:        "LOVE this product!!!",
				NormalizedText: "LOVE this product!!!",
				Timestamp:      time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
				Source:         corpus.SourceUpload,
				Engagement:     &engagement,
				Label:          corpus.LabelPositive,
				Score:          0.82,
			},
			{
				ID:             "r2",
				RawText:        "   ",
				NormalizedText: "",
				LowSignal:      true,
				Source:         corpus.SourceScrape,
				Label:          corpus.LabelNeutral,
			},
		},
	}

	if err := s.SaveCorpus(c); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	loaded, err := s.LatestCorpus()
	if err != nil {
		t.Fatalf("LatestCorpus: %v", err)
	}
	if loaded.Version != 1 || loaded.SourceName != "reviews.csv" || loaded.Excluded != 2 {
		t.Errorf("corpus header = %+v", loaded)
	}
	if len(loaded.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(loaded.Records))
	}

	r1 := loaded.Records[0]
	if r1.ID != "r1" || r1.Label != corpus.LabelPositive || r1.Score != 0.82 {
		t.Errorf("r1 = %+v", r1)
	}
	if r1.Engagement == nil || *r1.Engagement != 42 {
		t.Errorf("r1.Engagement = %v, want 42", r1.Engagement)
	}
	if !r1.HasTimestamp() {
		t.Error("r1 lost its timestamp")
	}

	r2 := loaded.Records[1]
	if !r2.LowSignal {
		t.Error("r2.LowSignal lost")
	}
	if r2.Engagement != nil {
		t.Errorf("r2.Engagement = %v, want nil", r2.Engagement)
	}
	if r2.HasTimestamp() {
		t.Error("r2 gained a timestamp")
	}
}

func TestSaveCorpusReplacesPrior(t *testing.T) {
	s := openTestStore(t)

	v1 := &corpus.Corpus{
		Version:   1,
		CreatedAt: time.Now().UTC(),
		Records:   []corpus.Record{{ID: "old", RawText: "old", NormalizedText: "old", Label: corpus.LabelNeutral}},
	}
	if err := s.SaveCorpus(v1); err != nil {
		t.Fatalf("SaveCorpus v1: %v", err)
	}

	v2 := &corpus.Corpus{
		Version:   2,
		CreatedAt: time.Now().UTC(),
		Records:   []corpus.Record{{ID: "new", RawText: "new", NormalizedText: "new", Label: corpus.LabelNeutral}},
	}
	if err := s.SaveCorpus(v2); err != nil {
		t.Fatalf("SaveCorpus v2: %v", err)
	}

	loaded, err := s.LatestCorpus()
	if err != nil {
		t.Fatalf("LatestCorpus: %v", err)
	}
	if loaded.Version != 2 {
		t.Errorf("Version = %d, want 2", loaded.Version)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].ID != "new" {
		t.Errorf("records = %+v, want the replacement only", loaded.Records)
	}
}

func TestLatestCorpus_Empty(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LatestCorpus(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestCorpus err = %v, want ErrNotFound", err)
	}
}

func TestSaveAndGetInteraction(t *testing.T) {
	s := openTestStore(t)

	i := Interaction{
		ID:            "q1",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		Question:      "what do customers think of shipping?",
		Answer:        "Mostly negative, delays dominate.",
		Model:         "llama3",
		Status:        "answered",
		ChunkIDs:      `["c1","c2"]`,
		CorpusVersion: 3,
	}
	if err := s.SaveInteraction(i); err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}

	got, err := s.GetInteraction("q1")
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.Question != i.Question || got.Answer != i.Answer || got.ChunkIDs != i.ChunkIDs {
		t.Errorf("got %+v, want %+v", got, i)
	}
	if got.CorpusVersion != 3 {
		t.Errorf("CorpusVersion = %d, want 3", got.CorpusVersion)
	}

	if _, err := s.GetInteraction("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInteraction(missing) err = %v, want ErrNotFound", err)
	}
}

func TestSaveInteraction_Defaults(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveInteraction(Interaction{
		ID:        "q1",
		CreatedAt: time.Now().UTC(),
		Question:  "anything?",
	}); err != nil {
		t.Fatalf("SaveInteraction: %v", err)
	}

	got, err := s.GetInteraction("q1")
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.Status != "answered" {
		t.Errorf("Status = %q, want answered", got.Status)
	}
	if got.ChunkIDs != "[]" {
		t.Errorf("ChunkIDs = %q, want []", got.ChunkIDs)
	}
}

func TestListInteractions(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveInteraction(Interaction{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Question:  "q " + id,
		}); err != nil {
			t.Fatalf("SaveInteraction %s: %v", id, err)
		}
	}

	results, err := s.ListInteractions(2)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d interactions, want 2", len(results))
	}
	// Newest first.
	if results[0].ID != "c" || results[1].ID != "b" {
		t.Errorf("order = [%s, %s], want [c, b]", results[0].ID, results[1].ID)
	}
}

func TestLatestCorpus_PreservesIngestionOrder(t *testing.T) {
	s := openTestStore(t)

	// IDs deliberately out of lexicographic order; loading must follow the
	// order records were saved in, not the order of their UUIDs.
	ids := []string{"zz-last-alphabetically", "aa-first-alphabetically", "mm-middle"}
	c := &corpus.Corpus{
		Version:    1,
		SourceName: "ordered.csv",
		CreatedAt:  time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, id := range ids {
		c.Records = append(c.Records, corpus.Record{
			ID:             id,
			RawText:        "text for " + id,
			NormalizedText: "text for " + id,
			Source:         corpus.SourceUpload,
			Label:          corpus.LabelNeutral,
		})
	}

	if err := s.SaveCorpus(c); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	loaded, err := s.LatestCorpus()
	if err != nil {
		t.Fatalf("LatestCorpus: %v", err)
	}
	if len(loaded.Records) != len(ids) {
		t.Fatalf("got %d records, want %d", len(loaded.Records), len(ids))
	}
	for i, id := range ids {
		if loaded.Records[i].ID != id {
			t.Errorf("record %d ID = %s, want %s", i, loaded.Records[i].ID, id)
		}
	}
}
