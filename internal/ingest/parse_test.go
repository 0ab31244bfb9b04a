package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

func TestParseCSV_HeaderDetection(t *testing.T) {
	data := `id,customer_review,created_date,likes
1,"the product arrived broken",2026-03-01,12
2,"works exactly as described",2026-03-02,3
`
	rows, excluded, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if excluded != 0 {
		t.Errorf("excluded = %d, want 0", excluded)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Text != "the product arrived broken" {
		t.Errorf("rows[0].Text = %q", rows[0].Text)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !rows[0].Timestamp.Equal(want) {
		t.Errorf("rows[0].Timestamp = %v, want %v", rows[0].Timestamp, want)
	}
	if rows[0].Engagement == nil || *rows[0].Engagement != 12 {
		t.Errorf("rows[0].Engagement = %v, want 12", rows[0].Engagement)
	}
	if rows[0].Source != corpus.SourceUpload {
		t.Errorf("rows[0].Source = %q", rows[0].Source)
	}
}

func TestParseCSV_FallbackLongestColumn(t *testing.T) {
	// No recognizable header; the long prose column must win.
	data := `col_a,col_b
5,"this is clearly the feedback text since it is much longer"
7,"another long opinion about the product and its shortcomings"
`
	rows, _, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !strings.Contains(rows[0].Text, "clearly the feedback text") {
		t.Errorf("wrong column selected: %q", rows[0].Text)
	}
}

func TestParseCSV_ExcludesEmptyText(t *testing.T) {
	data := `feedback
"good product"
""
"   "
"bad support"
`
	rows, excluded, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
	if excluded != 2 {
		t.Errorf("excluded = %d, want 2", excluded)
	}
}

func TestParseCSV_NoDataRows(t *testing.T) {
	if _, _, err := ParseCSV(strings.NewReader("feedback\n")); err == nil {
		t.Error("expected error for header-only csv")
	}
	if _, _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty csv")
	}
}

func TestParseCSV_MalformedTimestampIgnored(t *testing.T) {
	data := `feedback,date
"fine product","not a date"
`
	rows, _, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if !rows[0].Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero for unparseable cell", rows[0].Timestamp)
	}
}

func TestParseJSON(t *testing.T) {
	data := `[
		{"review": "love the new design", "created_at": "2026-03-01T10:00:00Z", "likes": 7},
		{"text": "delivery keeps slipping", "source": "scrape", "upvotes": 2},
		{"likes": 9},
		{"comment": ""}
	]`
	rows, excluded, err := ParseJSON(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if excluded != 2 {
		t.Errorf("excluded = %d, want 2", excluded)
	}
	if rows[0].Text != "love the new design" {
		t.Errorf("rows[0].Text = %q", rows[0].Text)
	}
	if rows[0].Engagement == nil || *rows[0].Engagement != 7 {
		t.Errorf("rows[0].Engagement = %v, want 7", rows[0].Engagement)
	}
	if rows[0].Timestamp.IsZero() {
		t.Error("rows[0] lost its timestamp")
	}
	if rows[1].Source != corpus.SourceScrape {
		t.Errorf("rows[1].Source = %q, want scrape", rows[1].Source)
	}
	if rows[1].Engagement == nil || *rows[1].Engagement != 2 {
		t.Errorf("rows[1].Engagement = %v, want 2", rows[1].Engagement)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, _, err := ParseJSON(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Error("expected error for non-array json")
	}
}

func TestParsePDF_Invalid(t *testing.T) {
	if _, _, err := ParsePDF([]byte("definitely not a pdf")); err == nil {
		t.Error("expected error for non-pdf bytes")
	}
}
