package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// textColumns are header names that identify the feedback text column, in
// preference order.
var textColumns = []string{"feedback", "review", "comment", "content", "text", "body"}

// engagementColumns are header names that identify an engagement count.
var engagementColumns = []string{"likes", "engagement", "upvotes", "shares", "retweets", "reactions"}

// timestampLayouts are tried in order when parsing date cells.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseCSV reads feedback rows from CSV data. The text, timestamp, and
// engagement columns are autodetected from the header; when no header name
// matches, the column with the longest average cell wins as text. Returns the
// parsed rows and the count of rows dropped as unusable.
func ParseCSV(r io.Reader) ([]Row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) < 2 {
		return nil, 0, fmt.Errorf("csv has no data rows")
	}

	header := records[0]
	body := records[1:]

	textCol := detectTextColumn(header, body)
	if textCol < 0 {
		return nil, 0, fmt.Errorf("no text column found in header %v", header)
	}
	timeCol := detectColumn(header, isTimestampHeader)
	engCol := detectColumn(header, isEngagementHeader)

	var rows []Row
	excluded := 0
	for _, rec := range body {
		if textCol >= len(rec) || strings.TrimSpace(rec[textCol]) == "" {
			excluded++
			continue
		}
		row := Row{Text: rec[textCol], Source: corpus.SourceUpload}
		if timeCol >= 0 && timeCol < len(rec) {
			row.Timestamp = parseTimestamp(rec[timeCol])
		}
		if engCol >= 0 && engCol < len(rec) {
			if n, err := strconv.Atoi(strings.TrimSpace(rec[engCol])); err == nil {
				row.Engagement = &n
			}
		}
		rows = append(rows, row)
	}
	return rows, excluded, nil
}

// detectTextColumn matches header names against the known candidates, in
// candidate preference order. With no match it falls back to the column with
// the longest average cell length.
func detectTextColumn(header []string, body [][]string) int {
	for _, candidate := range textColumns {
		for i, h := range header {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), candidate) {
				return i
			}
		}
	}

	best, bestAvg := -1, 0.0
	for i := range header {
		total, count := 0, 0
		for _, rec := range body {
			if i < len(rec) {
				total += len(rec[i])
				count++
			}
		}
		if count == 0 {
			continue
		}
		avg := float64(total) / float64(count)
		if avg > bestAvg {
			best, bestAvg = i, avg
		}
	}
	return best
}

func detectColumn(header []string, match func(string) bool) int {
	for i, h := range header {
		if match(strings.ToLower(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

func isTimestampHeader(name string) bool {
	for _, frag := range []string{"date", "time", "created", "timestamp"} {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

func isEngagementHeader(name string) bool {
	for _, candidate := range engagementColumns {
		if strings.Contains(name, candidate) {
			return true
		}
	}
	return false
}

func parseTimestamp(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// jsonRow mirrors the accepted JSON upload shape. Key aliases cover the same
// column names the CSV detector knows.
type jsonRow struct {
	Feedback  string `json:"feedback"`
	Review    string `json:"review"`
	Comment   string `json:"comment"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
	Likes     *int   `json:"likes"`
	Upvotes   *int   `json:"upvotes"`
	Shares    *int   `json:"shares"`
	Source    string `json:"source"`
}

func (j jsonRow) text() string {
	for _, v := range []string{j.Feedback, j.Review, j.Comment, j.Content, j.Text, j.Body} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (j jsonRow) timestamp() time.Time {
	for _, v := range []string{j.Timestamp, j.Date, j.CreatedAt} {
		if v != "" {
			if t := parseTimestamp(v); !t.IsZero() {
				return t
			}
		}
	}
	return time.Time{}
}

func (j jsonRow) engagement() *int {
	for _, v := range []*int{j.Likes, j.Upvotes, j.Shares} {
		if v != nil {
			return v
		}
	}
	return nil
}

// ParseJSON reads feedback rows from a JSON array of objects. Objects without
// any recognizable text field are dropped and counted as excluded.
func ParseJSON(r io.Reader) ([]Row, int, error) {
	var raw []jsonRow
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decoding json rows: %w", err)
	}

	var rows []Row
	excluded := 0
	for _, j := range raw {
		text := j.text()
		if text == "" {
			excluded++
			continue
		}
		source := corpus.SourceUpload
		if j.Source == string(corpus.SourceScrape) {
			source = corpus.SourceScrape
		}
		rows = append(rows, Row{
			Text:       text,
			Timestamp:  j.timestamp(),
			Engagement: j.engagement(),
			Source:     source,
		})
	}
	return rows, excluded, nil
}

// ParsePDF extracts plain text from a PDF feedback export. Each non-empty line
// becomes one row; PDFs carry no per-row timestamps or engagement counts.
func ParsePDF(data []byte) ([]Row, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, 0, fmt.Errorf("extracting page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	var rows []Row
	excluded := 0
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Page furniture like bare numbers is noise, not feedback.
		if _, err := strconv.Atoi(line); err == nil {
			excluded++
			continue
		}
		rows = append(rows, Row{Text: line, Source: corpus.SourceUpload})
	}
	if len(rows) == 0 {
		return nil, excluded, fmt.Errorf("pdf contains no extractable text")
	}
	return rows, excluded, nil
}
