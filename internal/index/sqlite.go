package index

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// Compile-time check that SQLiteStore implements VectorStore.
var _ VectorStore = (*SQLiteStore)(nil)

// SQLiteStore provides chunk storage and brute-force cosine similarity search
// backed by SQLite. Chunks are keyed by corpus version; a rebuild replaces the
// whole version in one transaction, so readers never see a half-built index.
type SQLiteStore struct {
	db *sql.DB

	// afterScan, when set, runs between the candidate scan and the
	// version re-check in Search. Tests use it to interleave a rebuild.
	afterScan func()
}

// NewSQLiteStore wraps an existing *sql.DB for vector operations.
// The feedback_vectors table must already exist (created via migrations).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ReplaceVersion atomically swaps the stored chunks for the given version.
func (s *SQLiteStore) ReplaceVersion(version uint64, chunks []Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}

	// A rebuild owns the whole table: only one corpus version lives at a time.
	if _, err := tx.Exec("DELETE FROM feedback_vectors"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing prior versions: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO feedback_vectors (id, record_id, corpus_version, chunk_text, label, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		blob := encodeFloat32s(c.Embedding)
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(c.ID, c.RecordID, version, c.Text, c.Label, blob, createdAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// idScore holds only the ID and score during the scan phase of Search.
// Full chunk details are fetched only for top-K winners.
type idScore struct {
	ID    string
	Score float32
}

// Search performs brute-force cosine similarity search over all chunks of the
// current version, returning the top-K most similar.
func (s *SQLiteStore) Search(vector []float32, topK int, version uint64) ([]ScoredChunk, error) {
	current, err := s.CurrentVersion()
	if err != nil {
		return nil, err
	}
	if current != version {
		return nil, fmt.Errorf("version %d, store holds %d: %w", version, current, ErrStaleIndex)
	}

	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	// Phase 1: scan only id + embedding to find top-K candidates.
	rows, err := s.db.Query("SELECT id, embedding FROM feedback_vectors WHERE corpus_version = ?", version)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &idScoreHeap{}
	heap.Init(h)

	// Reusable buffer for decoding embeddings to avoid per-row allocations.
	var buf []float32

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < topK {
			heap.Push(h, idScore{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	rows.Close()

	if s.afterScan != nil {
		s.afterScan()
	}

	// A rebuild can commit between the scan queries. Re-check the version so
	// a replaced reader gets ErrStaleIndex instead of a silently empty result.
	current, err = s.CurrentVersion()
	if err != nil {
		return nil, err
	}
	if current != version {
		return nil, fmt.Errorf("version %d, store holds %d: %w", version, current, ErrStaleIndex)
	}

	if h.Len() == 0 {
		return nil, nil
	}

	// Phase 2: fetch full chunks only for the top-K IDs.
	topIDs := make([]string, h.Len())
	scores := make(map[string]float32, h.Len())
	for i := len(topIDs) - 1; i >= 0; i-- {
		item := heap.Pop(h).(idScore)
		topIDs[i] = item.ID
		scores[item.ID] = item.Score
	}

	full, err := s.GetByIDs(context.Background(), topIDs)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredChunk, len(full))
	for i, c := range full {
		results[i] = ScoredChunk{Chunk: c, Score: scores[c.ID]}
	}

	// Sort results by score descending (IN query doesn't preserve order).
	sortByScore(results)

	return results, nil
}

// sortByScore sorts ScoredChunks by Score descending. Used for small slices (topK).
func sortByScore(results []ScoredChunk) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

// GetByIDs returns chunks matching the given IDs.
func (s *SQLiteStore) GetByIDs(ctx context.Context, ids []string) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	queryArgs := make([]interface{}, len(ids))
	for i, id := range ids {
		queryArgs[i] = id
	}

	query := `SELECT id, record_id, corpus_version, chunk_text, label, embedding, created_at
		FROM feedback_vectors WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying by IDs: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		var createdAt string
		if err := rows.Scan(&c.ID, &c.RecordID, &c.CorpusVersion, &c.Text, &c.Label, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		embedding, err := decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", c.ID, err)
		}
		c.Embedding = embedding
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for id %s: %w", c.ID, err)
		}
		c.CreatedAt = t
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CurrentVersion returns the highest stored corpus version, 0 when empty.
func (s *SQLiteStore) CurrentVersion() (uint64, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(corpus_version) FROM feedback_vectors").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("querying current version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return uint64(version.Int64), nil
}

// Count returns the number of chunks stored for the given version.
func (s *SQLiteStore) Count(version uint64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM feedback_vectors WHERE corpus_version = ?", version).Scan(&count)
	return count, err
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
// Returns an error if the byte slice length is not a multiple of 4 (indicates data corruption).
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// decodeFloat32sInto decodes little-endian bytes into the provided buffer,
// reusing it to avoid per-row allocations during search scans.
func decodeFloat32sInto(buf []float32, b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes cosine similarity as dot(a,b) / (aNorm * bNorm).
// aNorm is the precomputed L2 norm of vector a.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// idScoreHeap is a min-heap of idScore ordered by Score.
// Used during the scan phase of Search to track top-K candidates by ID only.
type idScoreHeap []idScore

func (h idScoreHeap) Len() int            { return len(h) }
func (h idScoreHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h idScoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idScoreHeap) Push(x interface{}) { *h = append(*h, x.(idScore)) }
func (h *idScoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
