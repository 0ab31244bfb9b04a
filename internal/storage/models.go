package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Interaction is one answered (or failed) question over the corpus, kept for
// the interaction log.
type Interaction struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Model         string    `json:"model"`
	Status        string    `json:"status"` // terminal query state: "answered" or "failed"
	ChunkIDs      string    `json:"chunk_ids"` // JSON array stored as text
	CorpusVersion uint64    `json:"corpus_version"`
}
