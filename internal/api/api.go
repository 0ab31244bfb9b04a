// Package api exposes the feedback service over HTTP: ingestion, the
// aggregate report, question answering, and the interaction log.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/ingest"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/rag"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/storage"
)

const maxIngestBodySize = 20 << 20 // 20MB uploads
const maxRequestBodySize = 1 << 20 // 1MB JSON bodies

// AppDeps carries everything the handlers need.
type AppDeps struct {
	Pipeline *ingest.Pipeline
	Manager  *ingest.Manager
	Query    *rag.QueryEngine
	Store    *storage.Store
	Engine   engine.Engine
	GenModel string
	Token    string
}

// NewHandler builds the HTTP surface. Mutating routes and the interaction log
// sit behind bearer auth; read-side analysis routes are open.
func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))
	r.Get("/report", handleReport(deps))
	r.Post("/ask", handleAsk(deps))
	r.Post("/insights", handleInsights(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/ingest", handleIngest(deps))
		r.Get("/interactions", handleListInteractions(deps))
		r.Get("/interactions/{id}", handleGetInteraction(deps))
	})

	return r
}

func handleHealth(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":         "ok",
			"engine_running": deps.Engine.IsRunning(r.Context()),
		}
		if snap := deps.Manager.Current(); snap != nil {
			resp["corpus_version"] = snap.Corpus.Version
			resp["index_state"] = indexState(snap)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func indexState(snap *ingest.Snapshot) string {
	if snap.Index != nil {
		return "ready"
	}
	return "unavailable"
}

// handleIngest accepts either a multipart upload (field "file", format by
// extension) or a raw JSON array of feedback rows.
func handleIngest(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxIngestBodySize)
		defer r.Body.Close()

		rows, parseExcluded, sourceName, err := parseUpload(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		snap, err := deps.Pipeline.Ingest(r.Context(), sourceName, rows, parseExcluded)
		if errors.Is(err, corpus.ErrEmptyCorpus) {
			httpError(w, http.StatusBadRequest, "empty_corpus", "upload contains no usable feedback")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "ingestion failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"corpus_version": snap.Corpus.Version,
			"ingested":       snap.Corpus.Len(),
			"excluded":       snap.Report.Excluded,
			"index_state":    indexState(snap),
		})
	}
}

// parseUpload dispatches on the request shape: multipart uploads by file
// extension, everything else as a JSON row array.
func parseUpload(r *http.Request) ([]ingest.Row, int, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, 0, "", fmt.Errorf("reading upload: %w", err)
		}
		defer file.Close()

		name := header.Filename
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			rows, excluded, err := ingest.ParseCSV(file)
			return rows, excluded, name, err
		case ".json":
			rows, excluded, err := ingest.ParseJSON(file)
			return rows, excluded, name, err
		case ".pdf":
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, 0, "", fmt.Errorf("reading upload: %w", err)
			}
			rows, excluded, err := ingest.ParsePDF(data)
			return rows, excluded, name, err
		default:
			return nil, 0, "", fmt.Errorf("unsupported file type %q", filepath.Ext(name))
		}
	}

	rows, excluded, err := ingest.ParseJSON(r.Body)
	sourceName := r.URL.Query().Get("source")
	if sourceName == "" {
		sourceName = "api"
	}
	return rows, excluded, sourceName, err
}

func handleReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Manager.Current()
		if snap == nil {
			httpError(w, http.StatusNotFound, "no_corpus", "no feedback has been ingested yet")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap.Report)
	}
}

type askRequest struct {
	Question string     `json:"question"`
	History  []rag.Turn `json:"history,omitempty"`
}

func handleAsk(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		snap := deps.Manager.Current()
		idx := snapIndex(snap)

		ans, err := deps.Query.Ask(r.Context(), idx, req.Question, req.History)
		if ans != nil {
			deps.Pipeline.LogInteraction(ans.ID, ans.Question, ans.Text, deps.GenModel, string(ans.State), ans.ChunkIDs, ans.CorpusVersion)
		}
		if errors.Is(err, rag.ErrNoCorpusIndexed) {
			httpError(w, http.StatusConflict, "no_corpus_indexed", "no corpus is indexed; ingest feedback first")
			return
		}
		if err != nil {
			code, errType := capabilityStatus(err)
			httpError(w, code, errType, "answering failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ans)
	}
}

func snapIndex(snap *ingest.Snapshot) *index.Index {
	if snap == nil {
		return nil
	}
	return snap.Index
}

func handleInsights(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Manager.Current()
		if snap == nil {
			httpError(w, http.StatusNotFound, "no_corpus", "no feedback has been ingested yet")
			return
		}

		text, err := rag.GenerateInsights(r.Context(), deps.Engine, deps.GenModel, snap.Report)
		if err != nil {
			code, errType := capabilityStatus(err)
			httpError(w, code, errType, "generating insights failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"corpus_version": snap.Corpus.Version,
			"insights":       text,
		})
	}
}

func handleListInteractions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		interactions, err := deps.Store.ListInteractions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interactions: %v", err)
			return
		}
		if interactions == nil {
			interactions = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactions)
	}
}

func handleGetInteraction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		interaction, err := deps.Store.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "interaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get interaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interaction)
	}
}

// capabilityStatus maps engine failures onto transport codes: timeouts to
// 504, everything else the capability reports to 502.
func capabilityStatus(err error) (int, string) {
	switch engine.ErrorKind(err) {
	case engine.KindTimeout:
		return http.StatusGatewayTimeout, "capability_timeout"
	case engine.KindTransport, engine.KindProvider:
		return http.StatusBadGateway, "capability_error"
	}
	return http.StatusInternalServerError, "api_error"
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
