package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"insight text"}}]}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	out, err := c.Generate(context.Background(), "llama-3.3-70b-versatile", []engine.Message{
		{Role: "user", Content: "summarize"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "insight text" {
		t.Errorf("Generate = %q", out)
	}
}

func TestGenerateNoKey(t *testing.T) {
	c := New("")
	_, err := c.Generate(context.Background(), "llama-3.3-70b-versatile", nil)
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if engine.ErrorKind(err) != engine.KindProvider {
		t.Errorf("kind = %v, want provider", engine.ErrorKind(err))
	}
}

func TestGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"tokens"}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	_, err := c.Generate(context.Background(), "llama-3.3-70b-versatile", nil)
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if engine.ErrorKind(err) != engine.KindProvider {
		t.Errorf("kind = %v, want provider", engine.ErrorKind(err))
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error message lost provider detail: %v", err)
	}
}

func TestEmbedUnsupported(t *testing.T) {
	c := New("test-key")
	_, err := c.Embed(context.Background(), "any", "text")
	if err == nil {
		t.Fatal("expected error, groq has no embeddings")
	}
	if engine.ErrorKind(err) != engine.KindProvider {
		t.Errorf("kind = %v, want provider", engine.ErrorKind(err))
	}
}

func TestIsRunningNoKey(t *testing.T) {
	c := New("")
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning = true without API key")
	}
}
