package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
)

func TestIsRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning = false for healthy server")
	}

	srv.Close()
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning = true for closed server")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"nomic-embed-text:latest"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0] != "llama3:latest" {
		t.Errorf("models[0] = %q", models[0])
	}

	if !c.HasModel(context.Background(), "llama3") {
		t.Error("HasModel(llama3) = false, want true for llama3:latest")
	}
	if c.HasModel(context.Background(), "mistral") {
		t.Error("HasModel(mistral) = true, want false")
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":"hello there"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	out, err := c.Generate(context.Background(), "llama3", []engine.Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hello there" {
		t.Errorf("Generate = %q, want %q", out, "hello there")
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Generate(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error on 404")
	}
	if engine.ErrorKind(err) != engine.KindProvider {
		t.Errorf("kind = %v, want provider", engine.ErrorKind(err))
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"message":{"content":"late"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL)
	_, err := c.Generate(ctx, "llama3", []engine.Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if engine.ErrorKind(err) != engine.KindTimeout {
		t.Errorf("kind = %v, want timeout", engine.ErrorKind(err))
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.Generate(context.Background(), "llama3", nil)
	if err == nil {
		t.Fatal("expected error on refused connection")
	}
	if engine.ErrorKind(err) != engine.KindTransport {
		t.Errorf("kind = %v, want transport", engine.ErrorKind(err))
	}
	var capErr *engine.CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatal("error is not a CapabilityError")
	}
	if capErr.Op != "generate" {
		t.Errorf("op = %q, want generate", capErr.Op)
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	vec, err := c.Embed(context.Background(), "nomic-embed-text", "some feedback")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("got %d dims, want 3", len(vec))
	}
	if vec[1] != 0.2 {
		t.Errorf("vec[1] = %v, want 0.2", vec[1])
	}
}

func TestEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Embed(context.Background(), "nomic-embed-text", "text")
	if err == nil {
		t.Fatal("expected error for empty embeddings")
	}
	if engine.ErrorKind(err) != engine.KindProvider {
		t.Errorf("kind = %v, want provider", engine.ErrorKind(err))
	}
}
