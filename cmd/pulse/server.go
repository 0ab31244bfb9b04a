package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/api"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/config"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/groq"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/ingest"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/ollama"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/rag"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/sentiment"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pulse server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpStdio, _ := cmd.Flags().GetBool("mcp-stdio")
		return runServer(mcpStdio)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running pulse server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pulse system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp-stdio", false, "also serve MCP tools over stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "pulse.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// buildEngines wires the generation and embedding capabilities. Embedding is
// always local Ollama. Generation goes to Groq when an API key is configured,
// otherwise to Ollama.
func buildEngines(cfg config.Config) (gen engine.Engine, genModel string, embed engine.Engine, embedModel string) {
	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	embed = engine.WithRetry(ollamaClient, 0)
	embedModel = cfg.Ollama.EmbedModel

	if cfg.Groq.APIKey != "" {
		gen = engine.WithRetry(groq.New(cfg.Groq.APIKey), 0)
		genModel = cfg.Groq.Model
	} else {
		gen = engine.WithRetry(ollamaClient, 0)
		genModel = cfg.Ollama.GenModel
	}
	return gen, genModel, embed, embedModel
}

func runServer(mcpStdio bool) error {
	fmt.Fprintf(os.Stderr, "pulse version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Refuse to start twice. Check the health endpoint, not just the PID file.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("pulse is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("pulse is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, genModel, embed, embedModel := buildEngines(cfg)

	ollamaClient := ollama.New(cfg.Ollama.BaseURL)
	if !ollamaClient.IsRunning(ctx) {
		printWarning("Ollama is not reachable at %s; ingestion will run without an index", cfg.Ollama.BaseURL)
	} else if !ollamaClient.HasModel(ctx, embedModel) {
		printWarning("embedding model %q is not pulled; run: ollama pull %s", embedModel, embedModel)
	}

	lex, err := sentiment.DefaultLexicon()
	if err != nil {
		return fmt.Errorf("loading sentiment lexicon: %w", err)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	vectorStore := index.NewSQLiteStore(store.DB())
	embedder := index.NewEmbedder(embed, embedModel)
	indexer := index.NewIndexer(embedder, vectorStore, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)

	manager := ingest.NewManager()
	pipeline := ingest.NewPipeline(
		sentiment.NewClassifier(lex),
		aggregate.NewBuilder(cfg.Topics.Limit),
		indexer,
		store,
		manager,
		logger,
	)

	// Restore the last corpus so a restart does not lose the snapshot.
	if err := pipeline.WarmStart(ctx); err != nil {
		slog.Warn("warm start failed, starting empty", "error", err)
	}

	deps := api.AppDeps{
		Pipeline: pipeline,
		Manager:  manager,
		Query:    rag.NewQueryEngine(gen, genModel, cfg.Retrieval.TopK),
		Store:    store,
		Engine:   gen,
		GenModel: genModel,
		Token:    cfg.Server.Token,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	if mcpStdio {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Deps: deps})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "pulse listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("pulse is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop pulse (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to pulse (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
	if err != nil {
		printStatus("Ollama", "not running")
	} else {
		ollamaResp.Body.Close()
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
	}

	if cfg.Groq.APIKey != "" {
		printStatus("Generation", "groq (%s)", cfg.Groq.Model)
	} else {
		printStatus("Generation", "ollama (%s)", cfg.Ollama.GenModel)
	}
	printStatus("Embed model", "%s", cfg.Ollama.EmbedModel)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
