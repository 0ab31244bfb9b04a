package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Groq      GroqConfig
	Storage   StorageConfig
	Log       LogConfig
	Retrieval RetrievalConfig
	Index     IndexConfig
	Topics    TopicsConfig
}

type ServerConfig struct {
	Port  int
	Token string
}

type OllamaConfig struct {
	BaseURL    string
	GenModel   string
	EmbedModel string
}

type GroqConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type RetrievalConfig struct {
	TopK int
}

type IndexConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type TopicsConfig struct {
	Limit int
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			GenModel:   "llama3.1",
			EmbedModel: "nomic-embed-text",
		},
		Groq: GroqConfig{
			Model: "llama-3.1-8b-instant",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Index: IndexConfig{
			ChunkSize:    400,
			ChunkOverlap: 60,
		},
		Topics: TopicsConfig{
			Limit: 5,
		},
	}
}

// Load reads configuration from a .env file if one is present, the JSON
// config file at $XDG_CONFIG_HOME/pulse/config.json, and environment
// variables. Environment variables (PULSE_*) win over the config file.
func Load() (Config, error) {
	godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	if cfg.Server.Token == "" {
		return Config{}, fmt.Errorf("missing required config: API token. " +
			"Set it via environment variable PULSE_API_TOKEN or a .env file")
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Index.ChunkOverlap < 0 || cfg.Index.ChunkOverlap >= cfg.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap %d must be smaller than chunk_size %d",
			cfg.Index.ChunkOverlap, cfg.Index.ChunkSize)
	}
	if cfg.Topics.Limit <= 0 {
		return fmt.Errorf("topics.limit must be positive, got %d", cfg.Topics.Limit)
	}
	return nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "pulse-data"
		}
	}
	return filepath.Join(dir, "pulse")
}
