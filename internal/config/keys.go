package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "PULSE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "PULSE_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "ollama.base_url", typ: kString, env: "PULSE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.gen_model", typ: kString, env: "PULSE_OLLAMA_GEN_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.GenModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.GenModel },
	},
	{
		key: "ollama.embed_model", typ: kString, env: "PULSE_OLLAMA_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.EmbedModel },
	},
	{
		key: "groq.api_key", typ: kString, env: "PULSE_GROQ_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Groq.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.APIKey },
	},
	{
		key: "groq.model", typ: kString, env: "PULSE_GROQ_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Groq.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Groq.Model },
	},
	{
		key: "storage.data_dir", typ: kString, env: "PULSE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "PULSE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "retrieval.top_k", typ: kInt, env: "PULSE_RETRIEVAL_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopK },
	},
	{
		key: "index.chunk_size", typ: kInt, env: "PULSE_INDEX_CHUNK_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Index.ChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Index.ChunkSize },
	},
	{
		key: "index.chunk_overlap", typ: kInt, env: "PULSE_INDEX_CHUNK_OVERLAP",
		apply:   func(cfg *Config, v any) { cfg.Index.ChunkOverlap = v.(int) },
		extract: func(cfg Config) any { return cfg.Index.ChunkOverlap },
	},
	{
		key: "topics.limit", typ: kInt, env: "PULSE_TOPICS_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Topics.Limit = v.(int) },
		extract: func(cfg Config) any { return cfg.Topics.Limit },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
