package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from path (usually ".env") into the process
// environment when the file exists. Variables already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with environment variables. lookup is usually os.LookupEnv.
// Malformed numeric values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	if v, ok := lookup("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	num("PORT", &cfg.Server.Port)
	num("EMBEDDING_DIM", &cfg.Embedding.Dimensions)
	num("CHUNK_SIZE", &cfg.Ingest.ChunkSize)
	num("TOP_K", &cfg.Query.TopK)
	num("LLM_MAX_TOKENS", &cfg.Synthesis.MaxTokens)
	num("LLM_MAX_TOKENS", &cfg.Providers.OpenAI.MaxTokens)
	num("GEMINI_MAX_TOKENS", &cfg.Providers.Gemini.MaxTokens)

	str("DATABASE_URL", &cfg.Storage.DatabaseURL)
	if cfg.Storage.DatabaseURL != "" && cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	str("QDRANT_HOST", &cfg.Storage.Qdrant.Host)
	num("QDRANT_PORT", &cfg.Storage.Qdrant.Port)
	str("QDRANT_API_KEY", &cfg.Storage.Qdrant.APIKey)
	str("REDIS_URL", &cfg.Embedding.RedisURL)

	str("GEMINI_API_KEY", &cfg.Providers.Gemini.APIKey)
	str("GEMINI_EMBED_MODEL", &cfg.Providers.Gemini.EmbedModel)
	str("GEMINI_CHAT_MODEL", &cfg.Providers.Gemini.ChatModel)
	str("OPENAI_API_KEY", &cfg.Providers.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &cfg.Providers.OpenAI.BaseURL)
	str("EMBEDDING_MODEL", &cfg.Providers.OpenAI.EmbedModel)
	str("LLM_MODEL", &cfg.Providers.OpenAI.ChatModel)
	str("ANTHROPIC_API_KEY", &cfg.Providers.Anthropic.APIKey)
	str("ANTHROPIC_MODEL", &cfg.Providers.Anthropic.Model)
	str("OLLAMA_URL", &cfg.Providers.Ollama.URL)

	if v, ok := lookup("WATCH_DIRS"); ok && strings.TrimSpace(v) != "" {
		cfg.Watch.Directories = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
