package config

import "time"

// Defaults shared with the pipelines.
const (
	DefaultDimensions = 1536
	DefaultChunkSize  = 800
	DefaultTopK       = 5
	DefaultMaxTokens  = 400
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 20 << 20
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/docqa.db"
	}
	if cfg.Storage.Qdrant.Host == "" {
		cfg.Storage.Qdrant.Host = "localhost"
	}
	if cfg.Storage.Qdrant.Port == 0 {
		cfg.Storage.Qdrant.Port = 6334
	}
	if cfg.Storage.Qdrant.Collection == "" {
		cfg.Storage.Qdrant.Collection = "docqa_chunks"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = DefaultDimensions
	}
	if cfg.Embedding.Order == nil {
		cfg.Embedding.Order = []string{"gemini", "openai", "ollama", "onnx"}
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CacheTTL == 0 {
		cfg.Embedding.CacheTTL = 24 * time.Hour
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Synthesis.Order == nil {
		cfg.Synthesis.Order = []string{"gemini", "openai", "anthropic", "ollama"}
	}
	if cfg.Synthesis.MaxTokens == 0 {
		cfg.Synthesis.MaxTokens = DefaultMaxTokens
	}
	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = 30 * time.Second
	}
	p := &cfg.Providers
	if p.Gemini.BaseURL == "" {
		p.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if p.Gemini.EmbedModel == "" {
		p.Gemini.EmbedModel = "embedding-001"
	}
	if p.Gemini.ChatModel == "" {
		p.Gemini.ChatModel = "gemini-2.0-flash"
	}
	if p.Gemini.MaxTokens == 0 {
		p.Gemini.MaxTokens = cfg.Synthesis.MaxTokens
	}
	if p.OpenAI.BaseURL == "" {
		p.OpenAI.BaseURL = "https://api.openai.com"
	}
	if p.OpenAI.EmbedModel == "" {
		p.OpenAI.EmbedModel = "text-embedding-3-small"
	}
	if p.OpenAI.ChatModel == "" {
		p.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if p.OpenAI.MaxTokens == 0 {
		p.OpenAI.MaxTokens = cfg.Synthesis.MaxTokens
	}
	if p.Anthropic.BaseURL == "" {
		p.Anthropic.BaseURL = "https://api.anthropic.com"
	}
	if p.Anthropic.Model == "" {
		p.Anthropic.Model = "claude-3-5-haiku-latest"
	}
	if p.Ollama.EmbedModel == "" {
		p.Ollama.EmbedModel = "nomic-embed-text"
	}
	if p.Ollama.ChatModel == "" {
		p.Ollama.ChatModel = "llama3.2"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = DefaultChunkSize
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = DefaultTopK
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".pptx", ".xlsx", ".odp", ".ods"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
