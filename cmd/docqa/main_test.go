package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"what is the refund window", "--doc", "d-1"},
			expected: []string{"--doc", "d-1", "what is the refund window"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"--doc", "d-1", "question"},
			expected: []string{"--doc", "d-1", "question"},
		},
		{
			name:     "positional only returns unchanged",
			args:     []string{"handbook.pdf"},
			expected: []string{"handbook.pdf"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"who", "signed", "--output", "json"},
			expected: []string{"--output", "json", "who", "signed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"refunds"}, "refunds"},
		{"multiple words", []string{"refund", "window?"}, "refund window?"},
		{"single quoted phrase", []string{"refund window?"}, "refund window?"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuestion(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("question cannot be empty: %w", models.ErrInvalidInput), 2},
		{fmt.Errorf("document x: %w", models.ErrNotFound), 3},
		{fmt.Errorf("%w: disk full", models.ErrPersistence), 1},
		{errUsage, 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Query.TopK != config.DefaultTopK {
		t.Errorf("top_k = %d, want default %d", cfg.Query.TopK, config.DefaultTopK)
	}
}

func TestLoadConfig_environmentOnlyWhenNoFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	t.Setenv("CHUNK_SIZE", "321")

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if cfg.Ingest.ChunkSize != 321 {
		t.Errorf("chunk_size = %d, want 321 from environment", cfg.Ingest.ChunkSize)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func memoryConfig() *config.Config {
	cfg := &config.Config{
		Storage:   config.StorageConfig{Driver: config.DriverMemory},
		Embedding: config.EmbeddingConfig{Dimensions: 8, Order: []string{}},
		Synthesis: config.SynthesisConfig{Order: []string{}},
		Ingest:    config.IngestConfig{ChunkSize: 40},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestComponents_DirectBackend(t *testing.T) {
	ctx := context.Background()
	c, err := initializeComponents(ctx, memoryConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	defer c.Close()

	doc, err := c.Upload(ctx, "/some/where/faq.txt", []byte(strings.Repeat("Orders ship in two days. ", 4)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Title != "faq.txt" {
		t.Errorf("title = %q, want faq.txt", doc.Title)
	}

	res, err := c.Ingest(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Ingested != 3 {
		t.Errorf("ingested = %d, want 3", res.Ingested)
	}

	ans, err := c.Query(ctx, &models.QueryRequest{Question: "when do orders ship?"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.HasPrefix(ans.Answer, `Mock answer: "`) || len(ans.Sources) != 3 {
		t.Errorf("unexpected answer: %+v", ans)
	}

	docs, total, err := c.ListDocuments(ctx, 0, 10)
	if err != nil || total != 1 || len(docs) != 1 {
		t.Fatalf("ListDocuments = %d docs, total %d, err %v", len(docs), total, err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Documents != 1 || status.Chunks != 3 || status.EmbeddingDimensions != 8 {
		t.Errorf("status = %+v", status)
	}
	if status.DiskUsageBytes != nil {
		t.Error("memory storage should not report disk usage")
	}

	if err := c.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := c.DeleteDocument(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSplitFolders(t *testing.T) {
	got := splitFolders(" ./inbox, ,/srv/docs,")
	want := []string{"./inbox", "/srv/docs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitFolders() = %v, want %v", got, want)
	}
	if splitFolders("") != nil {
		t.Error("empty flag should yield no folders")
	}
}

func TestComponents_WatchFolder(t *testing.T) {
	dir := t.TempDir()
	cfg := memoryConfig()
	cfg.Watch.Directories = []string{dir}
	cfg.Watch.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	defer c.Close()

	if err := os.WriteFile(filepath.Join(dir, "dropped.txt"), []byte("Dropped files are ingested."), 0600); err != nil {
		t.Fatal(err)
	}
	done := c.startWatcher(ctx, zap.NewNop())
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		n, err := c.Storage.CountChunks(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("chunks = %d, want 1 after watch sync", n)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestComponents_WatcherDisabled(t *testing.T) {
	c, err := initializeComponents(context.Background(), memoryConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	defer c.Close()
	select {
	case <-c.startWatcher(context.Background(), zap.NewNop()):
	case <-time.After(time.Second):
		t.Error("watcher should not start without folders")
	}
}
