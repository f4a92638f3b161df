// Package main is the docqa CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/server"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/docqa/config.yaml"
	defaultServerURL  = "http://localhost:4000"
	clientTimeout     = 5 * time.Minute
)

// errUsage makes main print usage and exit 1 without an extra message.
var errUsage = errors.New("usage")

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present; when neither exists the config comes
// from the environment alone. Returns the config and the path actually loaded
// ("" for environment-only).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.FromEnv(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "upload":
		err = runUpload(args)
	case "ingest":
		err = runIngest(args)
	case "ask":
		err = runAsk(args)
	case "list":
		err = runList(args)
	case "delete":
		err = runDelete(args)
	case "status":
		err = runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("docqa version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes bad input (2) and missing documents (3) from other
// failures (1) so scripts can tell them apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return 2
	case errors.Is(err, models.ErrNotFound):
		return 3
	default:
		return 1
	}
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	port := fs.Int("port", 0, "listen port (overrides config)")
	watch := fs.String("watch", "", "comma-separated folders to auto-ingest (overrides config)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if dirs := splitFolders(*watch); len(dirs) > 0 {
		cfg.Watch.Directories = dirs
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		&cfg.Server,
		logger,
		server.WithProviders(components.Embedder.Names(), components.Synthesizer.Names()),
		server.WithDimensions(cfg.Embedding.Dimensions),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := components.startWatcher(watchCtx, logger)
	defer func() {
		stopWatch()
		<-watchDone
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func splitFolders(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// commonFlags registers the flags every client command shares.
func commonFlags(fs *flag.FlagSet) (configPath, serverURL, output *string) {
	configPath = fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL = fs.String("server", defaultServerURL, `server URL (--server "" uses storage directly)`)
	output = fs.String("output", "text", "output format: text or json")
	return configPath, serverURL, output
}

// openBackend talks to the server at serverURL, or opens storage directly
// when serverURL is empty.
func openBackend(ctx context.Context, serverURL, configPath string) (backend, func(), error) {
	if serverURL != "" {
		return cli.NewClient(serverURL, clientTimeout), func() {}, nil
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return components, func() {
		components.Close()
		_ = logger.Sync()
	}, nil
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath, serverURL, output := commonFlags(fs)
	ingest := fs.Bool("ingest", false, "ingest the document after uploading")
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: docqa upload [flags] <file>")
		return errUsage
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	doc, err := b.Upload(ctx, path, content)
	if err != nil {
		return err
	}
	if !*ingest {
		return cli.WriteDocument(os.Stdout, doc, format)
	}
	result, err := b.Ingest(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("document %s stored but not ingested: %w", doc.ID, err)
	}
	return cli.WriteIngest(os.Stdout, result, format)
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath, serverURL, output := commonFlags(fs)
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: docqa ingest [flags] <document-id>")
		return errUsage
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := b.Ingest(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return cli.WriteIngest(os.Stdout, result, format)
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: docqa ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces. Quotes are optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  docqa ask what is the refund window
  docqa ask --doc 3f2a... "who signed the contract?"
  docqa ask --output json --server "" summarize the onboarding guide
`)
}

func runAsk(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath, serverURL, output := commonFlags(fs)
	docID := fs.String("doc", "", "restrict retrieval to one document")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(args))

	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		return errUsage
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	answer, err := b.Query(ctx, &models.QueryRequest{DocumentID: *docID, Question: question})
	if err != nil {
		return err
	}
	return cli.WriteAnswer(os.Stdout, answer, format)
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath, serverURL, output := commonFlags(fs)
	offset := fs.Int("offset", 0, "skip this many documents")
	limit := fs.Int("limit", 50, "maximum documents to show")
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	docs, total, err := b.ListDocuments(ctx, *offset, *limit)
	if err != nil {
		return err
	}
	return cli.WriteDocuments(os.Stdout, docs, total, format)
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath, serverURL, _ := commonFlags(fs)
	_ = fs.Parse(argsReorder(args))

	if fs.NArg() < 1 {
		fmt.Println("Usage: docqa delete [flags] <document-id>")
		return errUsage
	}
	docID := fs.Arg(0)

	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := b.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	fmt.Printf("Document deleted: %s\n", docID)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, serverURL, output := commonFlags(fs)
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	ctx := context.Background()
	b, closeFn, err := openBackend(ctx, *serverURL, *configPath)
	if err != nil {
		return err
	}
	defer closeFn()

	status, err := b.Status(ctx)
	if err != nil {
		return err
	}
	return cli.WriteStatus(os.Stdout, status, format)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so `docqa ask "question" --doc x`
// would otherwise leave --doc unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `docqa - Document question answering over your own files

Usage:
  docqa server [flags]               Start the HTTP server
  docqa upload [flags] <file>        Store a file as a document (--ingest to also ingest)
  docqa ingest [flags] <doc-id>      Chunk and embed a stored document
  docqa ask [flags] <question>       Ask a question (--doc to scope to one document)
  docqa list [flags]                 List stored documents
  docqa delete [flags] <doc-id>      Delete a document and its chunks
  docqa status [flags]               Show storage counts and provider chains
  docqa version                      Show version
  docqa help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/docqa/config.yaml, or ./config.yaml)
  --debug            Enable debug logging
  --port int         Listen port (overrides config)
  --watch string     Comma-separated folders to auto-ingest (overrides config)

Client Flags (upload, ingest, ask, list, delete, status):
  --server string    Server URL (default: http://localhost:4000). Use --server "" for direct storage.
  --config string    Config file path (direct storage mode)
  --output string    Output format: text or json (default: text)

Examples:
  docqa server
  docqa server --watch ~/Documents/inbox
  docqa upload --ingest handbook.pdf
  docqa ask "what is the refund window?"
  docqa ask --doc 3f2a9c1e-... --output json who signed the contract
  docqa status --server ""`)
}
