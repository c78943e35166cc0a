// Package main is the slipsense CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/config"
	"github.com/slipsense/slipsense/internal/export"
	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/parser"
	"github.com/slipsense/slipsense/internal/patterns"
	"github.com/slipsense/slipsense/internal/pipeline"
	"github.com/slipsense/slipsense/internal/server"
	"github.com/slipsense/slipsense/internal/spatial"
	"github.com/slipsense/slipsense/internal/storage"
	"github.com/slipsense/slipsense/internal/watcher"
	"github.com/slipsense/slipsense/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/slipsense/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "slipsense server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
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
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "extract":
		runExtract()
	case "patterns":
		runPatterns()
	case "version", "--version", "-v":
		fmt.Printf("slipsense version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds everything a running command needs.
type Components struct {
	Store    *storage.SQLiteStore
	Manager  *patterns.Manager
	Parser   parser.Parser
	Exporter *export.XLSXWriter
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	managerOpts := []patterns.ManagerOption{}
	if debug {
		managerOpts = append(managerOpts, patterns.WithLogger(logger))
	}
	manager := patterns.NewManager(store, managerOpts...)

	parserOpts := []parser.PatternBasedOption{
		parser.WithMergeOptions(spatial.MergeOptions{
			MaxGap:     cfg.Extraction.MergeMaxGap,
			MinOverlap: cfg.Extraction.MergeMinOverlap,
		}),
		parser.WithTolerances(cfg.Extraction.RowTolerance, cfg.Extraction.ColumnTolerance),
	}
	if debug {
		parserOpts = append(parserOpts, parser.WithLogger(logger))
	}
	primary := parser.NewPatternBased(manager, cfg.Validation, parserOpts...)
	strategy := parser.Select(primary, logger)

	exporter, err := export.NewXLSXWriter(cfg.Export.WorkbookPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	pipeOpts := []pipeline.Option{pipeline.WithExporter(exporter)}
	if debug {
		pipeOpts = append(pipeOpts, pipeline.WithLogger(logger))
	}
	pipe, err := pipeline.New(strategy, pipeOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	return &Components{
		Store:    store,
		Manager:  manager,
		Parser:   strategy,
		Exporter: exporter,
		Pipeline: pipe,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (inbox events, pattern matching, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var inbox *watcher.Inbox
	if cfg.Watch.Inbox != "" {
		if cfg.Watch.DocumentType == "" || cfg.Watch.FormatName == "" {
			logger.Warn("inbox watching disabled: watch.document_type and watch.format_name must be set")
		} else {
			fc := parser.FormatContext{
				DocumentType: cfg.Watch.DocumentType,
				FormatName:   cfg.Watch.FormatName,
			}
			watchOpts := []watcher.InboxOption{}
			if debugMode {
				watchOpts = append(watchOpts, watcher.WithLogger(logger))
			}
			pipe := components.Pipeline
			inbox = watcher.NewInbox(cfg.Watch.Inbox, cfg.Watch.Extensions, func(path string) {
				result, err := pipe.ProcessFile(context.Background(), path, fc)
				if err != nil {
					logger.Warn("inbox extraction failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("inbox file processed",
					zap.String("path", path),
					zap.String("status", string(result.Status)))
			}, watchOpts...)
			if err := inbox.Start(watchCtx); err != nil {
				logger.Fatal("Failed to start inbox watcher", zap.Error(err))
			}
			inbox.SyncExistingFiles()
		}
	}

	srv := server.NewServer(components.Manager, components.Pipeline, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if inbox != nil {
		inbox.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docType := fs.String("type", "", "document type (pattern collection), e.g. BankSlips")
	formatName := fs.String("format", "", "format name (pattern sub-collection), e.g. KBIZ")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: slipsense extract -type <type> -format <format> [flags] <file>...\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if *docType == "" || *formatName == "" || fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize components: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	fc := parser.FormatContext{DocumentType: *docType, FormatName: *formatName}
	exitCode := 0
	for _, path := range fs.Args() {
		result, err := components.Pipeline.ProcessFile(context.Background(), path, fc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}
		if err := printResult(os.Stdout, result, *outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			exitCode = 1
		}
		if result.Status == models.StatusFailed {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func printResult(w io.Writer, result *models.BankSlipData, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		fmt.Fprintf(w, "%s  [%s]\n", result.SourcePath, result.Status)
		if result.Status == models.StatusFailed {
			fmt.Fprintf(w, "  error: %s\n", result.ErrorReason)
			return nil
		}
		fmt.Fprintf(w, "  date:      %s\n", result.TransactionDate.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  amount:    %.2f\n", result.Amount)
		fmt.Fprintf(w, "  recipient: %s\n", result.RecipientName)
		if result.RecipientNameLatin != "" {
			fmt.Fprintf(w, "  recipient (latin): %s\n", result.RecipientNameLatin)
		}
		if result.Memo != "" {
			fmt.Fprintf(w, "  memo:      %s\n", result.Memo)
		}
		fmt.Fprintf(w, "  patterns:  %.0f%% matched\n", result.PatternSuccessRate*100)
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func runPatterns() {
	fs := flag.NewFlagSet("patterns", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	collection := fs.String("collection", "", "pattern collection (document type)")
	formatName := fs.String("format", "", "format name (sub-collection)")
	name := fs.String("name", "", "pattern name")
	file := fs.String("file", "", "JSON file holding a pattern definition (for save)")
	fs.Usage = func() { printPatternsUsage(fs) }
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		printPatternsUsage(fs)
		os.Exit(1)
	}
	action := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	manager := patterns.NewManager(store)
	ctx := context.Background()

	switch action {
	case "list":
		runPatternsList(ctx, manager, *collection, *formatName)
	case "show":
		if *collection == "" || *formatName == "" || *name == "" {
			fmt.Fprintln(os.Stderr, "show requires -collection, -format and -name")
			os.Exit(1)
		}
		p := manager.Pattern(ctx, *collection, *formatName, *name)
		if p == nil {
			fmt.Fprintf(os.Stderr, "pattern %s/%s/%s not found\n", *collection, *formatName, *name)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(p)
	case "save":
		if *collection == "" || *formatName == "" || *file == "" {
			fmt.Fprintln(os.Stderr, "save requires -collection, -format and -file")
			os.Exit(1)
		}
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read pattern file: %v\n", err)
			os.Exit(1)
		}
		var p patterns.SearchPattern
		if err := json.Unmarshal(data, &p); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to parse pattern file: %v\n", err)
			os.Exit(1)
		}
		if *name != "" {
			p.Name = *name
		}
		if err := manager.SavePattern(ctx, *collection, *formatName, &p); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save pattern: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s/%s/%s\n", *collection, *formatName, p.Name)
	case "delete":
		if *collection == "" || *formatName == "" || *name == "" {
			fmt.Fprintln(os.Stderr, "delete requires -collection, -format and -name")
			os.Exit(1)
		}
		if err := manager.DeletePattern(ctx, *collection, *formatName, *name); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete pattern: %v\n", err)
			os.Exit(1)
		}
		if err := manager.Prune(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to prune empty containers: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s/%s/%s\n", *collection, *formatName, *name)
	default:
		fmt.Fprintf(os.Stderr, "Unknown patterns action: %s\n", action)
		printPatternsUsage(fs)
		os.Exit(1)
	}
}

func runPatternsList(ctx context.Context, manager *patterns.Manager, collection, format string) {
	switch {
	case collection == "":
		for _, c := range manager.CollectionNames(ctx) {
			fmt.Println(c)
		}
	case format == "":
		for _, f := range manager.SubCollectionNames(ctx, collection) {
			fmt.Printf("%s/%s\n", collection, f)
		}
	default:
		for _, n := range manager.PatternNames(ctx, collection, format) {
			fmt.Printf("%s/%s/%s\n", collection, format, n)
		}
	}
}

func printPatternsUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: slipsense patterns [flags] <list|show|save|delete>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  slipsense patterns list
  slipsense patterns -collection BankSlips list
  slipsense patterns -collection BankSlips -format KBIZ list
  slipsense patterns -collection BankSlips -format KBIZ -name Total show
  slipsense patterns -collection BankSlips -format KBIZ -file total.json save
  slipsense patterns -collection BankSlips -format KBIZ -name Total delete
`)
}

func printUsage() {
	fmt.Println(`slipsense - spatial pattern extraction for bank transfer slips

Usage:
  slipsense server   [-config path] [-debug]        Run the HTTP API and inbox watcher
  slipsense extract  -type T -format F <file>...    Extract OCR response files
  slipsense patterns [flags] <list|show|save|delete> Manage the pattern library
  slipsense version                                  Print version
  slipsense help                                     Show this help`)
}
