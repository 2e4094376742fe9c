package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zombor/pantry-tracker/internal/analysis"
	"github.com/zombor/pantry-tracker/internal/pantry"
	"github.com/zombor/pantry-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type config struct {
	ocr          string
	extractor    string
	llm          string
	geminiKey    string
	geminiModel  string
	ollamaURL    string
	ollamaModel  string
	ollamaText   string
	tesseractBin string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("pantry-tracker")
	var (
		port         = fs.IntLong("port", 3002, "HTTP server port")
		dbPath       = fs.StringLong("db", "pantry-tracker.db", "Database file path")
		store        = fs.StringLong("store", "bolt", "Storage engine: 'bolt' or 'sqlite'")
		ocr          = fs.StringLong("ocr", "gemini", "OCR backend: 'gemini', 'ollama', 'tesseract' or 'mock'")
		extractor    = fs.StringLong("extractor", "llm", "Receipt line item extractor: 'llm' or 'local'")
		llm          = fs.StringLong("llm", "gemini", "Text model for the llm extractor: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama vision model used for OCR")
		ollamaText   = fs.StringLong("ollama-text-model", "llama3.1", "Ollama text model used for line item extraction")
		tesseractBin = fs.StringLong("tesseract-bin", "tesseract", "Path to the tesseract binary")
		rateLimit    = fs.Float64Long("rate-limit", 2, "Image analysis requests per second (0 disables)")
		rateBurst    = fs.IntLong("rate-burst", 5, "Image analysis burst size")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PANTRY_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Get Gemini API key from flag or environment
	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
	}

	// Initialize database
	slog.Info("Initializing database...", "store", *store, "path", *dbPath)
	db, err := openDB(*store, *dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := pantry.Seed(db); err != nil {
		slog.Error("Failed to seed database", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := analysis.NewMetrics(registry)

	// Initialize analysis backend
	backend, closers, err := newBackend(config{
		ocr:          *ocr,
		extractor:    *extractor,
		llm:          *llm,
		geminiKey:    apiKey,
		geminiModel:  *geminiModel,
		ollamaURL:    *ollamaURL,
		ollamaModel:  *ollamaModel,
		ollamaText:   *ollamaText,
		tesseractBin: *tesseractBin,
	}, db, metrics)
	if err != nil {
		slog.Error("Failed to initialize analysis backend", "error", err)
		os.Exit(1)
	}
	for _, c := range closers {
		defer c()
	}

	// Initialize service
	pantryService := pantry.NewService(db, backend)

	// Initialize server
	server := pantry.NewServer(pantryService, pantry.Options{
		BasicAuth: pantry.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		},
		AnalyzeRate:  *rateLimit,
		AnalyzeBurst: *rateBurst,
		Gatherer:     registry,
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func openDB(store, path string) (pantry.DB, error) {
	switch store {
	case "bolt":
		return pantry.NewBoltDB(path)
	case "sqlite":
		return pantry.NewSQLiteDB(path)
	default:
		return nil, fmt.Errorf("invalid store %q (valid: bolt or sqlite)", store)
	}
}

// newBackend builds the analysis backend chosen by cfg. The returned funcs
// release collaborator clients and must run on shutdown.
func newBackend(cfg config, products analysis.ProductFinder, metrics *analysis.Metrics) (analysis.Backend, []func(), error) {
	if cfg.ocr == "mock" {
		slog.Info("Using mock analysis backend")
		return analysis.NewMockBackend(metrics), nil, nil
	}
	if cfg.ocr == "gemini" && cfg.geminiKey == "" {
		slog.Warn("No Gemini API key configured, falling back to mock analysis")
		return analysis.NewMockBackend(metrics), nil, nil
	}

	var (
		closers []func()
		gemini  *scanning.Gemini
		ollama  *scanning.Ollama
	)
	geminiClient := func() (*scanning.Gemini, error) {
		if gemini != nil {
			return gemini, nil
		}
		slog.Info("Initializing Gemini...", "model", cfg.geminiModel)
		g, err := scanning.NewGemini(cfg.geminiKey, cfg.geminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		gemini = g
		closers = append(closers, func() { g.Close() })
		return g, nil
	}
	ollamaClient := func() *scanning.Ollama {
		if ollama == nil {
			slog.Info("Initializing Ollama...", "url", cfg.ollamaURL, "model", cfg.ollamaModel, "text_model", cfg.ollamaText)
			ollama = scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel, cfg.ollamaText)
		}
		return ollama
	}

	var detector scanning.Scanner
	switch cfg.ocr {
	case "gemini":
		g, err := geminiClient()
		if err != nil {
			return nil, closers, err
		}
		detector = g
	case "ollama":
		detector = ollamaClient()
	case "tesseract":
		slog.Info("Using tesseract OCR", "bin", cfg.tesseractBin)
		detector = scanning.NewTesseract(cfg.tesseractBin)
	default:
		return nil, closers, fmt.Errorf("invalid ocr backend %q (valid: gemini, ollama, tesseract or mock)", cfg.ocr)
	}

	var generator scanning.Generator
	if analysis.ExtractorMode(cfg.extractor) == analysis.ExtractorLLM {
		switch cfg.llm {
		case "gemini":
			g, err := geminiClient()
			if err != nil {
				return nil, closers, err
			}
			generator = g
		case "ollama":
			generator = ollamaClient()
		default:
			return nil, closers, fmt.Errorf("invalid llm %q (valid: gemini or ollama)", cfg.llm)
		}
	}

	extractor, err := analysis.NewExtractor(analysis.ExtractorMode(cfg.extractor), generator)
	if err != nil {
		return nil, closers, err
	}
	slog.Info("Analysis backend ready", "ocr", cfg.ocr, "extractor", cfg.extractor)

	pipeline := analysis.NewPipeline(extractor, products, metrics)
	return analysis.NewVisionBackend(detector, pipeline, metrics), closers, nil
}
