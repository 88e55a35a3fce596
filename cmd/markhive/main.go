package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markhive/markhive/internal/auth"
	"github.com/markhive/markhive/internal/config"
	"github.com/markhive/markhive/internal/embedder"
	"github.com/markhive/markhive/internal/enricher"
	"github.com/markhive/markhive/internal/llm"
	"github.com/markhive/markhive/internal/scraper"
	"github.com/markhive/markhive/internal/searcher"
	"github.com/markhive/markhive/internal/server"
	"github.com/markhive/markhive/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("markhive\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		fmt.Printf("Vector Extension: %v\n", storage.VectorExtensionAvailable)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.WithFields(logrus.Fields{
		"version":    version,
		"build_mode": storage.BuildMode,
		"driver":     storage.DriverName,
		"db_path":    cfg.DBPath,
	}).Info("starting markhive")

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Error("error closing storage")
		}
	}()

	emb, err := embedder.New(embedder.Config{
		Provider:   cfg.EmbeddingProvider,
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		OllamaHost: cfg.OllamaHost,
	})
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer func() { _ = emb.Close() }()

	// The assistant is optional; without an API key the pipeline just
	// skips summaries and tags.
	var assistant llm.Assistant
	if cfg.LLMAPIKey != "" {
		assistant = llm.NewChatClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	} else {
		log.Warn("LLM_API_KEY not set, summaries and categories disabled")
	}

	sc := scraper.NewHTTPScraper(cfg.ScrapeTimeout, log)
	pipeline := enricher.New(store, sc, emb, assistant, log)
	search := searcher.New(store, emb)
	verifier := auth.NewStaticVerifier(cfg.APIKeys)

	srv := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		CORSOrigins: cfg.CORSOrigins,
	}, store, pipeline, search, verifier, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("http server listening")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown error")
		}
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Info("server stopped")
}
