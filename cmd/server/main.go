// Package main is the entry point for the Lecture Notes API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/config"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/credential"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/database"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/handlers"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/router"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/llm"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/pdf"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/worker"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/session"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/study"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 Lecture Notes API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, provider=%s, gin_mode=%s", cfg.Port, cfg.LLMProvider, cfg.GinMode)

	os.Setenv("GIN_MODE", cfg.GinMode)

	// Step 2: Credential storage (database when configured, memory otherwise)
	var (
		store    credential.Store
		dbHealth handlers.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✅ Database connected")

		if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		store = credential.SettingsStore{DB: db}
		dbHealth = db
	} else {
		log.Println("⚠️  No DATABASE_URL set; the API key is kept in memory and lost on restart")
		store = credential.NewMemoryStore()
	}

	creds := credential.NewService(store, cfg.CredentialSecret)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := creds.Load(loadCtx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	cancelLoad()

	// Step 3: Create Services
	// Every generation call goes through the worker pool.
	pool := worker.NewPool(cfg.GenerationWorkers, cfg.GenerationQueueSize, newGenerator(cfg, creds))
	pool.Start()
	defer pool.Stop()

	notesPolicy, err := study.ParseRollbackPolicy(cfg.NotesOnFailure)
	if err != nil {
		log.Fatalf("❌ NOTES_ON_FAILURE: %v", err)
	}
	questionPolicy, err := study.ParseRollbackPolicy(cfg.QuestionOnFailure)
	if err != nil {
		log.Fatalf("❌ QUESTION_ON_FAILURE: %v", err)
	}
	studyService := study.NewService(pool, &pdf.Extractor{}, study.Config{
		NotesCharBudget:   cfg.NotesCharBudget,
		ChatCharBudget:    cfg.ChatCharBudget,
		NotesOnFailure:    notesPolicy,
		QuestionOnFailure: questionPolicy,
	})

	sessions := session.NewManager(session.Options{
		MaxSessions: cfg.MaxSessions,
		IdleTTL:     cfg.SessionIdleTTL,
	})
	defer sessions.Stop()

	rateLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit)
	stopCleanup := make(chan struct{})
	go rateLimiter.RunCleanup(10*time.Minute, stopCleanup)

	if creds.Configured() {
		log.Println("✅ API key configured")
	} else {
		log.Println("⚠️  No API key yet; save one with PUT /api/v1/credential")
	}

	// Step 4: Setup HTTP Router
	h := &handlers.Handler{
		Sessions:      sessions,
		Study:         studyService,
		Credentials:   creds,
		DB:            dbHealth,
		Workers:       pool,
		Provider:      cfg.LLMProvider,
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.SessionTokenTTL,
		OwnerTokenTTL: cfg.CredentialTokenTTL,
		MaxUploadSize: cfg.MaxUploadSize,
	}
	r := router.Setup(h, rateLimiter, cfg.AllowedOrigins)

	// Step 5: Start the HTTP Server
	// WriteTimeout covers the generation call, so it must outlast LLM_TIMEOUT.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 Health check: http://localhost:%s/api/v1/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 6: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}

// newGenerator builds the configured text-generation client.
func newGenerator(cfg *config.Config, creds llm.CredentialSource) study.Generator {
	if cfg.LLMProvider == "openrouter" {
		log.Printf("🤖 Using OpenRouter (%s)", cfg.OpenRouterModel)
		return llm.NewOpenRouter(creds, llm.OpenRouterOptions{
			Model:   cfg.OpenRouterModel,
			Timeout: cfg.LLMTimeout,
		})
	}

	log.Printf("🤖 Using Gemini (%s)", cfg.GeminiModel)
	return llm.NewGemini(creds, llm.GeminiOptions{
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.LLMTimeout,
	})
}
