package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"

	"github.com/guardianai/sentinel/internal/api/handlers"
	"github.com/guardianai/sentinel/internal/api/middleware"
	"github.com/guardianai/sentinel/internal/assistant"
	"github.com/guardianai/sentinel/internal/audit"
	"github.com/guardianai/sentinel/internal/ledger"
	"github.com/guardianai/sentinel/internal/logger"
	"github.com/guardianai/sentinel/internal/monitor"
	"github.com/guardianai/sentinel/internal/scoring"
)

func main() {
	// Parse command-line flags
	var (
		port           = flag.String("port", "8080", "HTTP server port")
		scoringURL     = flag.String("scoring-url", envOr("SCORING_URL", "http://127.0.0.1:5000"), "Base URL of the risk-scoring bridge (or set SCORING_URL env)")
		scoringTimeout = flag.Duration("scoring-timeout", 8*time.Second, "Timeout for each scoring call")
		interval       = flag.Duration("interval", 10*time.Second, "Real-time interval between monitoring ticks")
		stepDays       = flag.Int("step-days", 15, "Simulated calendar days advanced per tick")
		startDate      = flag.String("start-date", "2025-01-11", "Simulated calendar date at session start (YYYY-MM-DD)")
		endDate        = flag.String("end-date", "2026-01-11", "Terminal simulated date; the driver goes inert past it (YYYY-MM-DD)")
		scenariosPath  = flag.String("scenarios", "", "Optional YAML file overriding the built-in scenario cycle")
		seedPath       = flag.String("seed", "", "Optional YAML file overriding the built-in seed ledger")
		model          = flag.String("model", assistant.DefaultModelName, "Gemini model for the chat assistant")
		auditBucket    = flag.String("audit-bucket", os.Getenv("AUDIT_BUCKET"), "Optional GCS bucket for archiving audit receipts (or set AUDIT_BUCKET env)")
		auditCreds     = flag.String("audit-credentials", "", "Optional credentials file for the audit archive bucket")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	start, err := civil.ParseDate(*startDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -start-date")
	}
	end, err := civil.ParseDate(*endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -end-date")
	}

	// Seed the session ledger
	seed, err := ledger.DefaultSeed()
	if *seedPath != "" {
		seed, err = ledger.SeedFromFile(*seedPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed ledger")
	}

	book, err := ledger.New(seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger")
	}
	log.Info().Int("transactions", book.Len()).Msg("Session ledger seeded")

	// Scenario cycle
	scenarios := monitor.DefaultScenarios()
	if *scenariosPath != "" {
		scenarios, err = monitor.ScenariosFromFile(*scenariosPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load scenarios")
		}
	}

	// Audit receipts: archive to GCS when a bucket is configured
	var archiver audit.Archiver = audit.NopArchiver{}
	if *auditBucket != "" {
		archiver = audit.NewGCSArchiver(*auditBucket, "audit-receipts", *auditCreds)
		log.Info().Str("bucket", *auditBucket).Msg("Audit receipts will be archived to GCS")
	}
	recorder := audit.NewRecorder(archiver, logger.WithComponent(log, "audit"))

	ctx := context.Background()

	// Chat assistant: degrade to the fixed error reply when Gemini is not
	// configured rather than refusing to start.
	var chat assistant.Assistant
	gemini, err := assistant.NewGeminiAssistant(ctx, *model)
	if err != nil {
		log.Warn().Err(err).Msg("Assistant unavailable - chat will return the connection-error reply")
		chat = assistant.Disabled{}
	} else {
		chat = gemini
	}

	// Monitoring driver
	scorer := scoring.NewClient(*scoringURL, *scoringTimeout)
	driver, err := monitor.New(monitor.Config{
		Interval:       *interval,
		ScoringTimeout: *scoringTimeout,
		StartDate:      start,
		EndDate:        end,
		StepDays:       *stepDays,
		Scenarios:      scenarios,
	}, book, scorer, recorder, logger.WithComponent(log, "monitor"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create monitoring driver")
	}

	if err := driver.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start monitoring driver")
	}

	// Initialize handlers
	ledgerHandler := handlers.NewLedgerHandler(book, log)
	chatHandler := handlers.NewChatHandler(book, chat, log)
	monitorHandler := handlers.NewMonitorHandler(driver, log)
	auditHandler := handlers.NewAuditHandler(recorder, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ledgerHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ledgerHandler.ListAlerts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/remediate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ledgerHandler.Remediate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/monitor", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			monitorHandler.Status(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/monitor/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			monitorHandler.Stop(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/audit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			auditHandler.ListReceipts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting monitoring API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the driver first so no tick appends during shutdown
	driver.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Session ended")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
