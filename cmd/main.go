// refzone-assignment-service
//
// Referee suggestion engine for scheduled games. Exposes a REST API used by
// the Gateway to implement:
//   - generateSuggestions(gameIds, factors) — ranked, explainable suggestions
//   - listSuggestions(filters)              — paginated suggestion review
//   - acceptSuggestion(suggestionId)        — transactional assignment creation
//   - rejectSuggestion(suggestionId, reason)
//
// Publishes EVENT_SUGGESTION_* to Redis for Gateway SSE forward. A cron
// sweep removes processed suggestions past the retention window.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refzone/assignment-service/internal/config"
	"refzone/assignment-service/internal/db"
	"refzone/assignment-service/internal/metrics"
	"refzone/assignment-service/internal/scheduler"
	"refzone/assignment-service/internal/store"
	"refzone/assignment-service/internal/suggest"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[assignment-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[assignment-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[assignment-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[assignment-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[assignment-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[assignment-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[assignment-service] Redis connected ✓")

	// ── Engine wiring ────────────────────────────────────────────────────────
	logger := slog.Default()
	st := store.New(pool)

	conflicts := suggest.NewConflictChecker(st, logger)
	scorers := suggest.NewFactorScorers(st, st, logger)
	history := suggest.NewHistoricalPatternAnalyzer(st, logger)
	engine := suggest.NewEngine(conflicts, scorers, history, cfg.ScoringWorkers, cfg.SuggestionLimit, logger)
	candidates := suggest.NewCandidatePool(st, st, st)
	svc := suggest.NewService(st, candidates, engine, st, rdb, logger)

	// ── Retention sweep ──────────────────────────────────────────────────────
	sweep := scheduler.New(st, cfg.RetentionDays, cfg.SweepIntervalHours)
	if err := sweep.Start(ctx); err != nil {
		log.Fatalf("[assignment-service] Scheduler: %v", err)
	}
	defer sweep.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())

	h := suggest.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[assignment-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[assignment-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[assignment-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[assignment-service] Shutdown error: %v", err)
	}
	log.Println("[assignment-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "assignment-service",
		"version": version,
	})
}
