package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/config"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/convert"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings/sqlite"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/metrics"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/processor"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue/inmemory"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/secrets"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	provider := secrets.EnvProvider{}
	upToken, err := provider.GetSecret(ctx, cfg.UpAPIToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve Up API token")
	}
	lmToken, err := provider.GetSecret(ctx, cfg.LunchMoneyAPIToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve Lunch Money API token")
	}
	webhookSecret, err := provider.GetSecret(ctx, cfg.WebhookSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve webhook secret")
	}

	db, err := sqlite.Open(cfg.MappingDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open mapping database")
	}
	defer db.Close()

	accountStore := sqlite.NewStore(db, sqlite.SpaceAccounts)
	categoryStore := sqlite.NewStore(db, sqlite.SpaceCategories)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	bank := upbank.NewClient(upToken)
	target := lunchmoney.NewClient(lmToken)
	converter := convert.New(accountStore, categoryStore)
	proc := processor.New(bank, target, converter, m)

	dlq := inmemory.NewQueue()
	mainQueue := inmemory.NewQueue(
		inmemory.WithDeadLetter(dlq),
		inmemory.WithMaxReceives(cfg.MaxReceives),
		inmemory.WithWorkers(cfg.WorkerCount),
		inmemory.WithCapacity(cfg.QueueBuffer),
	)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if err := mainQueue.Start(workerCtx, proc.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start event workers")
	}
	log.Info().Int("workers", cfg.WorkerCount).Msg("Event workers started")

	router := mux.NewRouter()
	router.Handle("/webhook", webhook.NewHandler(webhookSecret, mainQueue, m, log)).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/admin/redrive", func(w http.ResponseWriter, r *http.Request) {
		maxMessages := 10
		if v := r.URL.Query().Get("max"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "max must be a positive integer"})
				return
			}
			maxMessages = n
		}

		result, err := queue.Redrive(logger.WithContext(r.Context(), log), dlq, mainQueue, maxMessages)
		m.MessagesRedriven.Add(float64(result.Redriven))
		if err != nil {
			log.Error().Err(err).Msg("DLQ redrive failed")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":         err.Error(),
				"redrivenCount": result.Redriven,
				"failedCount":   result.Failed,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"redrivenCount": result.Redriven,
			"failedCount":   result.Failed,
		})
	}).Methods(http.MethodPost)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	handler := webhook.Recovery(log)(webhook.Logging(log)(router))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting webhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop drains in-flight handlers before the worker context is cancelled,
	// so a message mid-submission is not aborted by its own shutdown.
	if err := mainQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping event workers")
	}
	cancelWorkers()

	if n := dlq.Len(); n > 0 {
		log.Warn().Int("messages", n).Msg("Dead-letter queue not empty at shutdown")
	}

	log.Info().Msg("Server exited")
}
