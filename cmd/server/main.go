package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bioledger/internal/api"
	"bioledger/internal/auth"
	"bioledger/internal/config"
	"bioledger/internal/events"
	eventskafka "bioledger/internal/events/kafka"
	"bioledger/internal/ledger"
	"bioledger/internal/matcher"
	"bioledger/internal/processor"
	"bioledger/internal/repository"
	"bioledger/internal/repository/memory"
	"bioledger/internal/repository/postgres"
	"bioledger/pkg/crypto"
	"bioledger/pkg/metrics"

	"github.com/joho/godotenv"
)

const appName = "bioledger"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger()
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("addr", cfg.HTTPAddr))

	templates, accounts, entries, err := setupStores(cfg, logger)
	if err != nil {
		logger.Error("Store setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	similarity, err := similarityFor(cfg.DistanceFunc)
	if err != nil {
		logger.Error("Matcher setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.TokenSecret, logger)
	m := matcher.New(templates, similarity, cfg.MatchThreshold, cfg.AmbiguityMargin, logger)
	authenticator := auth.NewAuthenticator(m, signer, cfg.SessionTTL, cfg.SingleUseSessions, logger)
	ledgerService := ledger.New(accounts, entries, cfg.MaxTxAmount, cfg.RecordFailures, logger)
	publisher := setupPublisher(cfg, logger)
	txProcessor := processor.NewTransactionProcessor(authenticator, ledgerService, accounts, templates, publisher, logger)
	apiHandler := api.NewAPIHandler(txProcessor, authenticator, metricsCollector, logger)

	metricsServer := metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.HTTPAddr, apiHandler, logger)

	waitForShutdown(logger, httpServer, metricsServer)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func setupStores(cfg *config.Config, logger *slog.Logger) (repository.TemplateRepository, repository.AccountRepository, repository.LedgerRepository, error) {
	if cfg.PostgresDSN == "" {
		logger.Info("Using in-memory stores")
		accounts := memory.NewAccountRepository()
		return memory.NewTemplateRepository(), accounts, memory.NewLedgerRepository(accounts), nil
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Using postgres stores")
	return postgres.NewTemplateRepository(db), postgres.NewAccountRepository(db), postgres.NewLedgerRepository(db), nil
}

func similarityFor(name string) (matcher.SimilarityFunc, error) {
	switch name {
	case "hamming":
		return matcher.HammingSimilarity, nil
	case "euclidean":
		return matcher.EuclideanSimilarity, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", name)
	}
}

func setupPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.KafkaBrokers == "" {
		logger.Info("Event publishing disabled")
		return events.NoopPublisher{}
	}
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	logger.Info("Publishing events to kafka", slog.Int("brokers", len(brokers)))
	return eventskafka.NewPublisher(brokers, "transaction_completed")
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(logger *slog.Logger, httpServer, metricsServer *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
