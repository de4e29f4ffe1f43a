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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	chatinfra "github.com/jakerains/Rivertown-v2-aws/internal/chat/infra"
	chatservice "github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	"github.com/jakerains/Rivertown-v2-aws/internal/config"
	"github.com/jakerains/Rivertown-v2-aws/internal/handler"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/bedrock"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/bland"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/dynamo"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/resilience"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/secrets"
)

func main() {
	verify := flag.Bool("verify", false, "verify connectivity to the model, knowledge base and order store, then exit")
	flag.Parse()

	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("region", cfg.Region),
		zap.String("model_id", cfg.ModelID),
		zap.String("customers_table", cfg.CustomersTable),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "rivertown-chat")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- AWS + secret bundle ---
	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}

	secretsMgr := secrets.NewManager(awsCfg, logger)
	bundle, err := secretsMgr.FetchBundle(ctx, cfg.SecretName)
	if err != nil {
		// Not fatal by itself: every required field can also come from the
		// environment. Missing fields fail below at client construction.
		logger.Warn("could not fetch secret bundle, relying on environment",
			zap.String("secret", cfg.SecretName),
			zap.Error(err))
	} else {
		cfg.ApplySecretBundle(bundle)
	}

	// --- Resilience ---
	bedrockCB := resilience.NewCircuitBreaker("bedrock")
	blandCB := resilience.NewCircuitBreaker("bland")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	modelClient, err := bedrock.NewModelClient(awsCfg, cfg.ModelID, bedrockCB, metrics, logger)
	if err != nil {
		logger.Fatal("failed to init model client", zap.Error(err))
	}
	kbClient, err := bedrock.NewKnowledgeBaseClient(awsCfg, cfg.KBID, cfg.ModelARN, logger)
	if err != nil {
		logger.Fatal("failed to init knowledge base client", zap.Error(err))
	}
	orderStore, err := dynamo.NewOrderStore(awsCfg, cfg.CustomersTable, logger)
	if err != nil {
		logger.Fatal("failed to init order store", zap.Error(err))
	}
	callClient, err := bland.NewCallClient(httpClient, cfg.BlandBaseURL, cfg.BlandAPIKey, blandCB, metrics, logger)
	if err != nil {
		logger.Fatal("failed to init call client", zap.Error(err))
	}

	// --- Services ---
	chatSvc := chatservice.NewChatService(modelClient, kbClient, orderStore, callClient, metrics, logger)
	sessions := chatinfra.NewSessionStore(cfg.SessionTTL, metrics, logger)

	if *verify {
		if err := chatSvc.Verify(ctx); err != nil {
			logger.Fatal("verification failed", zap.Error(err))
		}
		logger.Info("all connectivity checks passed")
		os.Exit(0)
	}

	// --- Router ---
	router := handler.NewRouter(chatSvc, sessions, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
