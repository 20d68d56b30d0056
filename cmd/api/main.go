package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lumora-ai/leadflow/cmd/mainconfig"
	"github.com/lumora-ai/leadflow/internal/activity"
	"github.com/lumora-ai/leadflow/internal/api/router"
	appconfig "github.com/lumora-ai/leadflow/internal/config"
	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/http/handlers"
	"github.com/lumora-ai/leadflow/internal/leads"
	"github.com/lumora-ai/leadflow/internal/messaging"
	"github.com/lumora-ai/leadflow/internal/notify"
	"github.com/lumora-ai/leadflow/internal/observability/metrics"
	"github.com/lumora-ai/leadflow/internal/reminders"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadflow API server", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	tenantStore := tenants.NewStore(pool)
	leadsRepo := leads.NewPostgresRepository(pool)
	conversationStore := conversation.NewStore(pool)
	jobStore := reminders.NewJobStore(pool)

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	transcripts := conversation.NewTranscriptStore(redis.NewClient(redisOpts))

	extractor, err := conversation.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini extractor", "error", err)
		os.Exit(1)
	}

	messengers := messaging.NewProvider(tenantStore, cfg.WhatsAppBaseURL, logger)
	notifier := notify.NewService(notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger), tenantStore, logger)
	activityLog := activity.NewService(pool, notifier, logger)

	scheduler := reminders.NewScheduler(jobStore, reminders.Delays{
		Reminder1:           cfg.Reminder1Delay,
		Reminder2:           cfg.Reminder2Delay,
		UnresponsiveTimeout: cfg.UnresponsiveTimeout,
	}, logger)

	conversationService := conversation.NewService(
		conversationStore, leadsRepo, tenantStore, extractor, messengers, logger,
		conversation.WithTranscriptStore(transcripts),
		conversation.WithReminderPlanner(scheduler),
		conversation.WithActivityPublisher(activityLog),
		conversation.WithMetrics(pipelineMetrics),
	)

	var publisher *conversation.Publisher
	if cfg.UseMemoryQueue {
		// Development mode: the in-memory queue is process-local, so the
		// consumer has to live in this process too.
		memQueue := conversation.NewMemoryQueue(256)
		publisher = conversation.NewPublisher(memQueue, logger)
		worker := conversation.NewWorker(conversationService, memQueue, logger,
			conversation.WithWorkerCount(cfg.WorkerCount))
		worker.Start(ctx)
		logger.Info("using in-memory message queue")
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.MessageQueueURL)
		publisher = conversation.NewPublisher(queue, logger)
	}

	webhookHandler := handlers.NewWhatsAppWebhookHandler(publisher, tenantStore, cfg.WhatsAppVerifyToken, logger)
	leadsHandler := handlers.NewLeadsHandler(leadsRepo, conversationService, logger)
	adminConversations := handlers.NewAdminConversationsHandler(conversationStore, transcripts, logger)

	r := router.New(&router.Config{
		Logger:               logger,
		LeadsHandler:         leadsHandler,
		WebhookHandler:       webhookHandler,
		AdminConversations:   adminConversations,
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		WebhookRatePerSecond: 20,
		WebhookBurst:         40,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
