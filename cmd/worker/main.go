package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lumora-ai/leadflow/cmd/mainconfig"
	"github.com/lumora-ai/leadflow/internal/activity"
	appconfig "github.com/lumora-ai/leadflow/internal/config"
	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/leads"
	"github.com/lumora-ai/leadflow/internal/messaging"
	"github.com/lumora-ai/leadflow/internal/notify"
	"github.com/lumora-ai/leadflow/internal/observability/metrics"
	"github.com/lumora-ai/leadflow/internal/reminders"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// The worker binary runs the two asynchronous halves of the pipeline: the
// inbound-message consumer and the scheduled reminder executor.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadflow worker", "env", cfg.Env)

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
	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

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

	var inboundWorker *conversation.Worker
	if cfg.UseMemoryQueue {
		// The in-memory queue lives in the API process; nothing to consume
		// here.
		logger.Warn("memory queue configured, inbound consumer disabled in worker binary")
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.MessageQueueURL)
		inboundWorker = conversation.NewWorker(conversationService, queue, logger,
			conversation.WithWorkerCount(cfg.WorkerCount))
		inboundWorker.Start(ctx)
	}

	reminderHandlers := reminders.NewHandlers(conversationStore, leadsRepo, messengers, scheduler, logger,
		reminders.WithActivityPublisher(activityLog),
		reminders.WithMetrics(pipelineMetrics),
	)
	reminderWorker := reminders.NewWorker(jobStore, reminderHandlers, logger, pipelineMetrics,
		reminders.WithPollInterval(cfg.JobPollInterval),
		reminders.WithWorkerCount(cfg.JobWorkerCount),
	)
	reminderWorker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		if inboundWorker != nil {
			inboundWorker.Wait()
		}
		reminderWorker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("worker stopped")
	case <-doneCtx.Done():
		logger.Error("worker shutdown timed out", "error", doneCtx.Err())
	}
}
