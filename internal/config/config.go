package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	UseMemoryQueue bool
	WorkerCount    int

	// Inbound message queue (SQS unless UseMemoryQueue is set)
	MessageQueueURL     string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis conversation transcript store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Gemini classifier
	GeminiAPIKey  string
	GeminiModelID string

	// WhatsApp Cloud API
	WhatsAppBaseURL     string
	WhatsAppVerifyToken string

	CORSAllowedOrigins []string

	// Reminder scheduling
	Reminder1Delay      time.Duration
	Reminder2Delay      time.Duration
	UnresponsiveTimeout time.Duration
	JobPollInterval     time.Duration
	JobWorkerCount      int

	// SendGrid operator notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),

		MessageQueueURL:     getEnv("MESSAGE_QUEUE_URL", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		WhatsAppBaseURL:     getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),

		Reminder1Delay:      getEnvAsDuration("REMINDER1_DELAY", 2*time.Hour),
		Reminder2Delay:      getEnvAsDuration("REMINDER2_DELAY", 24*time.Hour),
		UnresponsiveTimeout: getEnvAsDuration("UNRESPONSIVE_TIMEOUT", 24*time.Hour),
		JobPollInterval:     getEnvAsDuration("JOB_POLL_INTERVAL", 30*time.Second),
		JobWorkerCount:      getEnvAsInt("JOB_WORKER_COUNT", 5),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Lumora"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a slice.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
