package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumora-ai/leadflow/internal/http/handlers"
	httpmiddleware "github.com/lumora-ai/leadflow/internal/http/middleware"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *handlers.LeadsHandler
	WebhookHandler     *handlers.WhatsAppWebhookHandler
	AdminConversations *handlers.AdminConversationsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// WebhookRatePerSecond caps inbound webhook traffic per IP; zero
	// disables limiting.
	WebhookRatePerSecond float64
	WebhookBurst         int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WebhookHandler != nil {
			public.Route("/webhooks/whatsapp", func(wh chi.Router) {
				if cfg.WebhookRatePerSecond > 0 {
					wh.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSecond, cfg.WebhookBurst))
				}
				wh.Get("/", cfg.WebhookHandler.Verify)
				wh.Post("/", cfg.WebhookHandler.HandleMessages)
			})
		}
		if cfg.LeadsHandler != nil {
			public.Post("/leads", cfg.LeadsHandler.Create)
		}
	})

	if cfg.AdminConversations != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/conversations/{conversationID}", cfg.AdminConversations.Get)
		})
	}

	return r
}
