package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("leadflow.internal.messaging.whatsapp_send")

const defaultWhatsAppBaseURL = "https://graph.facebook.com/v19.0"

// WhatsAppSender posts text messages through the WhatsApp Cloud API using
// one tenant's phone number ID and access token.
type WhatsAppSender struct {
	baseURL     string
	phoneID     string
	accessToken string
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API. baseURL may
// be empty; it exists so tests and sandboxes can point at a local server.
func NewWhatsAppSender(baseURL, phoneID, accessToken string, logger *logging.Logger) *WhatsAppSender {
	if baseURL == "" {
		baseURL = defaultWhatsAppBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppSender{
		baseURL:     strings.TrimRight(baseURL, "/"),
		phoneID:     phoneID,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ conversation.TextSender = (*WhatsAppSender)(nil)

// SendText dispatches one text message, retrying transient failures.
func (s *WhatsAppSender) SendText(ctx context.Context, to, body string) error {
	if s.accessToken == "" {
		return errors.New("messaging: whatsapp access token missing")
	}
	if s.phoneID == "" {
		return errors.New("messaging: whatsapp phone number id missing")
	}
	if to == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("leadflow.to", to),
		attribute.String("leadflow.phone_id", s.phoneID),
	)

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("whatsapp message sent", "to", to, "phone_id", s.phoneID)
				return nil
			}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				// Client errors will not heal on retry.
				err := fmt.Errorf("messaging: whatsapp send rejected: status %d, body: %s", resp.StatusCode, respBody)
				span.RecordError(err)
				s.logger.Error("whatsapp send rejected", "error", err, "to", to)
				return err
			}
			lastErr = fmt.Errorf("messaging: whatsapp send failed: status %d", resp.StatusCode)
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		s.logger.Error("failed to send whatsapp message", "error", lastErr, "to", to)
	}
	return lastErr
}
