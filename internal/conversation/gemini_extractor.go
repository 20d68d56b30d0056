package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const extractorSystemPrompt = `You extract lead qualification fields from a customer's WhatsApp message.
Reply with a single JSON object and nothing else:
{"name": string or null, "need": string or null, "contact_preference": string or null, "confidence": "high"|"medium"|"low"}
- "name": the customer's own name, only if they stated it.
- "need": what service or outcome they are looking for.
- "contact_preference": how they prefer to be contacted (e.g. "whatsapp", "email", "call", a time window).
- Use null for anything the message does not state. Never guess.
- "confidence" grades how certain you are about the fields you did fill.`

// GeminiExtractor implements Extractor using Google's Gemini API.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
}

// NewGeminiExtractor creates a Gemini-backed slot extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, modelID string) (*GeminiExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}

	return &GeminiExtractor{client: client, modelID: modelID}, nil
}

var _ Extractor = (*GeminiExtractor)(nil)

// Extract sends the message plus recent transcript context to Gemini and
// parses the slot JSON. Transport errors are returned to the caller (which
// degrades and moves on); malformed model output never errors.
func (e *GeminiExtractor) Extract(ctx context.Context, message string, prior []TranscriptMessage, current State) (LeadInfo, error) {
	model := e.client.GenerativeModel(e.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(extractorSystemPrompt))

	cs := model.StartChat()
	for _, msg := range prior {
		content := strings.TrimSpace(msg.Body)
		if content == "" {
			continue
		}
		role := "user"
		if msg.Role == TranscriptRoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	prompt := fmt.Sprintf("Conversation state: %s\nCustomer message: %s", current, message)
	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return DegradedExtraction(), fmt.Errorf("conversation: gemini extraction failed: %w", err)
	}

	return ParseExtraction(collectText(resp)), nil
}

// Close releases the underlying API client.
func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
