// Package insights asks a chat-completions model for short saving tips.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"cuentas/internal/core"
	"cuentas/internal/log"
	"cuentas/internal/metrics"
)

// Fallback is returned whenever no insight could be generated.
const Fallback = "Unable to generate insights at this time."

// SampleSize is how many recent records per utility go into the prompt.
const SampleSize = 6

type Config struct {
	// BaseURL of an OpenAI-compatible API, without the /v1 suffix; empty disables the client.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	api    *openai.Client
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:    cfg,
		api:    openai.NewClientWithConfig(oc),
		logger: logger.WithComponent(log.ComponentInsights),
	}
}

// Enabled reports whether a model endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.BaseURL != "" }

// Generate returns three tips in Spanish, or Fallback. It never returns an error.
func (c *Client) Generate(ctx context.Context, water []core.WaterRecord, elec []core.ElectricityRecord, inet []core.InternetRecord) string {
	if !c.Enabled() {
		metrics.InsightsRequests.WithLabelValues("disabled").Inc()
		return Fallback
	}
	text, err := c.complete(ctx, BuildPrompt(water, elec, inet))
	if err != nil {
		metrics.InsightsRequests.WithLabelValues("fallback").Inc()
		c.logger.ErrorContext(ctx, "Error generating insights", "error", err)
		return Fallback
	}
	metrics.InsightsRequests.WithLabelValues("ok").Inc()
	return text
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
		MaxTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

// BuildPrompt serializes the most recent records of each utility into the request.
func BuildPrompt(water []core.WaterRecord, elec []core.ElectricityRecord, inet []core.InternetRecord) string {
	var b strings.Builder
	b.WriteString("Analiza los siguientes datos de gastos y proporciona 3 ideas o consejos breves y prácticos.\n")
	b.WriteString("Enfócate en tendencias, anomalías o posibles ahorros.\n")
	b.WriteString("Mantén un tono útil y alentador.\n")
	b.WriteString("Responde SIEMPRE en Español.\n\n")
	fmt.Fprintf(&b, "Datos de Agua: %s\n", sample(water))
	fmt.Fprintf(&b, "Datos de Electricidad: %s\n", sample(elec))
	fmt.Fprintf(&b, "Datos de Internet: %s\n\n", sample(inet))
	b.WriteString("Formatea la salida como una lista simple de 3 puntos.\n")
	return b.String()
}

func sample[R core.Record](records []R) string {
	if len(records) == 0 {
		return "[]"
	}
	data, err := json.Marshal(core.Last(records, SampleSize))
	if err != nil {
		return "[]"
	}
	return string(data)
}
