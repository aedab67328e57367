package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Turn es un mensaje con rol dentro de la conversación enviada al modelo.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options controla la generación; los campos en cero usan los defaults del cliente.
type Options struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	TopP         float64
}

// Completion es el resultado tipado de una invocación exitosa.
type Completion struct {
	Content      string
	StopReason   string
	StopSequence string
	Model        string
}

// Client define la interfaz para generar completions con un LLM.
type Client interface {
	Complete(ctx context.Context, turns []Turn, opts Options) (Completion, error)
}

var ErrEmptyCompletion = errors.New("llm empty completion")

// APIError representa un error estructurado devuelto por el proveedor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error: status=%d message=%s", e.Status, e.Message)
}

// HTTPClient implementa Client contra un endpoint estilo Bedrock que habla
// el formato de prompt de Claude.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	topP        float64
	client      *http.Client
	logger      *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando al endpoint de invocación.
func NewHTTPClient(baseURL, apiKey, model string, temperature float64, maxTokens int, topP float64, logger *zap.Logger) *HTTPClient {
	if temperature <= 0 {
		temperature = 0.7
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if topP <= 0 {
		topP = 0.95
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		topP:        topP,
		client:      &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
	}
}

func (c *HTTPClient) Complete(ctx context.Context, turns []Turn, opts Options) (Completion, error) {
	reqBody := invokeRequest{
		Prompt:           buildPrompt(turns, opts.SystemPrompt),
		MaxTokens:        c.maxTokens,
		Temperature:      c.temperature,
		TopP:             c.topP,
		StopSequences:    []string{"\n\nHuman:", "\n\nAssistant:"},
		AnthropicVersion: "bedrock-2023-05-31",
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = opts.Temperature
	}
	if opts.TopP > 0 {
		reqBody.TopP = opts.TopP
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/invoke", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Completion{}, fmt.Errorf("create request: %w", err)
	}
	// TODO: firmar la request con SigV4; por ahora solo una API key plana.
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("read response: %w", err)
	}

	var ir invokeResponse
	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("llm error response",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, &ir) == nil && ir.Error != nil {
			apiErr.Message = ir.Error.Message
		}
		return Completion{}, apiErr
	}

	if err := json.Unmarshal(respBody, &ir); err != nil {
		return Completion{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if ir.Error != nil {
		return Completion{}, &APIError{Status: resp.StatusCode, Message: ir.Error.Message}
	}
	if ir.Completion == "" {
		return Completion{}, ErrEmptyCompletion
	}

	return Completion{
		Content:      strings.TrimSpace(ir.Completion),
		StopReason:   ir.StopReason,
		StopSequence: ir.Stop,
		Model:        c.model,
	}, nil
}

// buildPrompt arma el prompt estilo Claude: turnos Human/Assistant y el
// system prompt plegado como intercambio inicial.
func buildPrompt(turns []Turn, systemPrompt string) string {
	var sb strings.Builder

	if systemPrompt != "" {
		sb.WriteString(fmt.Sprintf("\n\nHuman: %s\n\nAssistant: Entendido, seguiré esas instrucciones.", systemPrompt))
	}

	for _, t := range turns {
		role := "Human"
		if t.Role == "assistant" {
			role = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("\n\n%s: %s", role, t.Content))
	}

	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

type invokeRequest struct {
	Prompt           string   `json:"prompt"`
	MaxTokens        int      `json:"max_tokens"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	StopSequences    []string `json:"stop_sequences"`
	AnthropicVersion string   `json:"anthropic_version"`
}

type invokeResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
	Stop       string `json:"stop,omitempty"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
