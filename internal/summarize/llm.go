package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/observability"
)

// Provider specifies which LLM backend to use.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderCustom Provider = "custom"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMClient communicates with an LLM over its HTTP JSON API.
type LLMClient struct {
	cfg     config.SummarizeConfig
	client  *http.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewLLMClient creates a new LLM client. metrics may be nil.
func NewLLMClient(cfg config.SummarizeConfig, metrics *observability.Metrics, logger *slog.Logger) *LLMClient {
	return &LLMClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  logger.With("component", "llm_client"),
	}
}

// Generate sends a prompt to the LLM and returns the response.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		out string
		err error
	)
	switch Provider(c.cfg.Provider) {
	case ProviderOllama:
		out, err = c.generateOllama(ctx, prompt)
	case ProviderOpenAI:
		out, err = c.generateOpenAI(ctx, prompt)
	case ProviderCustom:
		out, err = c.generateCustom(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}

	c.metrics.LLMCall(c.cfg.Provider, err)
	if err != nil {
		c.logger.Warn("llm call failed", "provider", c.cfg.Provider, "model", c.cfg.Model, "error", err)
		return "", err
	}
	c.logger.Debug("llm call", "provider", c.cfg.Provider, "prompt_chars", len(prompt), "output_chars", len(out))
	return out, nil
}

func (c *LLMClient) generateOllama(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.MaxTokens,
		},
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, strings.TrimRight(c.cfg.Endpoint, "/")+"/api/generate", payload, &result); err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	return result.Response, nil
}

func (c *LLMClient) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
	}

	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, strings.TrimRight(endpoint, "/")+"/chat/completions", payload, &result); err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}

func (c *LLMClient) generateCustom(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"prompt": prompt,
		"model":  c.cfg.Model,
	}

	resp, err := c.post(ctx, c.cfg.Endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("custom llm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(respBody), nil
}

func (c *LLMClient) postJSON(ctx context.Context, endpoint string, payload, out any) error {
	resp, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *LLMClient) post(ctx context.Context, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
