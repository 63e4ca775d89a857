package plangen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/PlanForgeHQ/PlanForge/internal/pkg/env"
)

const defaultGenerationBaseURL = "https://api.openai.com"

// Usage captures what one generation call cost.
type Usage struct {
	Model        string
	TokensIn     int
	TokensOut    int
	CostEstimate float64
	Duration     time.Duration
}

// Client calls the external structured-output generation API. It is
// stateless; one instance is shared across fulfillment runs.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int

	costPer1kIn  float64
	costPer1kOut float64
}

func NewClientFromEnv() (*Client, error) {
	apiKey := strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", ""))
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimRight(env.GetEnv("OPENAI_BASE_URL", defaultGenerationBaseURL), "/")
	model := strings.TrimSpace(env.GetEnv("OPENAI_MODEL", "gpt-4o"))

	timeoutSec := 120
	if v := env.GetEnv("GENERATION_TIMEOUT_SECONDS", ""); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxRetries := 2
	if v := env.GetEnv("GENERATION_MAX_RETRIES", ""); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		model:        model,
		httpClient:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:   maxRetries,
		costPer1kIn:  parseFloatEnv("GENERATION_COST_PER_1K_IN", 0.0025),
		costPer1kOut: parseFloatEnv("GENERATION_COST_PER_1K_OUT", 0.01),
	}, nil
}

func parseFloatEnv(key string, def float64) float64 {
	if v := strings.TrimSpace(env.GetEnv(key, "")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return def
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("generation http %d: %s", e.StatusCode, e.Body)
}

type responsesRequest struct {
	Model string `json:"model"`
	Input []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"input"`
	Temperature float64 `json:"temperature"`
	Text        struct {
		Format map[string]any `json:"format"`
	} `json:"text"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Refusal string `json:"refusal"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Client) doOnce(ctx context.Context, path string, body any, out any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("generation decode error: %w; raw=%s", err, string(raw))
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := c.doOnce(ctx, path, body, out)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := retryAfterDuration(resp, backoff, 10*time.Second)
		log.Warnf("[PlanGen] request retrying (attempt %d/%d, sleep %s): %v", attempt+1, c.maxRetries, sleepFor, err)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return errors.New("unreachable retry loop")
}

func extractOutputText(resp responsesResponse) string {
	var sb strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				sb.WriteString(content.Text)
			}
		}
	}
	return sb.String()
}
