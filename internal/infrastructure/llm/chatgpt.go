package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

const defaultSystemPrompt = `You describe resources referenced in an article about a police misconduct case.
For every input item return metadata shaped by its "type":
- image: {"alt": required, at most 15 words; "caption": optional, at most 25 words}
- video: {"caption": optional, at most 25 words}
- document: {"title": required, at most 8 words; "description": required, at most 30 words}
- link: {"title": optional, at most 8 words; "description": optional, at most 30 words; "icon": optional, one of %s}
Each metadata object also carries "confidence", a number between 0 and 1.
Use only facts present in the context. Reply with JSON only:
{"items": [{"url": "...", "metadata": {...}}]}`

// ChatGPTClient implements ports.MetadataExtractor backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.MetadataExtractor = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ExtractionConfig, icons []string) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: safePrompt(cfg.SystemPrompt, icons),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract sends the batch as one user message and decodes the JSON reply.
func (c *ChatGPTClient) Extract(ctx context.Context, items []ports.ExtractionItem) ([]ports.ExtractedItem, error) {
	if c == nil || c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured: %w", domain.ErrExtractorUnavailable)
	}

	payload, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("send extraction request: %v: %w", err, domain.ErrExtractorUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chatgpt error %s: %s: %w", resp.Status, strings.TrimSpace(string(msg)), domain.ErrExtractorUnavailable)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %v: %w", err, domain.ErrMalformedResponse)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion has no choices: %w", domain.ErrMalformedResponse)
	}

	return parseItems(completion.Choices[0].Message.Content)
}

func parseItems(content string) ([]ports.ExtractedItem, error) {
	if raw := ExtractJSON(content); raw != "" {
		var wrapped struct {
			Items []ports.ExtractedItem `json:"items"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Items != nil {
			return wrapped.Items, nil
		}
	}

	if raw := ExtractJSONArray(content); raw != "" {
		var items []ports.ExtractedItem
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return items, nil
		}
	}

	return nil, fmt.Errorf("reply holds no items: %q: %w", truncate(content, 200), domain.ErrMalformedResponse)
}

func safePrompt(prompt string, icons []string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Sprintf(defaultSystemPrompt, strings.Join(icons, ", "))
	}
	return prompt
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
