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
)

const defaultChatTimeout = 60 * time.Second

// ChatClient implements Assistant against an OpenAI-compatible chat
// completions endpoint.
type ChatClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewChatClient creates an assistant backed by the chat completions
// API at baseURL.
func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultChatTimeout,
		},
	}
}

// Summarize produces a short summary of text.
func (c *ChatClient) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	prompt := fmt.Sprintf("Summarize the content in 2-3 sentences:\n\n%s", excerpt(text))

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// SuggestTags asks the model for 3-5 category tags for a page.
func (c *ChatClient) SuggestTags(ctx context.Context, title, content string) ([]string, error) {
	contentExcerpt := excerpt(content)
	if contentExcerpt == "" {
		contentExcerpt = "N/A"
	}

	prompt := fmt.Sprintf(`Analyze this website and suggest 3-5 relevant tags or categories.

Title: %s
Content excerpt: %s

Return all the tags as a comma-separated list only, nothing else.`, title, contentExcerpt)

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseTags(reply), nil
}

// complete sends a single-user-message chat completion request.
func (c *ChatClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 512,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: api error %d: %s", ErrAssistantFailed, resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrAssistantFailed)
	}

	return apiResp.Choices[0].Message.Content, nil
}
