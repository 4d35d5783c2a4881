// Package llm provides the inference adapter: an OpenAI-compatible chat
// completions client that turns a scene description into a recommendation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/screenpilot/screenpilot/domain"
)

// Client produces a recommendation for one scene.
type Client interface {
	Recommend(ctx context.Context, scene *domain.Scene, screenshotPath string, history []string) (*domain.Recommendation, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// Rate-limit (429) and server (5xx) responses are retried with
// exponential backoff and jitter; any other failure is returned.
type OpenAIClient struct {
	apiURL     string
	apiKey     string
	model      string
	maxRetries int
	maxActions int
	httpClient *http.Client

	// sleep is replaced in tests to avoid real backoff delays.
	sleep func(time.Duration)
}

// NewOpenAIClient creates a client for the given endpoint and model.
func NewOpenAIClient(apiURL, apiKey, model string, timeout time.Duration, maxRetries, maxActions int) *OpenAIClient {
	return &OpenAIClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		maxActions: maxActions,
		httpClient: &http.Client{Timeout: timeout},
		sleep:      time.Sleep,
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage content is either a plain string or a list of content
// parts for multimodal requests.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Recommend builds the prompt, calls the model and parses its reply.
func (c *OpenAIClient) Recommend(ctx context.Context, scene *domain.Scene, screenshotPath string, history []string) (*domain.Recommendation, error) {
	messages, err := buildMessages(scene, screenshotPath, history)
	if err != nil {
		return nil, err
	}

	reply, err := c.complete(ctx, chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	return ParseRecommendation(reply, c.maxActions), nil
}

func (c *OpenAIClient) complete(ctx context.Context, req chatCompletionRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	attempt := 0
	for {
		attempt++

		reply, retryable, err := c.doRequest(ctx, payload)
		if err == nil {
			return reply, nil
		}
		if !retryable || attempt > c.maxRetries {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		delay := time.Duration(1<<(attempt-1))*time.Second +
			time.Duration(rand.Int63n(int64(500*time.Millisecond)))
		c.sleep(delay)
	}
}

// doRequest performs one HTTP round trip. The second return value reports
// whether the failure is worth retrying.
func (c *OpenAIClient) doRequest(ctx context.Context, payload []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network-level failures are transient more often than not.
		return "", true, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("inference API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode inference response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("inference API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("inference response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}
