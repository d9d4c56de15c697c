package enhance

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

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o"
	azureAPIVersion       = "2024-12-01-preview"
)

// openAIProvider talks to an OpenAI-compatible chat completions endpoint.
// Azure deployments use the same wire format but a different URL scheme and
// auth header, so both share one request path.
type openAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	azure    bool
	client   *http.Client
}

func newOpenAIProvider(apiKey, model, endpoint string, timeout time.Duration) *openAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &openAIProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func newAzureProvider(apiKey, deployment, endpoint string, timeout time.Duration) (*openAIProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("azure provider requires an endpoint")
	}
	if deployment == "" {
		return nil, fmt.Errorf("azure provider requires a deployment name as the model")
	}
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(endpoint, "/"), deployment, azureAPIVersion)
	return &openAIProvider{
		apiKey:   apiKey,
		model:    deployment,
		endpoint: url,
		azure:    true,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements provider.
func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a medical education expert. Respond only with valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}
	if !p.azure {
		reqBody.Model = p.model
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.azure {
		req.Header.Set("api-key", p.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
