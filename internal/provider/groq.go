package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nodelearn/nodelearn/internal/models"
)

const (
	groqTimeout      = 30 * time.Second
	defaultGroqModel = "llama-3.3-70b-versatile"
)

// Groq suggests related topics via the Groq OpenAI-compatible chat API.
type Groq struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	breaker breaker
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// NewGroq creates a Groq provider. Empty baseURL and model select defaults.
func NewGroq(baseURL, apiKey, model string) (*Groq, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	if model == "" {
		model = defaultGroqModel
	}

	return &Groq{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: groqTimeout},
	}, nil
}

// Suggest returns ranked candidates for the request topic. It fails fast via
// the circuit breaker while the upstream is down.
func (g *Groq) Suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
	if err := g.breaker.allow(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSuggestionProvider, err)
	}

	candidates, err := g.suggest(ctx, req)
	if err != nil {
		g.breaker.recordFailure()

		return nil, err
	}

	g.breaker.recordSuccess()

	return candidates, nil
}

func (g *Groq) suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
	body, err := json.Marshal(groqRequest{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "system", Content: "You suggest related learning topics as strict JSON."},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling groq request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating groq request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: calling groq chat API: %v", models.ErrSuggestionProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("%w: groq chat API returned status %d", models.ErrSuggestionProvider, resp.StatusCode)
	}

	var result groqResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding groq response: %v", models.ErrSuggestionProvider, err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: groq returned no choices", models.ErrSuggestionProvider)
	}

	return parseCandidates(result.Choices[0].Message.Content)
}
