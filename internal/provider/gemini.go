package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/nodelearn/nodelearn/internal/models"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiTemperature keeps suggestions focused rather than creative.
const geminiTemperature = float32(0.3)

// Gemini suggests related topics via the Google Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	breaker breaker
}

// NewGemini creates a Gemini provider. An empty model selects the default.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Suggest returns ranked candidates for the request topic.
func (g *Gemini) Suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
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

func (g *Gemini) suggest(ctx context.Context, req models.SuggestionRequest) ([]models.Candidate, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(buildPrompt(req)),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(geminiTemperature),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generate: %v", models.ErrSuggestionProvider, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: gemini returned no content", models.ErrSuggestionProvider)
	}

	return parseCandidates(text)
}
