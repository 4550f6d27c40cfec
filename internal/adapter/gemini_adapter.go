package adapter

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// EnvGoogleAPIKey is the environment variable holding the Gemini API key.
const EnvGoogleAPIKey = "GOOGLE_API_KEY"

// GeminiAdapter implements ContentProvider for the Google Gemini API.
type GeminiAdapter struct {
	client *genai.Client
}

// NewGeminiAdapter creates a new GeminiAdapter with the given API key.
// No request is sent; the context only scopes client construction.
func NewGeminiAdapter(ctx context.Context, apiKey string, opts ...Option) (*GeminiAdapter, error) {
	o := newClientOptions(opts)

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiAdapter{client: client}, nil
}

// NewGeminiAdapterFromEnv reads the API key from GOOGLE_API_KEY.
func NewGeminiAdapterFromEnv(ctx context.Context, opts ...Option) (*GeminiAdapter, error) {
	return NewGeminiAdapter(ctx, os.Getenv(EnvGoogleAPIKey), opts...)
}

// Name returns the provider identifier.
func (g *GeminiAdapter) Name() string {
	return "gemini"
}

// GenerateContent performs a generateContent call for a single text prompt.
func (g *GeminiAdapter) GenerateContent(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), generationConfig(req))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}

	return fromGenaiResponse(resp), nil
}

// generationConfig maps the temperature and output limit of a request.
func generationConfig(req GenerateRequest) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
}

// fromGenaiResponse reads text and usage metadata.
func fromGenaiResponse(resp *genai.GenerateContentResponse) GenerateResponse {
	out := GenerateResponse{}
	if resp == nil {
		return out
	}

	out.Text = resp.Text()
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CandidatesTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out
}
