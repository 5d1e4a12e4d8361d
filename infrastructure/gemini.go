package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"resume-screener/domain"
)

// GeminiGenerator calls the Gemini API. The process key gets one cached client;
// keys supplied per request get a short-lived client sharing the same transport.
type GeminiGenerator struct {
	model      string
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiGenerator(model, baseURL string, httpClient *http.Client) *GeminiGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiGenerator{
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		clients:    make(map[string]*genai.Client),
	}
}

func (g *GeminiGenerator) Name() string { return ProviderGemini }

func (g *GeminiGenerator) RequiresAPIKey() bool { return true }

func (g *GeminiGenerator) client(ctx context.Context, apiKey string, cache bool) (*genai.Client, error) {
	if cache {
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.clients[apiKey]; ok {
			return c, nil
		}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if cache {
		g.clients[apiKey] = c
	}
	return c, nil
}

// WithDefaultKey pre-builds the cached client for the process key.
func (g *GeminiGenerator) WithDefaultKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	_, err := g.client(ctx, apiKey, true)
	return err
}

func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if req.APIKey == "" {
		return "", errors.New("gemini api key is empty")
	}

	g.mu.Lock()
	_, cached := g.clients[req.APIKey]
	g.mu.Unlock()

	client, err := g.client(ctx, req.APIKey, cached)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	// An empty answer is still an answer; the scorer turns it into the fallback verdict.
	return strings.TrimSpace(resp.Text()), nil
}
