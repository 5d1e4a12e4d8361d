package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"resume-screener/domain"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIGenerator(model, baseURL string, httpClient *http.Client) *OpenAIGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIGenerator{model: model, baseURL: baseURL, httpClient: httpClient}
}

func (g *OpenAIGenerator) Name() string { return ProviderOpenAI }

func (g *OpenAIGenerator) RequiresAPIKey() bool { return true }

func (g *OpenAIGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if req.APIKey == "" {
		return "", errors.New("openai api key is empty")
	}

	cfg := openai.DefaultConfig(req.APIKey)
	cfg.HTTPClient = g.httpClient
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	model := req.Model
	if model == "" {
		model = g.model
	}

	// The request struct omits a zero temperature, which the API reads as 1.
	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
