package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"resume-screener/domain"
)

// VertexGenerator uses Gemini on Vertex AI with application default credentials,
// so it never needs a caller supplied key.
type VertexGenerator struct {
	client *genai.Client
	model  string
}

func NewVertexGenerator(ctx context.Context, projectID, location, model string) (*VertexGenerator, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexGenerator{client: client, model: model}, nil
}

func (v *VertexGenerator) Name() string { return ProviderVertex }

func (v *VertexGenerator) RequiresAPIKey() bool { return false }

func (v *VertexGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	name := req.Model
	if name == "" {
		name = v.model
	}

	model := v.client.GenerativeModel(name)
	model.SetTemperature(float32(req.Temperature))
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (v *VertexGenerator) Close() error {
	return v.client.Close()
}
