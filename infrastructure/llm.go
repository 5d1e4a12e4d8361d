package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"resume-screener/domain"
)

// NewGenerator builds the scoring model client selected by LLM_PROVIDER.
// The returned close func releases provider resources and is never nil.
func NewGenerator(ctx context.Context, cfg Config) (domain.Generator, func() error, error) {
	noop := func() error { return nil }
	httpClient := &http.Client{}

	switch cfg.LLMProvider {
	case ProviderGemini:
		g := NewGeminiGenerator(cfg.LLMModel, cfg.LLMBaseURL, httpClient)
		if err := g.WithDefaultKey(ctx, cfg.LLMAPIKey); err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.LLMModel, cfg.LLMBaseURL, httpClient), noop, nil
	case ProviderVertex:
		v, err := NewVertexGenerator(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.LLMModel)
		if err != nil {
			return nil, noop, err
		}
		return v, v.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown LLM_PROVIDER %q", domain.ErrConfiguration, cfg.LLMProvider)
	}
}
