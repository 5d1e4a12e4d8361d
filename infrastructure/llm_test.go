package infrastructure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener/domain"
)

const verdictJSON = `{"score": 85, "status": "Pass", "summary": "Solid Go background", "candidateName": "Jane Doe"}`

func TestGeminiGenerate(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": "  " + verdictJSON + "\n"}},
				},
			}},
		})
	}))
	defer srv.Close()

	g := NewGeminiGenerator("gemini-2.0-flash", srv.URL, srv.Client())
	reply, err := g.Generate(context.Background(), domain.GenerateRequest{
		Prompt:      "score this",
		APIKey:      "key-1",
		Temperature: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, verdictJSON, reply)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.0-flash:generateContent"), gotPath)
	assert.Equal(t, "key-1", gotKey)

	genCfg, ok := gotBody["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from %v", gotBody)
	assert.InDelta(t, 0.4, genCfg["temperature"], 0.001)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
}

func TestGeminiGenerateRequestModelOverrides(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{}"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGeminiGenerator("gemini-2.0-flash", srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), domain.GenerateRequest{Prompt: "p", APIKey: "k", Model: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Contains(t, gotPath, "models/gemini-1.5-pro:generateContent")
}

func TestGeminiGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	g := NewGeminiGenerator("gemini-2.0-flash", srv.URL, srv.Client())

	_, err := g.Generate(context.Background(), domain.GenerateRequest{Prompt: "p"})
	assert.Error(t, err, "missing key")

	_, err = g.Generate(context.Background(), domain.GenerateRequest{Prompt: "p", APIKey: "k"})
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": verdictJSON},
			}},
		})
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("gpt-4o-mini", srv.URL+"/v1", srv.Client())
	reply, err := g.Generate(context.Background(), domain.GenerateRequest{Prompt: "score this", APIKey: "sk-1", Temperature: 0})
	require.NoError(t, err)

	assert.Equal(t, verdictJSON, reply)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-1", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	require.Contains(t, gotBody, "temperature", "a zero temperature must still be sent")
	assert.InDelta(t, 0, gotBody["temperature"], 0.0001)
	assert.Equal(t, map[string]any{"type": "json_object"}, gotBody["response_format"])
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("gpt-4o-mini", srv.URL+"/v1", srv.Client())
	reply, err := g.Generate(context.Background(), domain.GenerateRequest{Prompt: "p", APIKey: "k"})
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestOpenAIGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("gpt-4o-mini", srv.URL+"/v1", srv.Client())
	_, err := g.Generate(context.Background(), domain.GenerateRequest{Prompt: "p", APIKey: "bad"})
	assert.Error(t, err)
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	gen, closeFn, err := NewGenerator(context.Background(), Config{LLMProvider: ProviderOpenAI, LLMModel: "gpt-4o-mini"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, ProviderOpenAI, gen.Name())
	assert.True(t, gen.RequiresAPIKey())

	gen, closeFn, err = NewGenerator(context.Background(), Config{LLMProvider: ProviderGemini, LLMModel: "gemini-2.0-flash"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, ProviderGemini, gen.Name())

	_, _, err = NewGenerator(context.Background(), Config{LLMProvider: "llama"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
