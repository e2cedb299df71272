package llm

import (
	"context"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
)

// Credentials holds the provider keys. Form input wins over the server
// defaults.
type Credentials struct {
	OpenAIKey     string
	GeminiKey     string
	OpenAIBaseURL string
}

// CredentialsFromEnv reads OPENAI_API_KEY, GEMINI_API_KEY and OPENAI_BASE_URL.
func CredentialsFromEnv() Credentials {
	return Credentials{
		OpenAIKey:     env.GetEnv("OPENAI_API_KEY", ""),
		GeminiKey:     env.GetEnv("GEMINI_API_KEY", ""),
		OpenAIBaseURL: env.GetEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
	}
}

// KeyFor returns the server-side key for the provider of model.
func (c Credentials) KeyFor(model string) string {
	if IsGemini(model) {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

// Factory builds a Generator for one call.
type Factory func(ctx context.Context, model, apiKey string) (Generator, error)

// NewFactory returns a Factory that picks the provider by model id: gemini-*
// goes to Gemini, everything else to the OpenAI compatible endpoint.
func NewFactory(creds Credentials) Factory {
	return func(ctx context.Context, model, apiKey string) (Generator, error) {
		if IsGemini(model) {
			return NewGeminiClient(ctx, apiKey)
		}
		return NewOpenAIClient(apiKey, creds.OpenAIBaseURL), nil
	}
}
