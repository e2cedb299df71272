// Package llm talks to the hosted text generation APIs.
package llm

import (
	"context"
	"strings"
)

const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 1500
	DefaultModel           = "gpt-3.5-turbo"
)

// Request is one completion call.
type Request struct {
	SystemPrompt    string
	UserPrompt      string
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

// Generator produces text for a prompt. Implementations make exactly one
// upstream call per Generate and never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Model describes a selectable model.
type Model struct {
	ID    string
	Label string
}

// Models lists the models offered in the form, default first.
var Models = []Model{
	{ID: "gpt-3.5-turbo", Label: "GPT-3.5 Turbo (fast, cheap)"},
	{ID: "gpt-4", Label: "GPT-4 (best quality)"},
	{ID: "gpt-4-turbo-preview", Label: "GPT-4 Turbo (preview)"},
	{ID: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
}

// KnownModel reports whether id is one of Models.
func KnownModel(id string) bool {
	for _, m := range Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// IsGemini reports whether id is served by the Gemini API.
func IsGemini(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gemini")
}
