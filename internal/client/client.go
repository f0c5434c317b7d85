// Package client wraps the external text-generation APIs used to refine
// generated motion programs.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathforge/api/internal/config"
)

// ErrNotConfigured is returned by clients that have no API key
var ErrNotConfigured = errors.New("text generation client not configured")

// TextGenerator sends a system and user prompt and returns the model's reply
type TextGenerator interface {
	ChatCompletion(ctx context.Context, system, user string) (string, error)
	IsConfigured() bool
	Name() string
}

// NewTextGenerator builds the client for the configured refinement provider
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	model := cfg.RefinementModel()
	switch cfg.Refinement.Provider {
	case "", "groq":
		return NewGroqClient(&cfg.Groq, model), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.Gemini.APIKey, model)
	}
	return nil, fmt.Errorf("unknown refinement provider %q", cfg.Refinement.Provider)
}
