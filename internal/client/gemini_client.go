package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a client. Without an API key the client is returned
// unconfigured and every call fails with ErrNotConfigured.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	g := &GeminiClient{model: model}
	if strings.TrimSpace(apiKey) == "" {
		return g, nil
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.cli = cli
	return g, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

func (g *GeminiClient) IsConfigured() bool { return g.cli != nil }

// ChatCompletion sends the system prompt as a system instruction and returns the reply text
func (g *GeminiClient) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	if !g.IsConfigured() {
		return "", ErrNotConfigured
	}

	temperature := float32(0.2)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	return resp.Text(), nil
}
