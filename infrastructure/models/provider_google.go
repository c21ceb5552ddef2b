package models

import (
	"context"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is the default Google Gemini model.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreClassifier for Google's Gemini API.
type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogleProvider(config ClientConfig) (CoreClassifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google API key cannot be empty")
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	return &googleProvider{client: client, model: model}, nil
}

// Complete sends one classification prompt to Gemini at zero temperature.
func (p *googleProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(0)),
			MaxOutputTokens: 256,
		},
	)
	if err != nil {
		return "", p.wrapError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", fmt.Errorf("google: empty completion")
	}
	return content, nil
}

// Model returns the configured model identifier.
func (p *googleProvider) Model() string { return p.model }

// wrapError surfaces the HTTP status for Google API errors so the retry
// middleware's transient-failure handling has something to log.
func (p *googleProvider) wrapError(err error) error {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return fmt.Errorf("google request (status %d): %w", apiErr.Code, err)
	}
	return fmt.Errorf("google request: %w", err)
}
