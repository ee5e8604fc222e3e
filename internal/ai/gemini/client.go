package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

const systemInstruction = "你是一位台灣求職顧問，只回覆 JSON。"

var (
	ErrNoAPIKey      = errors.New("gemini api key is required")
	ErrEmptyResponse = errors.New("gemini returned no text")
)

type GeneratorConfig struct {
	APIKey string
	Model  string
	// Endpoint overrides the public API base url.
	Endpoint string
	// Zero keeps the model default.
	Temperature float32
}

// Generator sends single prompts to Gemini and expects JSON answers.
type Generator struct {
	models *genai.Models
	model  string
	config *genai.GenerateContentConfig
}

func NewGenerator(ctx context.Context, cfg GeneratorConfig) (*Generator, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrNoAPIKey
	}

	clientConfig := &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI}
	if cfg.Endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	generation := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		generation.Temperature = &t
	}

	return &Generator{models: client.Models, model: model, config: generation}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", g.model, err)
	}
	return responseText(resp)
}

// responseText joins the non-blank text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}

	var parts []string
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p == nil {
				continue
			}
			if text := strings.TrimSpace(p.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}

	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.Join(parts, "\n"), nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
