package core

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"gwi.com/wishlist-assistant/internal/store"
)

const defaultGeminiModelName = "gemini-1.5-flash-latest"

// GeminiGenerator answers title and description prompts with Gemini.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for the gemini provider")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}
	if modelName == "" {
		modelName = defaultGeminiModelName
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	if err := g.client.Close(); err != nil {
		return errors.Wrap(err, "failed to close GenAI client")
	}
	log.Debug().Msg("GenAI client closed.")
	return nil
}

func (g *GeminiGenerator) GenerateTitle(ctx context.Context, message string) (string, error) {
	text, err := g.generate(ctx, titleSystemInstruction, buildTitlePrompt(message), 20, 0.7)
	if err != nil {
		return "", errors.Wrap(err, "gemini title generation failed")
	}
	return cleanGenerated(text), nil
}

func (g *GeminiGenerator) GenerateDescription(ctx context.Context, message string, product store.Product) (string, error) {
	text, err := g.generate(ctx, descriptionSystemInstruction, buildDescriptionPrompt(message, product), 120, 0.5)
	if err != nil {
		return "", errors.Wrap(err, "gemini description generation failed")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("LLM generated an empty description")
	}
	return text, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, system, prompt string, maxTokens int32, temp float32) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		} else {
			log.Debug().Msgf("Gemini response part was not text: %T", part)
		}
	}
	return out.String(), nil
}
