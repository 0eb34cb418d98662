package core

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"gwi.com/wishlist-assistant/internal/store"
)

// LangChainGenerator drives any langchaingo model.
type LangChainGenerator struct {
	model llms.Model
}

func NewLangChainGenerator(model llms.Model) *LangChainGenerator {
	return &LangChainGenerator{model: model}
}

// NewOpenAIGenerator builds a LangChainGenerator on the OpenAI chat API.
func NewOpenAIGenerator(apiKey, modelName string) (*LangChainGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
	}
	opts := []openai.Option{openai.WithToken(apiKey)}
	if modelName != "" {
		opts = append(opts, openai.WithModel(modelName))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OpenAI client")
	}
	return NewLangChainGenerator(model), nil
}

func (g *LangChainGenerator) GenerateTitle(ctx context.Context, message string) (string, error) {
	text, err := g.generate(ctx, titleSystemInstruction, buildTitlePrompt(message),
		llms.WithMaxTokens(20), llms.WithTemperature(0.7))
	if err != nil {
		return "", errors.Wrap(err, "title generation failed")
	}
	return cleanGenerated(text), nil
}

func (g *LangChainGenerator) GenerateDescription(ctx context.Context, message string, product store.Product) (string, error) {
	text, err := g.generate(ctx, descriptionSystemInstruction, buildDescriptionPrompt(message, product),
		llms.WithMaxTokens(120), llms.WithTemperature(0.5))
	if err != nil {
		return "", errors.Wrap(err, "description generation failed")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("LLM generated an empty description")
	}
	return text, nil
}

func (g *LangChainGenerator) generate(ctx context.Context, system, prompt string, opts ...llms.CallOption) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	resp, err := g.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response")
	}
	return resp.Choices[0].Content, nil
}
