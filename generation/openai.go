package generation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements Provider against any OpenAI-compatible chat
// completion endpoint via langchaingo.
type OpenAIProvider struct {
	llm   *openai.LLM
	model string
}

// NewOpenAIFromEnv returns an OpenAIProvider when OPENAI_API_KEY is set,
// nil otherwise. OPENAI_MODEL and OPENAI_BASE_URL override the defaults,
// the latter pointing the provider at a compatible local server.
func NewOpenAIFromEnv() (*OpenAIProvider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, nil
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}
	return NewOpenAIProvider(key, model, os.Getenv("OPENAI_BASE_URL"))
}

// NewOpenAIProvider creates an OpenAIProvider. baseURL may be empty.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAIProvider{llm: llm, model: model}, nil
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("openai/%s", p.model)
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(1500),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if out == "" {
		return "", errors.New("openai completion returned empty response")
	}
	return out, nil
}
