package generation

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const defaultCohereModel = "command-r"

// CohereProvider implements Provider using the Cohere Chat API.
// SDK: github.com/cohere-ai/cohere-go/v2
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

// NewCohereFromEnv returns a CohereProvider when COHERE_API_KEY is set,
// nil otherwise. COHERE_MODEL overrides the default model.
func NewCohereFromEnv() *CohereProvider {
	key := os.Getenv("COHERE_API_KEY")
	if key == "" {
		return nil
	}
	model := os.Getenv("COHERE_MODEL")
	if model == "" {
		model = defaultCohereModel
	}
	return NewCohereProvider(key, model)
}

// NewCohereProvider creates a CohereProvider. The HTTP client forces
// HTTP/1.1 to avoid HTTP/2 protocol errors seen against the Cohere edge.
func NewCohereProvider(apiKey, model string) *CohereProvider {
	httpClient := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereProvider{client: client, model: model}
}

func (p *CohereProvider) Name() string {
	return fmt.Sprintf("cohere/%s", p.model)
}

func (p *CohereProvider) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := 0.7
	resp, err := p.client.Chat(ctx, &cohere.ChatRequest{
		Message:     prompt,
		Model:       &p.model,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}
