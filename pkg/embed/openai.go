package embed

import (
	"context"
	"fmt"

	openaiapi "github.com/sashabaranov/go-openai"
)

// OpenAIModel is the embedding model requested from the OpenAI API. Its
// native output is 1536-dimensional; OpenAIProvider pads/truncates that down
// to this repo's fixed Dimensions.
const OpenAIModel = openaiapi.SmallEmbedding3

// OpenAIProvider wraps the OpenAI embeddings API, padding or truncating its
// native output to this repo's fixed target dimension exactly like
// PadToTargetDimensions — zero-padding a normalized vector leaves cosine
// similarity well-defined.
type OpenAIProvider struct {
	client *openaiapi.Client
	dims   int
}

// NewOpenAIProvider builds an OpenAIProvider. apiKey must be non-empty.
func NewOpenAIProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embed: OpenAI API key is required")
	}

	return &OpenAIProvider{client: openaiapi.NewClient(apiKey), dims: Dimensions}, nil
}

// Dim returns this repo's fixed target dimension, not the model's native one.
func (p *OpenAIProvider) Dim() int {
	return p.dims
}

// Embed truncates text, requests an embedding, and pads/truncates the result
// to the target dimension.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}

	resp, err := p.client.CreateEmbeddings(ctx, openaiapi.EmbeddingRequest{
		Input: []string{text},
		Model: OpenAIModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: openai request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: openai returned no embeddings")
	}

	return PadToTargetDimensions(resp.Data[0].Embedding, p.dims), nil
}

// PadToTargetDimensions truncates vec if it is longer than target, or
// zero-pads it if shorter.
func PadToTargetDimensions(vec []float32, target int) []float32 {
	if len(vec) == target {
		return vec
	}

	if len(vec) > target {
		return vec[:target]
	}

	padded := make([]float32, target)
	copy(padded, vec)

	return padded
}
