package embed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/embed"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("boom")
}

func (failingEmbedder) Dim() int { return embed.Dimensions }

func TestFallbackEmbedder_FallsBackOnPrimaryFailure(t *testing.T) {
	fb := embed.NewFallbackEmbedder(failingEmbedder{}, nil)

	vec, err := fb.Embed(t.Context(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, embed.Dimensions)
}

func TestFallbackEmbedder_NilPrimaryUsesLocal(t *testing.T) {
	fb := embed.NewFallbackEmbedder(nil, nil)

	vec, err := fb.Embed(t.Context(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, embed.Dimensions)
}
