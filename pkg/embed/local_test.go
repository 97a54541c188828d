package embed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/omnidex-crawl/pkg/embed"
)

func TestLocalProvider_Deterministic(t *testing.T) {
	p := embed.NewLocalProvider()

	v1, err := p.Embed(t.Context(), "compound actions")
	require.NoError(t, err)

	v2, err := p.Embed(t.Context(), "compound actions")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, embed.Dimensions)
}

func TestLocalProvider_DifferentTextDifferentVector(t *testing.T) {
	p := embed.NewLocalProvider()

	v1, err := p.Embed(t.Context(), "alpha")
	require.NoError(t, err)

	v2, err := p.Embed(t.Context(), "beta")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestLocalProvider_TruncatesLongInput(t *testing.T) {
	p := embed.NewLocalProvider()

	long := make([]byte, embed.MaxInputChars*2)
	for i := range long {
		long[i] = 'a'
	}

	extended := append(long, 'x')

	v1, err := p.Embed(t.Context(), string(long))
	require.NoError(t, err)

	v2, err := p.Embed(t.Context(), string(extended))
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}
