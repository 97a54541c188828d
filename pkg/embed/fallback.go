package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// FallbackEmbedder wraps a primary Embedder with LocalProvider as a
// guaranteed-available backstop: a trimmed version of a provider registry
// with exactly one fallback tier, since spec.md only distinguishes
// "embedder unavailable" (no provider at all can produce a vector) from the
// normal case. If primary is nil, FallbackEmbedder behaves exactly like
// LocalProvider.
type FallbackEmbedder struct {
	primary core.Embedder
	local   *LocalProvider
	log     *slog.Logger
}

// NewFallbackEmbedder builds a FallbackEmbedder. primary may be nil to use
// the local provider unconditionally.
func NewFallbackEmbedder(primary core.Embedder, log *slog.Logger) *FallbackEmbedder {
	if log == nil {
		log = slog.Default()
	}

	return &FallbackEmbedder{primary: primary, local: NewLocalProvider(), log: log}
}

// Dim returns the local provider's dimension, which every provider in this
// repo is padded/truncated to share.
func (e *FallbackEmbedder) Dim() int {
	return e.local.Dim()
}

// Embed tries the primary provider first, logging and falling back to the
// deterministic local provider on failure. It only returns an error if both
// fail, matching spec.md's "embedder unavailable" hard-error case.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.primary != nil {
		vec, err := e.primary.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}

		e.log.WarnContext(ctx, "primary embedder failed, falling back to local", "error", err)
	}

	vec, err := e.local.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: no provider available: %w", err)
	}

	return vec, nil
}
