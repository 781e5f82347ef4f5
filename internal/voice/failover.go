package voice

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// NewFailoverSynthesizer builds a synthesizer that prefers the primary
// engine and automatically switches to fallback when primary fails. Once
// fallback succeeds, it stays active until fallback fails; then primary is
// retried.
func NewFailoverSynthesizer(primary, fallback Synthesizer) Synthesizer {
	return &failoverSynthesizer{primary: primary, fallback: fallback}
}

type failoverSynthesizer struct {
	fallbackActive atomic.Bool
	primary        Synthesizer
	fallback       Synthesizer
}

func (s *failoverSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	text = strings.TrimSpace(Sanitize(text))
	if text == "" {
		return nil, "", fmt.Errorf("nothing to synthesize")
	}

	if s.fallbackActive.Load() {
		audio, format, fbErr := s.fallback.Synthesize(ctx, text)
		if fbErr == nil {
			return audio, format, nil
		}
		// Fallback failed after being active; try primary again.
		audio, format, prErr := s.primary.Synthesize(ctx, text)
		if prErr == nil {
			s.fallbackActive.Store(false)
			return audio, format, nil
		}
		return nil, "", fmt.Errorf("tts fallback failed: %v; tts primary failed: %w", fbErr, prErr)
	}

	audio, format, prErr := s.primary.Synthesize(ctx, text)
	if prErr == nil {
		return audio, format, nil
	}
	audio, format, fbErr := s.fallback.Synthesize(ctx, text)
	if fbErr != nil {
		return nil, "", fmt.Errorf("tts primary failed: %v; tts fallback failed: %w", prErr, fbErr)
	}
	s.fallbackActive.Store(true)
	return audio, format, nil
}
