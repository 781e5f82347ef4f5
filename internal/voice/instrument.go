package voice

import (
	"context"

	"github.com/hindihour/neha/internal/observability"
)

// Instrument counts synthesis attempts per engine in the synthesis_total
// metric. Wrap each engine before composing the failover chain so both the
// primary and fallback attempts of one request are recorded.
func Instrument(engine string, next Synthesizer, m *observability.Metrics) Synthesizer {
	if m == nil {
		return next
	}
	return &instrumentedSynthesizer{engine: engine, next: next, metrics: m}
}

type instrumentedSynthesizer struct {
	engine  string
	next    Synthesizer
	metrics *observability.Metrics
}

func (s *instrumentedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	audio, format, err := s.next.Synthesize(ctx, text)
	if err != nil {
		s.metrics.Synthesis.WithLabelValues(s.engine, "error").Inc()
		return nil, "", err
	}
	s.metrics.Synthesis.WithLabelValues(s.engine, "ok").Inc()
	return audio, format, nil
}
