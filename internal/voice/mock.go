package voice

import "context"

// MockSynthesizer is a local fallback used when no TTS engine is configured.
// It returns the text bytes so playback paths can be exercised end to end.
type MockSynthesizer struct{}

func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

func (s *MockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, string, error) {
	return []byte(text), "text/plain", nil
}
