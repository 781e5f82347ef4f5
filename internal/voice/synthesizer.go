// Package voice converts reply text to audio with a primary hosted engine
// and an always-available fallback. Synthesis is on demand only and never
// blocks the text reply path.
package voice

import "context"

// Synthesizer turns text into a compressed audio buffer. The format string
// is a MIME type suitable for an HTTP Content-Type header.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, format string, err error)
}

// Sanitize strips control characters before synthesis. Punctuation is kept
// for prosody.
func Sanitize(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r < 0x20 || r == 0x7f {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
