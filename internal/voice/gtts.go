package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// gttsMaxChars is the per-request input limit of the translate TTS endpoint.
const gttsMaxChars = 200

type GTTSConfig struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
}

// GTTSSynthesizer is the widely-available fallback engine: the public
// translate text-to-speech endpoint, returning MP3.
type GTTSSynthesizer struct {
	baseURL  string
	language string
	httpc    *http.Client
}

func NewGTTSSynthesizer(cfg GTTSConfig) *GTTSSynthesizer {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://translate.google.com/translate_tts"
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "hi"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &GTTSSynthesizer{
		baseURL:  cfg.BaseURL,
		language: cfg.Language,
		httpc:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *GTTSSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if runes := []rune(text); len(runes) > gttsMaxChars {
		text = string(runes[:gttsMaxChars])
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", s.language)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("gtts request: %w", err)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("gtts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("gtts status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", fmt.Errorf("gtts read: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("gtts: empty audio")
	}
	return audio, "audio/mpeg", nil
}
