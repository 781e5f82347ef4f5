package voice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type HostedConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
	Timeout time.Duration
}

// HostedSynthesizer calls an OpenAI-compatible speech endpoint for
// high-quality synthesis.
type HostedSynthesizer struct {
	client  *openai.Client
	model   string
	voice   string
	timeout time.Duration
}

func NewHostedSynthesizer(cfg HostedConfig) *HostedSynthesizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = "alloy"
	}
	return &HostedSynthesizer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		voice:   cfg.Voice,
		timeout: cfg.Timeout,
	}
}

func (s *HostedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, "", fmt.Errorf("hosted tts: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("hosted tts read: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("hosted tts: empty audio")
	}
	return audio, "audio/mpeg", nil
}
