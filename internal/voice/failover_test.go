package voice

import (
	"context"
	"errors"
	"testing"
)

type stubSynthesizer struct {
	calls      int
	synthesize func(ctx context.Context, text string) ([]byte, string, error)
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	s.calls++
	return s.synthesize(ctx, text)
}

func TestFailoverUsesFallbackBytesWhenPrimaryFails(t *testing.T) {
	primary := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return nil, "", errors.New("quota exceeded")
	}}
	fallback := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return []byte("mp3-bytes"), "audio/mpeg", nil
	}}

	s := NewFailoverSynthesizer(primary, fallback)
	audio, format, err := s.Synthesize(context.Background(), "namaste")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "mp3-bytes" || format != "audio/mpeg" {
		t.Fatalf("got %q/%q, want fallback bytes", audio, format)
	}
}

func TestFailoverSticksToFallbackUntilItFails(t *testing.T) {
	primary := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return nil, "", errors.New("primary down")
	}}
	fallback := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return []byte("a"), "audio/mpeg", nil
	}}

	s := NewFailoverSynthesizer(primary, fallback)
	ctx := context.Background()

	if _, _, err := s.Synthesize(ctx, "one"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if _, _, err := s.Synthesize(ctx, "two"); err != nil {
		t.Fatalf("Synthesize() on fallback error = %v", err)
	}

	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, want 1 once fallback active", primary.calls)
	}
	if fallback.calls != 2 {
		t.Fatalf("fallback calls = %d, want 2", fallback.calls)
	}
}

func TestFailoverRecoversToPrimaryWhenFallbackFails(t *testing.T) {
	primaryHealthy := false
	primary := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		if primaryHealthy {
			return []byte("hq"), "audio/mpeg", nil
		}
		return nil, "", errors.New("primary down")
	}}
	fallbackHealthy := true
	fallback := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		if fallbackHealthy {
			return []byte("lo"), "audio/mpeg", nil
		}
		return nil, "", errors.New("fallback down")
	}}

	s := NewFailoverSynthesizer(primary, fallback)
	ctx := context.Background()

	if _, _, err := s.Synthesize(ctx, "one"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	primaryHealthy = true
	fallbackHealthy = false
	audio, _, err := s.Synthesize(ctx, "two")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "hq" {
		t.Fatalf("audio = %q, want primary after fallback failure", audio)
	}

	// Primary is active again.
	audio, _, err = s.Synthesize(ctx, "three")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "hq" {
		t.Fatalf("audio = %q, want primary", audio)
	}
}

func TestFailoverReturnsCombinedErrorWhenBothFail(t *testing.T) {
	primary := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return nil, "", errors.New("primary down")
	}}
	fallback := &stubSynthesizer{synthesize: func(context.Context, string) ([]byte, string, error) {
		return nil, "", errors.New("fallback down")
	}}

	s := NewFailoverSynthesizer(primary, fallback)
	if _, _, err := s.Synthesize(context.Background(), "one"); err == nil {
		t.Fatalf("Synthesize() expected error when both engines fail")
	}
}

func TestFailoverSanitizesBeforeSynthesis(t *testing.T) {
	var seen string
	primary := &stubSynthesizer{synthesize: func(_ context.Context, text string) ([]byte, string, error) {
		seen = text
		return []byte("ok"), "audio/mpeg", nil
	}}

	s := NewFailoverSynthesizer(primary, NewMockSynthesizer())
	if _, _, err := s.Synthesize(context.Background(), "namaste \x00ji,\x1f kaise ho?\x7f"); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if seen != "namaste ji, kaise ho?" {
		t.Fatalf("sanitized text = %q", seen)
	}
}

func TestFailoverRejectsEmptyText(t *testing.T) {
	s := NewFailoverSynthesizer(NewMockSynthesizer(), NewMockSynthesizer())
	if _, _, err := s.Synthesize(context.Background(), "\x00\x01  "); err == nil {
		t.Fatalf("Synthesize() expected error for control-only text")
	}
}

func TestSanitizeKeepsPunctuation(t *testing.T) {
	in := "Arre! Kya baat hai... theek?\n\tchalo"
	got := Sanitize(in)
	if got != "Arre! Kya baat hai... theek?chalo" {
		t.Fatalf("Sanitize() = %q", got)
	}
}
