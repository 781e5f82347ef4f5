package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hindihour/neha/internal/brain"
	"github.com/hindihour/neha/internal/config"
	"github.com/hindihour/neha/internal/httpapi"
	"github.com/hindihour/neha/internal/memory"
	"github.com/hindihour/neha/internal/observability"
	"github.com/hindihour/neha/internal/persona"
	"github.com/hindihour/neha/internal/reliability"
	"github.com/hindihour/neha/internal/search"
	"github.com/hindihour/neha/internal/session"
	"github.com/hindihour/neha/internal/userlog"
	"github.com/hindihour/neha/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	memoryStore, err := memory.NewStore(cfg.MemoryDir, cfg.DefaultTimezone)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memoryStore.Close()

	users, err := userlog.NewStore(ctx, cfg.DatabaseURL, cfg.UserLogPath)
	if err != nil {
		log.Fatalf("user log init failed: %v", err)
	}
	defer users.Close()

	var model brain.TextModel
	switch cfg.LLMProvider {
	case "openai":
		model = brain.NewOpenAIModel(brain.OpenAIConfig{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMChatModel,
			Timeout: cfg.LLMTimeout,
		})
		log.Printf("text model: %s", cfg.LLMChatModel)
	case "mock":
		model = brain.NewMockModel()
		log.Printf("text model: mock")
	}

	synthesizer := buildSynthesizer(cfg, metrics)

	searcher := search.NewClient(search.Config{
		APIKey:   cfg.SerperAPIKey,
		Endpoint: cfg.SerperEndpoint,
		Timeout:  cfg.SearchTimeout,
	})

	policy := reliability.DefaultPolicy(reliability.IsRetryableModelError)
	policy.MaxAttempts = cfg.LLMMaxRetries
	policy.BaseDelay = cfg.LLMRetryBaseDelay

	engine := brain.NewEngine(
		memoryStore,
		model,
		persona.NewComposer(cfg.DefaultTimezone),
		searcher,
		policy,
		metrics,
	)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	api := httpapi.New(cfg, sessions, engine, synthesizer, users, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// buildSynthesizer resolves the TTS provider chain. The gTTS engine always
// backs whichever primary is selected so speech degrades instead of failing.
func buildSynthesizer(cfg config.Config, metrics *observability.Metrics) httpapi.Synthesizer {
	gtts := voice.Instrument("gtts", voice.NewGTTSSynthesizer(voice.GTTSConfig{
		Language: cfg.TTSLanguage,
		Timeout:  cfg.SynthesisTimeout,
	}), metrics)

	hosted := func() httpapi.Synthesizer {
		primary := voice.Instrument("hosted", voice.NewHostedSynthesizer(voice.HostedConfig{
			BaseURL: cfg.TTSBaseURL,
			APIKey:  cfg.TTSAPIKey,
			Model:   cfg.TTSModel,
			Voice:   cfg.TTSVoice,
			Timeout: cfg.SynthesisTimeout,
		}), metrics)
		log.Printf("voice provider: hosted (%s) with gtts fallback", cfg.TTSModel)
		return voice.NewFailoverSynthesizer(primary, gtts)
	}

	switch cfg.TTSProvider {
	case "hosted":
		return hosted()
	case "gtts":
		log.Printf("voice provider: gtts")
		return gtts
	case "mock":
		log.Printf("voice provider: mock")
		return voice.Instrument("mock", voice.NewMockSynthesizer(), metrics)
	default: // auto
		if strings.TrimSpace(cfg.TTSAPIKey) != "" {
			return hosted()
		}
		log.Printf("voice provider: gtts (no TTS_API_KEY set)")
		return gtts
	}
}
