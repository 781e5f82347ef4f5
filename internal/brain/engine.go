// Package brain runs the conversation turn pipeline: fact extraction,
// live-search bypass, persona prompt composition, generation with backoff,
// and periodic memory compaction.
package brain

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hindihour/neha/internal/extract"
	"github.com/hindihour/neha/internal/memory"
	"github.com/hindihour/neha/internal/observability"
	"github.com/hindihour/neha/internal/persona"
	"github.com/hindihour/neha/internal/reliability"
	"github.com/hindihour/neha/internal/search"
)

// Fixed user-visible strings. A turn always resolves to some string.
const (
	FillerReply      = "Kuch toh bolo!"
	UnavailableReply = "Neha abhi thodi busy hai, thodi der baad try karo."
	ErrorReply       = "Oops! Thoda issue aa gaya, phir se try karo."
)

// Reply sources, also used as the turns_total metric label.
const (
	SourceModel  = "model"
	SourceSearch = "search"
	SourceFiller = "filler"
	SourceError  = "error"
)

// Reply is the outcome of one turn.
type Reply struct {
	Text   string
	Source string
}

// Engine drives one synchronous call chain per user turn. Callers must
// serialize turns per session; sessions are independent.
type Engine struct {
	store     memory.Store
	model     TextModel
	composer  *persona.Composer
	searcher  *search.Client
	compactor *Compactor
	policy    reliability.Policy
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewEngine(
	store memory.Store,
	model TextModel,
	composer *persona.Composer,
	searcher *search.Client,
	policy reliability.Policy,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		store:     store,
		model:     model,
		composer:  composer,
		searcher:  searcher,
		compactor: NewCompactor(model),
		policy:    policy,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Respond runs one turn. The returned reply text is always non-empty; an
// error is returned only when the memory record cannot be loaded at all.
func (e *Engine) Respond(ctx context.Context, sessionID, utterance string) (Reply, error) {
	started := e.now()
	rec, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load memory: %w", err)
	}

	if strings.TrimSpace(utterance) == "" {
		return e.finish(Reply{Text: FillerReply, Source: SourceFiller}, started), nil
	}

	if extract.Apply(rec, utterance) {
		if err := e.store.Save(ctx, rec); err != nil {
			log.Printf("memory save after extraction failed: %v", err)
		}
	}

	if search.Triggered(utterance) {
		snippet := e.searcher.Lookup(ctx, utterance)
		reply := Reply{Text: search.WrapSnippet(snippet), Source: SourceSearch}
		e.recordTurn(ctx, rec, utterance, reply.Text)
		return e.finish(reply, started), nil
	}

	reply := e.generate(ctx, rec, utterance)
	e.recordTurn(ctx, rec, utterance, reply.Text)
	return e.finish(reply, started), nil
}

// ConfirmName stores the user's confirmed display name and returns the
// greeting. Confirmation is authoritative over extraction: it replaces a
// merely extracted name, but never an earlier confirmed one.
func (e *Engine) ConfirmName(ctx context.Context, sessionID, name string) (string, error) {
	name = extract.TitleCase(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	rec, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load memory: %w", err)
	}
	if !rec.NameConfirmed {
		rec.UserName = name
		rec.NameConfirmed = true
		if err := e.store.Save(ctx, rec); err != nil {
			return "", fmt.Errorf("save memory: %w", err)
		}
	}
	return persona.Greeting(rec.UserName), nil
}

// LastReply returns the bot side of the most recent turn, or empty when the
// session has no transcript yet.
func (e *Engine) LastReply(ctx context.Context, sessionID string) (string, error) {
	rec, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load memory: %w", err)
	}
	turns := rec.RecentTurns(1)
	if len(turns) == 0 {
		return "", nil
	}
	return turns[0].Bot, nil
}

func (e *Engine) generate(ctx context.Context, rec *memory.Record, utterance string) Reply {
	system := e.composer.SystemPrompt(rec, e.now())

	msgs := make([]Message, 0, 2*memory.PromptWindow+1)
	for _, turn := range rec.RecentTurns(memory.PromptWindow) {
		msgs = append(msgs,
			Message{Role: RoleUser, Content: turn.User},
			Message{Role: RoleAssistant, Content: turn.Bot},
		)
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: utterance})

	policy := e.policy
	policy.OnRetry = func(attempt int, err error) {
		if e.metrics != nil {
			e.metrics.ModelRetries.Inc()
		}
		log.Printf("model rate limited (attempt %d): %v", attempt+1, err)
	}

	var out string
	runErr := policy.Run(ctx, func() error {
		text, err := e.model.Complete(ctx, system, msgs)
		if err != nil {
			return err
		}
		out = text
		return nil
	})

	switch {
	case runErr == nil:
		text := stripBotPrefix(out)
		if strings.TrimSpace(text) == "" {
			return Reply{Text: ErrorReply, Source: SourceError}
		}
		return Reply{Text: text, Source: SourceModel}
	case policy.Retryable != nil && policy.Retryable(runErr):
		// Rate-limit class exhausted all attempts.
		e.countProviderError("model", "rate_limited")
		return Reply{Text: UnavailableReply, Source: SourceError}
	default:
		e.countProviderError("model", "terminal")
		log.Printf("model request failed: %v", runErr)
		return Reply{Text: ErrorReply, Source: SourceError}
	}
}

// recordTurn appends the turn, compacts on the turn-count multiple, and
// persists. Order within the transcript always matches turn order.
func (e *Engine) recordTurn(ctx context.Context, rec *memory.Record, user, bot string) {
	rec.AppendTurn(user, bot)

	if len(rec.Transcript)%memory.CompactEvery == 0 {
		if err := e.compactor.Compact(ctx, rec); err != nil {
			log.Printf("memory compaction failed: %v", err)
			if e.metrics != nil {
				e.metrics.Compactions.WithLabelValues("error").Inc()
			}
		} else if e.metrics != nil {
			e.metrics.Compactions.WithLabelValues("ok").Inc()
		}
	}

	if err := e.store.Save(ctx, rec); err != nil {
		log.Printf("memory save failed: %v", err)
	}
}

func (e *Engine) finish(reply Reply, started time.Time) Reply {
	if e.metrics != nil {
		e.metrics.Turns.WithLabelValues(reply.Source).Inc()
		e.metrics.ObserveReplyLatency(e.now().Sub(started))
	}
	return reply
}

func (e *Engine) countProviderError(provider, code string) {
	if e.metrics != nil {
		e.metrics.ProviderErrors.WithLabelValues(provider, code).Inc()
	}
}

// stripBotPrefix drops a leading "Neha:" echo some models produce.
func stripBotPrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	prefix := strings.ToLower(persona.BotName) + ":"
	if strings.HasPrefix(lower, prefix) {
		return strings.TrimSpace(trimmed[len(prefix):])
	}
	return trimmed
}
