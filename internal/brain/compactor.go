package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/hindihour/neha/internal/memory"
	"github.com/hindihour/neha/internal/persona"
)

const summarizeInstruction = "Summarize key user facts in 3 short Hinglish bullets."

// Compactor folds older transcript turns into durable facts. Compaction is
// best-effort: on any failure the record is left unmodified and the
// conversation continues un-compacted.
type Compactor struct {
	model TextModel
}

func NewCompactor(model TextModel) *Compactor {
	return &Compactor{model: model}
}

// Compact summarizes the most recent sample of turns into one fact and
// truncates the transcript. The caller persists the record.
func (c *Compactor) Compact(ctx context.Context, rec *memory.Record) error {
	turns := rec.RecentTurns(memory.CompactSample)
	if len(turns) == 0 {
		return nil
	}

	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "User: %s\n%s: %s\n", turn.User, persona.BotName, turn.Bot)
	}

	summary, err := c.model.Complete(ctx, summarizeInstruction, []Message{
		{Role: RoleUser, Content: b.String()},
	})
	if err != nil {
		return fmt.Errorf("summarize transcript: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("summarize transcript: empty summary")
	}

	rec.AppendFact(summary)
	rec.TruncateTranscript(memory.KeepAfterCompact)
	return nil
}
