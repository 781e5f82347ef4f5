package memory

import "context"

// Window and compaction constants for the rolling transcript.
const (
	// PromptWindow is how many trailing turns feed the generation prompt.
	PromptWindow = 8
	// CompactEvery triggers compaction when the transcript length is a
	// multiple of this turn count.
	CompactEvery = 20
	// CompactSample is how many trailing turns are summarized.
	CompactSample = 10
	// KeepAfterCompact is the transcript length kept after a successful
	// compaction.
	KeepAfterCompact = 8
)

// GenderHint influences prompt tone only and is never surfaced verbatim.
type GenderHint string

const (
	GenderUnknown GenderHint = ""
	GenderMale    GenderHint = "male"
	GenderFemale  GenderHint = "female"
)

// Turn is one user utterance paired with the bot reply.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Record is the durable per-session conversational memory.
// NameConfirmed marks a name set through the explicit confirmation API;
// a merely extracted name may still be replaced by a confirmation.
type Record struct {
	SessionID     string     `json:"session_id"`
	UserName      string     `json:"user_name,omitempty"`
	NameConfirmed bool       `json:"name_confirmed,omitempty"`
	Gender        GenderHint `json:"gender,omitempty"`
	Facts         []string   `json:"facts"`
	Transcript    []Turn     `json:"chat_history"`
	Timezone      string     `json:"timezone"`
}

// NewRecord returns an empty record for a session that has no stored memory.
func NewRecord(sessionID, timezone string) *Record {
	return &Record{SessionID: sessionID, Timezone: timezone}
}

// AppendTurn appends one turn, preserving insertion order.
func (r *Record) AppendTurn(user, bot string) {
	r.Transcript = append(r.Transcript, Turn{User: user, Bot: bot})
}

// AppendFact appends one durable fact. Facts only grow.
func (r *Record) AppendFact(fact string) {
	if fact == "" {
		return
	}
	r.Facts = append(r.Facts, fact)
}

// RecentTurns returns the most recent n turns in chronological order.
func (r *Record) RecentTurns(n int) []Turn {
	if n <= 0 || len(r.Transcript) == 0 {
		return nil
	}
	if n > len(r.Transcript) {
		n = len(r.Transcript)
	}
	return r.Transcript[len(r.Transcript)-n:]
}

// RecentFacts returns the most recent n facts in chronological order.
func (r *Record) RecentFacts(n int) []string {
	if n <= 0 || len(r.Facts) == 0 {
		return nil
	}
	if n > len(r.Facts) {
		n = len(r.Facts)
	}
	return r.Facts[len(r.Facts)-n:]
}

// TruncateTranscript drops all but the most recent keep turns.
func (r *Record) TruncateTranscript(keep int) {
	if keep < 0 {
		keep = 0
	}
	if len(r.Transcript) <= keep {
		return
	}
	kept := make([]Turn, keep)
	copy(kept, r.Transcript[len(r.Transcript)-keep:])
	r.Transcript = kept
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Facts = append([]string(nil), r.Facts...)
	c.Transcript = append([]Turn(nil), r.Transcript...)
	return &c
}

// Store persists per-session memory records. Load is load-or-default: a
// session with no stored record yields a fresh empty record.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Close() error
}
