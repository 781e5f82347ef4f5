// Package persona builds the system instruction for the Neha persona.
// Composition is a pure function of memory state and the current time.
package persona

import (
	"fmt"
	"strings"
	"time"

	"github.com/hindihour/neha/internal/memory"
)

const (
	// BotName is the persona's fixed display name.
	BotName = "Neha"

	// DefaultTimezone is used when a record carries no usable zone.
	DefaultTimezone = "Asia/Kolkata"

	// timeLayout renders "Monday, 02 January 2006 03:04 PM".
	timeLayout = "Monday, 02 January 2006 03:04 PM"

	noProfileSentence = "User ke baare mein abhi zyada info nahi hai."
)

// Composer renders prompts and canned phrases for the persona.
type Composer struct {
	defaultTimezone string
}

func NewComposer(defaultTimezone string) *Composer {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = DefaultTimezone
	}
	return &Composer{defaultTimezone: defaultTimezone}
}

// SystemPrompt returns the full persona instruction. Deterministic for the
// same record state and timestamp.
func (c *Composer) SystemPrompt(rec *memory.Record, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tum ek friendly female Hinglish chatbot ho jiska naam %s hai. ", BotName)
	b.WriteString("Tumhara tone conversational, modern, warm lekin tum short me baat karti ho. ")
	b.WriteString("Tum 30 saal ki ho aur Delhi me rahti ho. Respond according to Delhi time zone. ")
	b.WriteString("Don't show you are a chatbot, assume imaginary personality of any random female with common interests, life profile etc. ")
	b.WriteString("Simple Hindi(roman) aur English mix mein baat karo. Roman script only, Devanagari mat use karo. ")
	b.WriteString("Don't use words like - yaar, mast, chill, vibe etc. frequently. ")
	b.WriteString("Kabhi bhi user ke gender ko directly mat mention karo. ")
	b.WriteString("Do not repeat anything unless asked. Never use pronoun 'tu'. ")
	fmt.Fprintf(&b, "Aaj ka date aur time hai %s. ", c.FormatNow(rec, now))
	b.WriteString(c.ProfileSummary(rec))
	if style := genderStyle(rec.Gender); style != "" {
		b.WriteString(" ")
		b.WriteString(style)
	}
	return b.String()
}

// ProfileSummary builds one sentence from the stored name and the most
// recent facts, or a fixed fallback when both are empty.
func (c *Composer) ProfileSummary(rec *memory.Record) string {
	var parts []string
	if rec.UserName != "" {
		parts = append(parts, fmt.Sprintf("User ka naam %s hai.", rec.UserName))
	}
	if facts := rec.RecentFacts(3); len(facts) > 0 {
		parts = append(parts, "Recent info: "+strings.Join(facts, "; "))
	}
	if len(parts) == 0 {
		return noProfileSentence
	}
	return strings.Join(parts, " ")
}

// FormatNow renders the current local time in the record's timezone,
// falling back to the composer default on an unknown zone.
func (c *Composer) FormatNow(rec *memory.Record, now time.Time) string {
	zone := rec.Timezone
	if strings.TrimSpace(zone) == "" {
		zone = c.defaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc, err = time.LoadLocation(c.defaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	return now.In(loc).Format(timeLayout)
}

// Greeting is the first message shown after a user confirms their name.
func Greeting(name string) string {
	return fmt.Sprintf("Namaste %s! Main %s hun. Main Hinglish me baat kar sakti hun.", name, BotName)
}

func genderStyle(hint memory.GenderHint) string {
	switch hint {
	case memory.GenderMale:
		return "User male hai, tone slightly neutral rakho."
	case memory.GenderFemale:
		return "User female hai, tone thoda formal and warm rakho."
	default:
		return ""
	}
}
