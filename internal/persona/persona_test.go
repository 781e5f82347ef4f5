package persona

import (
	"strings"
	"testing"
	"time"

	"github.com/hindihour/neha/internal/memory"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func TestSystemPromptDeterministic(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Asia/Kolkata")
	rec.UserName = "Priya"
	rec.AppendFact("Priya ko chai pasand hai.")

	a := c.SystemPrompt(rec, fixedNow)
	b := c.SystemPrompt(rec, fixedNow)
	if a != b {
		t.Fatalf("SystemPrompt not deterministic:\n%s\n%s", a, b)
	}
}

func TestSystemPromptContainsRequiredDirectives(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Asia/Kolkata")
	rec.Gender = memory.GenderFemale

	prompt := c.SystemPrompt(rec, fixedNow)

	for _, want := range []string{
		"Neha",
		"30 saal",
		"Delhi",
		"Don't show you are a chatbot",
		"gender ko directly mat mention karo",
		"Never use pronoun 'tu'",
		"Aaj ka date aur time hai",
		"User female hai",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSystemPromptIncludesLocalTime(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Asia/Kolkata")

	prompt := c.SystemPrompt(rec, fixedNow)
	// 10:30 UTC is 16:00 IST.
	if !strings.Contains(prompt, "04:00 PM") {
		t.Fatalf("prompt missing IST time:\n%s", prompt)
	}
}

func TestFormatNowFallsBackOnUnknownZone(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Not/AZone")

	got := c.FormatNow(rec, fixedNow)
	want := fixedNow.In(mustZone(t, "Asia/Kolkata")).Format("Monday, 02 January 2006 03:04 PM")
	if got != want {
		t.Fatalf("FormatNow = %q, want fallback %q", got, want)
	}
}

func TestProfileSummaryFallback(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Asia/Kolkata")

	if got := c.ProfileSummary(rec); got != "User ke baare mein abhi zyada info nahi hai." {
		t.Fatalf("ProfileSummary = %q, want fallback sentence", got)
	}
}

func TestProfileSummaryUsesMostRecentThreeFacts(t *testing.T) {
	c := NewComposer("Asia/Kolkata")
	rec := memory.NewRecord("s", "Asia/Kolkata")
	rec.UserName = "Priya"
	for _, f := range []string{"one", "two", "three", "four"} {
		rec.AppendFact(f)
	}

	got := c.ProfileSummary(rec)
	if !strings.Contains(got, "User ka naam Priya hai.") {
		t.Fatalf("summary missing name: %q", got)
	}
	if strings.Contains(got, "one") {
		t.Fatalf("summary includes stale fact: %q", got)
	}
	if !strings.Contains(got, "two; three; four") {
		t.Fatalf("summary missing recent facts: %q", got)
	}
}

func TestGreetingMentionsBotAndUser(t *testing.T) {
	got := Greeting("Priya")
	if !strings.Contains(got, "Priya") || !strings.Contains(got, "Neha") {
		t.Fatalf("Greeting = %q", got)
	}
}

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	return loc
}
