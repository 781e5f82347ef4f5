package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreLoadDefaultsWhenAbsent(t *testing.T) {
	store := newTestFileStore(t)

	rec, err := store.Load(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.SessionID != "abc123" {
		t.Fatalf("SessionID = %q, want %q", rec.SessionID, "abc123")
	}
	if rec.UserName != "" || rec.Gender != GenderUnknown {
		t.Fatalf("fresh record has profile data: %+v", rec)
	}
	if len(rec.Facts) != 0 || len(rec.Transcript) != 0 {
		t.Fatalf("fresh record has history: %+v", rec)
	}
	if rec.Timezone != "Asia/Kolkata" {
		t.Fatalf("Timezone = %q, want default", rec.Timezone)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	rec := NewRecord("sess1", "Asia/Kolkata")
	rec.UserName = "Priya"
	rec.Gender = GenderFemale
	rec.AppendFact("Priya Delhi mein rahti hai.")
	rec.AppendTurn("hi", "Namaste!")

	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "sess1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.UserName != "Priya" || got.Gender != GenderFemale {
		t.Fatalf("profile = %q/%q, want Priya/female", got.UserName, got.Gender)
	}
	if len(got.Facts) != 1 || len(got.Transcript) != 1 {
		t.Fatalf("history = %d facts, %d turns, want 1/1", len(got.Facts), len(got.Transcript))
	}
	if got.Transcript[0] != (Turn{User: "hi", Bot: "Namaste!"}) {
		t.Fatalf("turn = %+v", got.Transcript[0])
	}
}

func TestFileStoreRejectsPathLikeSessionIDs(t *testing.T) {
	store := newTestFileStore(t)

	for _, id := range []string{"", "../escape", "a/b", "dot.dot"} {
		if _, err := store.Load(context.Background(), id); err == nil {
			t.Fatalf("Load(%q) expected error", id)
		}
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	rec := NewRecord("sess2", "Asia/Kolkata")
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "sess2.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir contents = %v, want only sess2.json", names)
	}
	if filepath.Ext(entries[0].Name()) != ".json" {
		t.Fatalf("unexpected file %q", entries[0].Name())
	}
}

func TestRecordTruncateAndWindows(t *testing.T) {
	rec := NewRecord("s", "Asia/Kolkata")
	for i := 0; i < 12; i++ {
		rec.AppendTurn("u", "b")
	}

	recent := rec.RecentTurns(PromptWindow)
	if len(recent) != PromptWindow {
		t.Fatalf("RecentTurns = %d, want %d", len(recent), PromptWindow)
	}

	rec.TruncateTranscript(KeepAfterCompact)
	if len(rec.Transcript) != KeepAfterCompact {
		t.Fatalf("Transcript after truncate = %d, want %d", len(rec.Transcript), KeepAfterCompact)
	}

	rec.AppendFact("one")
	rec.AppendFact("two")
	rec.AppendFact("three")
	rec.AppendFact("four")
	facts := rec.RecentFacts(3)
	if len(facts) != 3 || facts[0] != "two" || facts[2] != "four" {
		t.Fatalf("RecentFacts(3) = %v", facts)
	}
}

func TestInMemoryStoreClonesOnLoad(t *testing.T) {
	store := NewInMemoryStore("Asia/Kolkata")
	ctx := context.Background()

	rec := NewRecord("s", "Asia/Kolkata")
	rec.AppendTurn("u", "b")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got.AppendTurn("mutated", "mutated")

	again, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(again.Transcript) != 1 {
		t.Fatalf("stored transcript mutated through loaded copy: %d turns", len(again.Transcript))
	}
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), "Asia/Kolkata")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}
