package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTriggered(t *testing.T) {
	cases := map[string]bool{
		"what's today's weather": true,
		"koi news batao":         true,
		"gold rate kya hai":      true,
		"petrol price update":    true,
		"kaise ho aaj":           false,
		"mujhe gaana sunna hai":  false,
		"tumhara din kaisa raha": false,
	}
	for in, want := range cases {
		if got := Triggered(in); got != want {
			t.Fatalf("Triggered(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLookupPrefersKnowledgeDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("X-API-KEY = %q, want key", r.Header.Get("X-API-KEY"))
		}
		w.Write([]byte(`{"knowledge":{"description":"Delhi me 31C hai."},"organic":[{"snippet":"ignored"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "weather delhi"); got != "Delhi me 31C hai." {
		t.Fatalf("Lookup = %q, want knowledge description", got)
	}
}

func TestLookupFallsBackToOrganicSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"organic":[{"snippet":"Sensex 80k ke paar."}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "sensex"); got != "Sensex 80k ke paar." {
		t.Fatalf("Lookup = %q, want organic snippet", got)
	}
}

func TestLookupNoResultSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "anything"); got != SentinelNoResult {
		t.Fatalf("Lookup = %q, want %q", got, SentinelNoResult)
	}
}

func TestLookupDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "anything"); got != SentinelUnavailable {
		t.Fatalf("Lookup = %q, want %q", got, SentinelUnavailable)
	}
}

func TestLookupDegradesOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "anything"); got != SentinelUnavailable {
		t.Fatalf("Lookup = %q, want %q", got, SentinelUnavailable)
	}
}

func TestLookupDegradesOnMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"organic":`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "key", Endpoint: srv.URL})
	if got := c.Lookup(context.Background(), "anything"); got != SentinelUnavailable {
		t.Fatalf("Lookup = %q, want %q", got, SentinelUnavailable)
	}
}

func TestLookupWithoutKeyReturnsSentinel(t *testing.T) {
	c := NewClient(Config{})
	if got := c.Lookup(context.Background(), "anything"); got != SentinelUnavailable {
		t.Fatalf("Lookup = %q, want %q", got, SentinelUnavailable)
	}
}
