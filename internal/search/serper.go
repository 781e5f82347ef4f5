// Package search provides live facts through the Serper web-search API.
// Failures never cross the package boundary: every outcome is a displayable
// string.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Sentinel strings returned in place of a failure or an empty result set.
const (
	SentinelUnavailable = "Live search abhi unavailable hai."
	SentinelNoResult    = "Kuch relevant result nahi mila."
)

// triggerKeywords redirect a turn to live search instead of generation.
var triggerKeywords = []string{"news", "weather", "price", "rate", "update"}

// Triggered reports whether the utterance should bypass the reply generator.
func Triggered(utterance string) bool {
	text := strings.ToLower(utterance)
	for _, kw := range triggerKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// WrapSnippet wraps a provider snippet in the fixed reply template.
func WrapSnippet(snippet string) string {
	return "Mujhe live search se pata chala: " + snippet
}

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client calls the Serper search endpoint.
type Client struct {
	apiKey   string
	endpoint string
	httpc    *http.Client
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = "https://google.serper.dev/search"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: cfg.Endpoint,
		httpc:    &http.Client{Timeout: cfg.Timeout},
	}
}

type serperResponse struct {
	Knowledge struct {
		Description string `json:"description"`
	} `json:"knowledge"`
	Organic []struct {
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Lookup returns a short natural-language snippet for the query, or a
// sentinel string. It never returns an error.
func (c *Client) Lookup(ctx context.Context, query string) string {
	if c.apiKey == "" {
		return SentinelUnavailable
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return SentinelUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return SentinelUnavailable
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("search request failed: %v", err)
		return SentinelUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("search status %d", resp.StatusCode)
		return SentinelUnavailable
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SentinelUnavailable
	}

	var parsed serperResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return SentinelUnavailable
	}

	if desc := strings.TrimSpace(parsed.Knowledge.Description); desc != "" {
		return desc
	}
	if len(parsed.Organic) > 0 {
		if snippet := strings.TrimSpace(parsed.Organic[0].Snippet); snippet != "" {
			return snippet
		}
	}
	return SentinelNoResult
}
