package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := newClient(logger.Nop(), Config{APIKey: "tvly-test", BaseURL: srv.URL, MaxRetries: 1}, srv.Client())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return c
}

func TestSearchJoinsSnippets(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("path: want=/search got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tvly-test" {
			t.Fatalf("auth header: got=%q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "a", "content": "Slam Dunk is a\n basketball manga."},
				{"title": "b", "content": "   "},
				{"title": "c", "content": "By Takehiko Inoue."},
			},
		})
	})

	note, err := c.Search(context.Background(), " Slam Dunk manga ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := "Slam Dunk is a basketball manga.\nBy Takehiko Inoue."
	if note != want {
		t.Fatalf("note: want=%q got=%q", want, note)
	}
	if got["query"] != "Slam Dunk manga" || got["max_results"] != float64(3) {
		t.Fatalf("request body: got=%v", got)
	}
}

func TestSearchEmptyQuerySkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request")
	})
	note, err := c.Search(context.Background(), "  ")
	if err != nil || note != "" {
		t.Fatalf("empty query: got=%q err=%v", note, err)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{{"content": "ok"}}})
	})
	note, err := c.Search(context.Background(), "q")
	if err != nil || note != "ok" {
		t.Fatalf("Search: got=%q err=%v", note, err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestSearchClientErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Search(context.Background(), "q")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 HTTPError got=%v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("NewClient: expected error without api key")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "k")
	t.Setenv("TAVILY_BASE_URL", "")
	t.Setenv("TAVILY_SEARCH_DEPTH", "")
	t.Setenv("TAVILY_MAX_RESULTS", "5")
	t.Setenv("TAVILY_TIMEOUT_SECONDS", "")
	cfg := ConfigFromEnv().withDefaults()
	if cfg.APIKey != "k" || cfg.MaxResults != 5 || cfg.BaseURL != "https://api.tavily.com" || cfg.MaxRetries != 2 {
		t.Fatalf("config: got=%+v", cfg)
	}
}
