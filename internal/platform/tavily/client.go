package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/manga-recommender/internal/platform/httpx"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const maxBodyBytes = 2 << 20

type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	// SearchDepth is "basic" or "advanced".
	SearchDepth string
	Timeout     time.Duration
	MaxRetries  int
}

// ConfigFromEnv reads TAVILY_* variables. MaxRetries of -1 means the default.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:      strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		BaseURL:     strings.TrimSpace(os.Getenv("TAVILY_BASE_URL")),
		SearchDepth: strings.TrimSpace(os.Getenv("TAVILY_SEARCH_DEPTH")),
		MaxRetries:  -1,
	}
	if v := strings.TrimSpace(os.Getenv("TAVILY_MAX_RESULTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TAVILY_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.tavily.com"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxResults <= 0 {
		c.MaxResults = 3
	}
	if c.SearchDepth == "" {
		c.SearchDepth = "basic"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 2
	}
	return c
}

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tavily http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	return newClient(log, cfg, nil)
}

func newClient(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing TAVILY_API_KEY")
	}
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{log: log.With("service", "TavilyClient"), cfg: cfg, httpClient: httpClient}, nil
}

// Results runs a web search and returns its hits in the provider's order.
func (c *Client) Results(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	body := map[string]any{
		"query":        query,
		"max_results":  c.cfg.MaxResults,
		"search_depth": c.cfg.SearchDepth,
	}
	var out searchResponse
	if err := c.do(ctx, "/search", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Search joins the non-empty snippets of the hits into one note. It returns ""
// when the search finds nothing.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	results, err := c.Results(ctx, query)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if s := strings.Join(strings.Fields(r.Content), " "); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (c *Client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, path string, body any, out any) error {
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("tavily decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries || ctx.Err() != nil {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("Tavily request retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", err.Error())
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}
