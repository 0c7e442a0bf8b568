package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/creatorscout/creatorscout/internal/util"
)

const (
	defaultBaseURL = "https://www.googleapis.com"
	defaultTimeout = 10 * time.Second

	// maxPerQuery is the Custom Search API's per-request result cap.
	maxPerQuery = 10
)

// ClientConfig configures the Google Custom Search JSON API client.
type ClientConfig struct {
	APIKey   string
	EngineID string

	// BaseURL overrides the API base URL. Useful for proxies/testing.
	BaseURL string

	// RateLimitRPS throttles outgoing queries. 0 disables throttling.
	RateLimitRPS float64

	// Timeout bounds each request. 0 means defaultTimeout.
	Timeout time.Duration
}

// Client calls the Google Custom Search JSON API.
type Client struct {
	baseURL  *url.URL
	apiKey   string
	engineID string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient constructs a search client from config.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("search api key is required")
	}
	if strings.TrimSpace(cfg.EngineID) == "" {
		return nil, fmt.Errorf("search engine id is required")
	}

	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = defaultBaseURL
	}
	base, err := parseBaseURL(raw)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	return &Client{
		baseURL:  base,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		engineID: strings.TrimSpace(cfg.EngineID),
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse search base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("search base URL must include a host (got %q)", raw)
	}
	// Ensure the base path ends with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type searchResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search issues one query and returns up to maxResults raw hits.
// maxResults outside 1..10 is clamped to the API cap.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if maxResults <= 0 || maxResults > maxPerQuery {
		maxResults = maxPerQuery
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.resolve("customsearch/v1")
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(maxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newAPIError(resp, b)
	}

	var out searchResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]Result, 0, len(out.Items))
	for _, item := range out.Items {
		results = append(results, Result{
			Link:    strings.TrimSpace(item.Link),
			Title:   strings.TrimSpace(item.Title),
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}
	return results, nil
}

func (c *Client) resolve(relPath string) *url.URL {
	relPath = strings.TrimPrefix(relPath, "/")
	rel := &url.URL{Path: relPath}
	return c.baseURL.ResolveReference(rel)
}

// apiErrorEnvelope is the standard Google API error envelope. Real responses
// may include additional fields; we intentionally ignore them.
type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError is a sanitized summary of a non-2xx search API response.
//
// Important: do not include raw response bodies here (messages can echo the
// keyed request URL).
type APIError struct {
	StatusCode int
	Status     string
	Reason     string

	// Snippet is a redacted, truncated hint for non-envelope responses.
	Snippet string
}

func (e *APIError) Error() string {
	if e == nil {
		return "search api error"
	}
	parts := []string{
		fmt.Sprintf("search api error: status=%s", strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Reason) != "" {
		parts = append(parts, "reason="+strings.TrimSpace(e.Reason))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

func newAPIError(resp *http.Response, body []byte) error {
	e := &APIError{}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Status = resp.Status
	}

	// Best effort: parse the error envelope.
	var env apiErrorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		e.Reason = util.RedactSecrets(strings.TrimSpace(env.Error.Message))
		if e.Reason != "" {
			return e
		}
	}

	// Fallback: include a small, redacted hint only.
	e.Snippet = redactAndTruncate(body)
	return e
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	// Keep this small: response bodies can contain sensitive data.
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := util.RedactSecrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
