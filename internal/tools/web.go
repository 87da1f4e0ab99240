package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	webUserAgent   = "Mozilla/5.0 (compatible; hugin/1.0; +https://github.com/hugin/hugin)"
	braveSearchURL = "https://api.search.brave.com/res/v1/web/search"
	maxRedirects   = 5
	// maxFetchBody bounds what is read off the wire; the compressor bounds
	// what reaches the model.
	maxFetchBody = 8 << 20
)

// ---------------------------------------------------------------------------
// WebSearchTool
// ---------------------------------------------------------------------------

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchResult is the payload of a successful search.
type SearchResult struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// WebSearchTool queries the Brave Search API.
type WebSearchTool struct {
	apiKey     string
	maxResults int
	endpoint   string
	httpClient *http.Client
}

// NewWebSearchTool creates a WebSearchTool. An empty apiKey falls back to
// BRAVE_API_KEY; maxResults defaults to 5.
func NewWebSearchTool(apiKey string, maxResults int) *WebSearchTool {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchTool{
		apiKey:     apiKey,
		maxResults: maxResults,
		endpoint:   braveSearchURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WebSearchTool) Name() string { return string(ToolWebSearch) }
func (t *WebSearchTool) Description() string {
	return "Search the web. Returns JSON with a title, URL and snippet per result."
}
func (t *WebSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query"},
			"count": {"type": "integer", "description": "Number of results (1-10)", "minimum": 1, "maximum": 10}
		},
		"required": ["query"]
	}`)
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return failure("query is required", nil), nil
	}
	if t.apiKey == "" {
		return failure("web search is not configured (set tools.web.search.api_key or BRAVE_API_KEY)", nil), nil
	}
	count := max(1, min(10, intParam(params, "count", t.maxResults)))

	hits, err := t.search(ctx, query, count)
	if err != nil {
		slog.Warn("web search failed", "query", query, "err", err)
		return failure(err.Error(), map[string]any{"query": query}), nil
	}
	return jsonString(SearchResult{Query: query, Results: hits}), nil
}

func (t *WebSearchTool) search(ctx context.Context, query string, count int) ([]SearchHit, error) {
	q := url.Values{"q": {query}, "count": {fmt.Sprint(count)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned HTTP %d", resp.StatusCode)
	}

	var data struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	hits := make([]SearchHit, 0, count)
	for _, r := range data.Web.Results {
		if len(hits) == count {
			break
		}
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return hits, nil
}

// ---------------------------------------------------------------------------
// WebFetchTool
// ---------------------------------------------------------------------------

// FetchResult is the payload of a fetched page.
type FetchResult struct {
	URL       string `json:"url"`
	FinalURL  string `json:"final_url"`
	Status    int    `json:"status"`
	Title     string `json:"title,omitempty"`
	Byline    string `json:"byline,omitempty"`
	Extractor string `json:"extractor"`
	Text      string `json:"text"`
}

// WebFetchTool downloads a page and extracts its readable text.
type WebFetchTool struct {
	httpClient *http.Client
}

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{httpClient: &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}}
}

func (t *WebFetchTool) Name() string { return string(ToolWebFetch) }
func (t *WebFetchTool) Description() string {
	return "Fetch a URL and return its readable text as JSON. HTML pages go through article extraction."
}
func (t *WebFetchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "http or https URL to fetch"}
		},
		"required": ["url"]
	}`)
}

func (t *WebFetchTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	raw, _ := params["url"].(string)
	if raw == "" {
		return failure("url is required", nil), nil
	}
	u, err := parseWebURL(raw)
	if err != nil {
		return failure("URL validation failed: "+err.Error(), map[string]any{"url": raw}), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failure(err.Error(), map[string]any{"url": raw}), nil
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return failure(err.Error(), map[string]any{"url": raw}), nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
	if err != nil {
		return failure(err.Error(), map[string]any{"url": raw}), nil
	}
	if resp.StatusCode >= 400 {
		return failure(fmt.Sprintf("HTTP %d", resp.StatusCode), map[string]any{"url": raw}), nil
	}

	res := FetchResult{URL: raw, FinalURL: resp.Request.URL.String(), Status: resp.StatusCode}
	extract(&res, resp.Header.Get("Content-Type"), body, resp.Request.URL)
	slog.Debug("fetched page", "url", raw, "extractor", res.Extractor, "chars", len(res.Text))
	return jsonString(res), nil
}

// extract fills res.Text according to the body's content type.
func extract(res *FetchResult, contentType string, body []byte, base *url.URL) {
	switch {
	case strings.Contains(contentType, "application/json"):
		res.Extractor = "json"
		var buf bytes.Buffer
		if json.Indent(&buf, body, "", "  ") == nil {
			res.Text = buf.String()
		} else {
			res.Text = string(body)
		}

	case strings.Contains(contentType, "text/html") || looksLikeHTML(body):
		article, err := readability.FromReader(bytes.NewReader(body), base)
		if err == nil && strings.TrimSpace(article.TextContent) != "" {
			res.Extractor = "readability"
			res.Title = article.Title
			res.Byline = article.Byline
			res.Text = tidyText(article.TextContent)
			return
		}
		slog.Debug("readability found no article, stripping tags", "url", base, "err", err)
		res.Extractor = "tags"
		res.Text = tidyText(stripTags(string(body)))

	default:
		res.Extractor = "raw"
		res.Text = string(body)
	}
}

func parseWebURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("only http and https are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}

func looksLikeHTML(b []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

var (
	reInvisible = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</(script|style|noscript)>`)
	reTag       = regexp.MustCompile(`<[^>]+>`)
)

func stripTags(html string) string {
	return reTag.ReplaceAllString(reInvisible.ReplaceAllString(html, ""), " ")
}

// tidyText trims every line, collapses runs of spaces and keeps at most
// one blank line between paragraphs.
func tidyText(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// intParam reads an integer argument that may arrive as a JSON number.
func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}
