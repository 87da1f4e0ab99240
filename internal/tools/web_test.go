package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func braveServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "key" || r.URL.Query().Get("q") != "hugin" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"Hugin","url":"https://example.com/hugin","description":"Thought"},
			{"title":"Munin","url":"https://example.com/munin"}
		]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSearch(t *testing.T) {
	tool := NewWebSearchTool("key", 5)
	tool.endpoint = braveServer(t).URL

	out, _ := tool.Execute(context.Background(), map[string]any{"query": "hugin", "count": float64(1)})
	var res SearchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if res.Query != "hugin" || len(res.Results) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if hit := res.Results[0]; hit.Title != "Hugin" || hit.URL != "https://example.com/hugin" || hit.Snippet != "Thought" {
		t.Errorf("hit = %+v", hit)
	}
}

func TestWebSearch_Failures(t *testing.T) {
	noKey := NewWebSearchTool("", 5)
	noKey.apiKey = ""
	out, _ := noKey.Execute(context.Background(), map[string]any{"query": "x"})
	if msg, failed := failureText(out); !failed || !strings.Contains(msg, "not configured") {
		t.Errorf("no key: %q", out)
	}

	badKey := NewWebSearchTool("wrong", 5)
	badKey.endpoint = braveServer(t).URL
	out, _ = badKey.Execute(context.Background(), map[string]any{"query": "hugin"})
	if msg, failed := failureText(out); !failed || !strings.Contains(msg, "HTTP 403") {
		t.Errorf("bad key: %q", out)
	}
}

func TestWebFetch_ExtractsArticle(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Ravens</title></head><body>
		<article><h1>Ravens</h1>
		<p>Hugin and Munin fly each day over the world. They return at dusk and report what they have seen.
		The ravens are known for their memory and their thought, and they are among the most loyal companions.</p>
		<p>Stories about them are told across the northern lands, in songs and in sagas written long ago.</p>
		</article></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	out, _ := NewWebFetchTool().Execute(context.Background(), map[string]any{"url": srv.URL})
	var res FetchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if res.Extractor != "readability" || res.Status != 200 || !strings.Contains(res.Text, "Munin") {
		t.Errorf("res = %+v", res)
	}
}

func TestWebFetch_JSONAndHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	tool := NewWebFetchTool()
	out, _ := tool.Execute(context.Background(), map[string]any{"url": srv.URL + "/data"})
	var res FetchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if res.Extractor != "json" || res.Text != "{\n  \"a\": 1\n}" {
		t.Errorf("res = %+v", res)
	}

	out, _ = tool.Execute(context.Background(), map[string]any{"url": srv.URL + "/missing"})
	if msg, failed := failureText(out); !failed || msg != "HTTP 404" {
		t.Errorf("missing page: %q", out)
	}
}

func TestWebFetch_RejectsScheme(t *testing.T) {
	out, _ := NewWebFetchTool().Execute(context.Background(), map[string]any{"url": "file:///etc/passwd"})
	if msg, failed := failureText(out); !failed || !strings.Contains(msg, "URL validation failed") {
		t.Errorf("out = %q", out)
	}
}

func TestTidyText(t *testing.T) {
	got := tidyText(stripTags("<script>var x;</script><p>  one   two </p>\n\n\n\n<p>three</p>"))
	if got != "one two\n\nthree" {
		t.Errorf("tidyText = %q", got)
	}
}
