package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hugin/hugin/internal/conversation"
)

// recorder is an httptest backend that replays canned responses in order
// and keeps every request body it saw.
type recorder struct {
	t         *testing.T
	mu        sync.Mutex
	bodies    []map[string]any
	headers   []http.Header
	paths     []string
	responses []cannedResponse
}

type cannedResponse struct {
	status int
	body   string
}

func newRecorder(t *testing.T, responses ...cannedResponse) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{t: t, responses: responses}
	srv := httptest.NewServer(http.HandlerFunc(rec.serve))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) serve(w http.ResponseWriter, req *http.Request) {
	data, _ := io.ReadAll(req.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	r.mu.Lock()
	i := len(r.bodies)
	r.bodies = append(r.bodies, body)
	r.headers = append(r.headers, req.Header.Clone())
	r.paths = append(r.paths, req.URL.Path)
	r.mu.Unlock()

	if i >= len(r.responses) {
		r.t.Errorf("unexpected request #%d to %s", i+1, req.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	resp := r.responses[i]
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func (r *recorder) body(i int) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[i]
}

func ok(body string) cannedResponse { return cannedResponse{status: http.StatusOK, body: body} }

// instantRetry retries without sleeping.
func instantRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		after: func(time.Duration) <-chan time.Time {
			ch := make(chan time.Time, 1)
			ch <- time.Now()
			return ch
		},
	}
}

func testOptions(provider, baseURL string) Options {
	return Options{
		Provider:     provider,
		Model:        "test-model",
		APIKey:       "test-key",
		BaseURL:      baseURL,
		SystemPrompt: "You are Hugin.",
		Budget:       conversation.DefaultBudget(),
		Retry:        instantRetry(3),
		Timeout:      5 * time.Second,
	}
}

// messagesOf returns the "messages" array of a captured request body.
func messagesOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["messages"].([]any)
	if !ok {
		t.Fatalf("request has no messages: %v", body)
	}
	out := make([]map[string]any, len(raw))
	for i, m := range raw {
		out[i] = m.(map[string]any)
	}
	return out
}
