package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hugin/hugin/internal/schema"
)

// postJSON sends body to url and returns the raw response on HTTP 200.
// Rate-limit and overload statuses come back as TransientBackendError.
func postJSON(
	ctx context.Context,
	client *http.Client,
	provider, url string,
	headers map[string]string,
	body any,
) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s HTTP request: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(provider, resp.StatusCode, raw)
	}
	return raw, nil
}

// statusError classifies a non-200 response.
func statusError(provider string, status int, body []byte) error {
	err := fmt.Errorf("HTTP %d: %s", status, friendlyHTTPError(status, body))
	if isTransientStatus(status) {
		return &schema.TransientBackendError{Provider: provider, Status: status, Err: err}
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// isTransientStatus covers rate limiting (429), Anthropic overload (529)
// and upstream 5xx.
func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == 529 || status >= 500
}

func friendlyHTTPError(code int, body []byte) string {
	switch code {
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case 529:
		return "backend overloaded"
	case http.StatusUnauthorized:
		return "authentication failed (check llm.api_key)"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

// repairJSON attempts to unmarshal JSON, retrying after stripping trailing
// garbage characters. This handles some LLMs that emit truncated tool arguments.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	// Attempt 1: trim trailing non-JSON characters.
	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	// Attempt 2: find the last complete JSON object.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}

	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", raw)
}
