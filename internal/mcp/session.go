package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	toolcfg "github.com/hugin/hugin/internal/config/tool"
	"github.com/hugin/hugin/internal/schema"
)

// Session is one live connection to a tool provider.
type Session interface {
	ListTools(ctx context.Context) ([]schema.ToolDescriptor, error)
	// CallTool returns the tool's text output. isError is set when the
	// tool ran but reported a failure.
	CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error)
	Close() error
}

// Dialer opens a new Session. It is called again on every reconnect.
type Dialer func(ctx context.Context) (Session, error)

// NewDialer returns a Dialer speaking MCP to the configured server:
// streamable HTTP when a URL is set, a stdio subprocess otherwise.
func NewDialer(name string, cfg toolcfg.MCPServerConfig, version string) Dialer {
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "hugin", Version: version}, nil)
	return func(ctx context.Context) (Session, error) {
		transport, err := newTransport(cfg)
		if err != nil {
			return nil, fmt.Errorf("MCP server %q: %w", name, err)
		}
		cs, err := client.Connect(ctx, transport, nil)
		if err != nil {
			return nil, err
		}
		return &sdkSession{cs: cs}, nil
	}
}

func newTransport(cfg toolcfg.MCPServerConfig) (mcpsdk.Transport, error) {
	if cfg.IsRemote() {
		httpClient := &http.Client{}
		if len(cfg.Headers) > 0 {
			httpClient.Transport = &headerTransport{headers: cfg.Headers, base: http.DefaultTransport}
		}
		return &mcpsdk.StreamableClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}, nil
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("no command or url configured")
	}
	// Not bound to the dial context: the process must outlive the connect
	// timeout. Closing the session stops it.
	cmd := exec.Command(cfg.Command, cfg.Args...) // #nosec G204 -- from trusted config
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// ---------------------------------------------------------------------------
// go-sdk backed Session
// ---------------------------------------------------------------------------

type sdkSession struct {
	cs *mcpsdk.ClientSession
}

var _ Session = (*sdkSession)(nil)

func (s *sdkSession) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	var out []schema.ToolDescriptor
	for tool, err := range s.cs.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		out = append(out, toDescriptor(tool))
	}
	return out, nil
}

func (s *sdkSession) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := s.cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", false, err
	}
	return resultText(res), res.IsError, nil
}

func (s *sdkSession) Close() error { return s.cs.Close() }

func toDescriptor(tool *mcpsdk.Tool) schema.ToolDescriptor {
	input := map[string]any{}
	if tool.InputSchema != nil {
		if data, err := json.Marshal(tool.InputSchema); err == nil {
			_ = json.Unmarshal(data, &input)
		}
	}
	if len(input) == 0 {
		input = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return schema.ToolDescriptor{Name: tool.Name, Description: tool.Description, InputSchema: input}
}

// resultText flattens a tool result into one string. Text blocks are
// joined by newlines; other content is kept as JSON.
func resultText(res *mcpsdk.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch v := c.(type) {
		case *mcpsdk.TextContent:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		default:
			if data, err := json.Marshal(c); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		if data, err := json.Marshal(res.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		out = "(no output)"
	}
	return out
}
