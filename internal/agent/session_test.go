package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hugin/hugin/internal/mcp"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/tools"
	"github.com/hugin/hugin/internal/transcript"
)

// fakeServer is an in-memory MCP session with one calendar tool.
type fakeServer struct {
	mu     sync.Mutex
	calls  []string
	closed int
}

func (s *fakeServer) ListTools(context.Context) ([]schema.ToolDescriptor, error) {
	return []schema.ToolDescriptor{descriptor("get_events")}, nil
}

func (s *fakeServer) CallTool(_ context.Context, name string, args map[string]any) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return "standup at 09:00 on " + args["day"].(string), false, nil
}

func (s *fakeServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	exchanges []transcript.Exchange
	closed    int
}

func (r *fakeRecorder) Record(_ context.Context, e transcript.Exchange) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, e)
	return int64(len(r.exchanges)), nil
}

func (r *fakeRecorder) Close() error {
	r.closed++
	return nil
}

type sessionFixture struct {
	session  *Session
	adapter  *fakeAdapter
	server   *fakeServer
	recorder *fakeRecorder
	prompt   string
}

func newFixture(t *testing.T, send func(context.Context, int, string) (*schema.ModelTurn, error)) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		adapter:  &fakeAdapter{send: send},
		server:   &fakeServer{},
		recorder: &fakeRecorder{},
	}
	cal := mcp.NewConnection("cal", func(context.Context) (mcp.Session, error) { return f.server, nil }, mcp.Options{})
	down := mcp.NewConnection("mail", func(context.Context) (mcp.Session, error) {
		return nil, errors.New("connection refused")
	}, mcp.Options{})

	f.session = NewSession(SessionOptions{
		NewAdapter: func(system string) (schema.Adapter, error) {
			f.prompt = system
			return f.adapter, nil
		},
		Servers:      mcp.NewManager(cal, down),
		Builtins:     tools.NewRegistry(tools.NewDateRangeTool()),
		Prompts:      NewPromptBuilder(t.TempDir(), ""),
		Transcript:   f.recorder,
		Orchestrator: testConfig(5),
	})
	return f
}

// ─── Lifecycle ───

func TestSession_ProcessBeforeInitialize(t *testing.T) {
	f := newFixture(t, scripted(textTurn("hi")))
	if _, err := f.session.ProcessMessage(context.Background(), "hello"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
	if f.session.Catalog() != nil {
		t.Error("catalog should be nil before Initialize")
	}
}

func TestSession_InitializeBuildsCatalog(t *testing.T) {
	f := newFixture(t, scripted(textTurn("hi")))
	if err := f.session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var names []string
	for _, d := range f.session.Catalog() {
		names = append(names, d.Name)
	}
	got := strings.Join(names, ",")
	if got != "hugin_calculate_date_range,cal_get_events" {
		t.Errorf("catalog = %s", got)
	}
	if !strings.Contains(f.prompt, "You are Hugin") || !strings.Contains(f.prompt, "cal, hugin") {
		t.Errorf("system prompt = %q", f.prompt)
	}

	// A second Initialize keeps the first adapter.
	f.prompt = ""
	if err := f.session.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if f.prompt != "" {
		t.Error("second Initialize rebuilt the adapter")
	}
}

func TestSession_ProcessMessageRoundTrip(t *testing.T) {
	f := newFixture(t, scripted(
		callTurn(call("c1", "cal_get_events", map[string]any{"day": "2025-11-03"})),
		textTurn("You have standup at 09:00."),
	))
	ctx := context.Background()
	if err := f.session.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	answer, err := f.session.ProcessMessage(ctx, "what's on monday?")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if answer != "You have standup at 09:00." {
		t.Errorf("answer = %q", answer)
	}
	if len(f.server.calls) != 1 || f.server.calls[0] != "get_events" {
		t.Errorf("server calls = %v", f.server.calls)
	}
	if len(f.adapter.results) != 1 || f.adapter.results[0].Content != "standup at 09:00 on 2025-11-03" {
		t.Errorf("results = %+v", f.adapter.results)
	}

	if len(f.recorder.exchanges) != 1 {
		t.Fatalf("exchanges = %d", len(f.recorder.exchanges))
	}
	e := f.recorder.exchanges[0]
	if e.Prompt != "what's on monday?" || e.Answer != answer || e.Iterations != 2 || e.ToolCalls != 1 || e.Error != "" {
		t.Errorf("exchange = %+v", e)
	}
}

func TestSession_CancelledTurnLeavesSessionUsable(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, n int, _ string) (*schema.ModelTurn, error) {
		if n == 0 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &schema.ModelTurn{Text: "back again"}, nil
	})
	if err := f.session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.session.ProcessMessage(ctx, "slow question"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(f.recorder.exchanges) != 1 || f.recorder.exchanges[0].Error != context.Canceled.Error() {
		t.Errorf("exchanges = %+v", f.recorder.exchanges)
	}

	answer, err := f.session.ProcessMessage(context.Background(), "again")
	if err != nil || answer != "back again" {
		t.Errorf("after cancel: %q, %v", answer, err)
	}

	f.session.Cleanup()
}

func TestSession_ClearHistoryAndUsage(t *testing.T) {
	f := newFixture(t, scripted(textTurn("one"), textTurn("two")))
	if got := f.session.Usage(); got != (schema.Usage{}) {
		t.Errorf("usage before Initialize = %+v", got)
	}
	ctx := context.Background()
	if err := f.session.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, q := range []string{"a", "b"} {
		if _, err := f.session.ProcessMessage(ctx, q); err != nil {
			t.Fatalf("ProcessMessage: %v", err)
		}
	}
	if u := f.session.Usage(); u.Calls != 2 || u.Total() != 24 {
		t.Errorf("usage = %+v", u)
	}
	f.session.ClearHistory()
	if f.adapter.cleared != 1 {
		t.Errorf("cleared = %d", f.adapter.cleared)
	}
}

func TestSession_CleanupIsIdempotent(t *testing.T) {
	f := newFixture(t, scripted(textTurn("hi")))
	if err := f.session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	f.session.Cleanup()
	f.session.Cleanup()

	if f.server.closed != 1 {
		t.Errorf("server closed %d times, want 1", f.server.closed)
	}
	if f.recorder.closed != 1 {
		t.Errorf("transcript closed %d times, want 1", f.recorder.closed)
	}
	for _, c := range f.session.Connections() {
		if c.IsConnected() {
			t.Errorf("%s still connected", c.Name())
		}
	}
}

func TestSession_CleanupWithoutInitialize(t *testing.T) {
	s := NewSession(SessionOptions{NewAdapter: func(string) (schema.Adapter, error) { return nil, nil }})
	s.Cleanup()
}

func TestSession_AdapterFactoryError(t *testing.T) {
	s := NewSession(SessionOptions{
		NewAdapter: func(string) (schema.Adapter, error) { return nil, errors.New("no API key") },
	})
	err := s.Initialize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no API key") {
		t.Errorf("err = %v", err)
	}
}
