package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/hugin/hugin/internal/schema"
)

const openaiToolCall = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1730000000,
  "model": "test-model",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [{
        "id": "call_abc",
        "type": "function",
        "function": {"name": "cal_get_events", "arguments": "{\"day\":\"2025-11-03\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60}
}`

const openaiAnswer = `{
  "id": "chatcmpl-2",
  "object": "chat.completion",
  "created": 1730000001,
  "model": "test-model",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "Nothing on Monday."}
  }],
  "usage": {"prompt_tokens": 70, "completion_tokens": 5, "total_tokens": 75}
}`

func TestOpenAI_ToolCallRoundTrip(t *testing.T) {
	rec, srv := newRecorder(t, ok(openaiToolCall), ok(openaiAnswer))
	a := NewOpenAIAdapter(testOptions("openai", srv.URL))
	ctx := context.Background()

	turn, err := a.SendTurn(ctx, "What's on Monday?", catalog)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	calls := a.ExtractToolCalls(turn)
	if len(calls) != 1 || calls[0].ID != "call_abc" || calls[0].Input["day"] != "2025-11-03" {
		t.Fatalf("calls = %+v", calls)
	}

	a.AppendToolResult(schema.ToolResult{CallID: "call_abc", Content: "[]"}, turn)
	turn2, err := a.SendTurn(ctx, "", catalog)
	if err != nil {
		t.Fatalf("second SendTurn: %v", err)
	}
	if got := a.ExtractText(turn2); got != "Nothing on Monday." {
		t.Errorf("answer = %q", got)
	}

	if rec.paths[0] != "/chat/completions" {
		t.Errorf("path = %s", rec.paths[0])
	}
	if got := rec.headers[0].Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q", got)
	}
	if _, ok := rec.body(0)["tools"]; !ok {
		t.Error("first request carries no tools")
	}

	msgs := messagesOf(t, rec.body(1))
	// system, user, assistant(tool_calls), tool
	if len(msgs) != 4 {
		t.Fatalf("second request has %d messages, want 4", len(msgs))
	}
	if msgs[0]["role"] != "system" {
		t.Errorf("first role = %v", msgs[0]["role"])
	}
	if _, ok := msgs[2]["tool_calls"]; !ok {
		t.Errorf("assistant message lost its tool calls: %v", msgs[2])
	}
	if msgs[3]["role"] != "tool" || msgs[3]["tool_call_id"] != "call_abc" {
		t.Errorf("tool message = %v", msgs[3])
	}

	if u := a.Usage(); u.InputTokens != 120 || u.OutputTokens != 15 || u.Calls != 2 {
		t.Errorf("usage = %+v", u)
	}
}

func TestOpenAI_RateLimitIsTransient(t *testing.T) {
	limited := cannedResponse{status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`}
	rec, srv := newRecorder(t, limited, ok(openaiAnswer))
	a := NewOpenAIAdapter(testOptions("openai", srv.URL))

	if _, err := a.SendTurn(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("requests = %d, want 2", rec.count())
	}
}

func TestOpenAI_BadRequestIsFatal(t *testing.T) {
	rec, srv := newRecorder(t, cannedResponse{status: http.StatusBadRequest, body: `{"error":{"message":"bad"}}`})
	a := NewOpenAIAdapter(testOptions("openai", srv.URL))

	_, err := a.SendTurn(context.Background(), "hi", nil)
	if err == nil || schema.IsTransient(err) {
		t.Fatalf("err = %v, want fatal", err)
	}
	if rec.count() != 1 {
		t.Errorf("requests = %d, want 1", rec.count())
	}
}

func TestParseOpenAIChoice_RepairsArguments(t *testing.T) {
	if _, err := repairJSON(`{"city":"Oslo"}}`); err != nil {
		t.Fatalf("repairJSON: %v", err)
	}
	got, _ := repairJSON("")
	if len(got) != 0 {
		t.Errorf("empty arguments = %v", got)
	}
}
