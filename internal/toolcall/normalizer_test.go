package toolcall

import (
	"errors"
	"testing"

	"github.com/hugin/hugin/internal/schema"
)

func TestNormalize_StructuredWins(t *testing.T) {
	structured := []schema.ToolCall{{ID: "toolu_1", Name: "cal_get_events", Input: map[string]any{"day": "mon"}}}
	got := Normalize(structured, `{"name":"other","arguments":{}}`)
	if len(got) != 1 || got[0].ID != "toolu_1" || got[0].Name != "cal_get_events" {
		t.Fatalf("Normalize = %+v, want structured call unchanged", got)
	}
}

func TestNormalize_AssignsSequentialIDs(t *testing.T) {
	got := Normalize([]schema.ToolCall{{Name: "a"}, {Name: "b"}, {ID: "keep", Name: "c"}}, "")
	want := []string{"call_0", "call_1", "keep"}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("call %d id = %q, want %q", i, c.ID, want[i])
		}
		if c.Input == nil {
			t.Errorf("call %d has nil input", i)
		}
	}
}

func TestNormalize_TextAliases(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"canonical", `{"name":"foo","arguments":{"x":1}}`},
		{"function aliases", `{"function_name":"foo","function_arg":{"x":1}}`},
		{"args alias", `{"name":"foo","args":{"x":1}}`},
		{"surrounded by prose", "Sure, calling it now:\n```json\n{\"name\": \"foo\", \"arguments\": {\"x\": 1}}\n```\nDone."},
		{"stringified arguments", `{"name":"foo","arguments":"{\"x\":1}"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(nil, tc.text)
			if len(got) != 1 {
				t.Fatalf("got %d calls, want 1", len(got))
			}
			c := got[0]
			if c.ID != "call_0" || c.Name != "foo" {
				t.Errorf("call = %+v", c)
			}
			if x, ok := c.Input["x"].(float64); !ok || x != 1 {
				t.Errorf("input = %v, want x=1", c.Input)
			}
		})
	}
}

func TestNormalize_PlainTextAndMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"The answer is 42.",
		`{"name": "foo", "arguments": {"x": 1}`,
		`{"arguments": {"x": 1}}`,
		`{"name": "foo", "arguments": [1, 2]}`,
		`{"name": 7}`,
		`{not json at all}`,
	} {
		if got := Normalize(nil, text); len(got) != 0 {
			t.Errorf("Normalize(%q) = %+v, want no calls", text, got)
		}
	}
}

func TestNormalize_NameWithoutArgumentsIsAnAnswer(t *testing.T) {
	for _, text := range []string{
		`{"name":"hugin_calculate_date_range"}`,
		"Here is the record you asked for: {\"name\": \"Alice\", \"age\": 30}",
	} {
		if got := Normalize(nil, text); len(got) != 0 {
			t.Errorf("Normalize(%q) = %+v, want no calls", text, got)
		}
	}
}

func TestNormalize_NullArgumentsIsEmptyInput(t *testing.T) {
	got := Normalize(nil, `{"name":"hugin_calculate_date_range","arguments":null}`)
	if len(got) != 1 || got[0].Input == nil || len(got[0].Input) != 0 {
		t.Fatalf("got %+v, want one call with empty input", got)
	}
}

func TestNormalize_SkipsLeadingNonCallObjects(t *testing.T) {
	text := `Checking {today}. {"name":"hugin_calculate_date_range","arguments":{"period":"today"}}`
	got := Normalize(nil, text)
	if len(got) != 1 || got[0].Name != "hugin_calculate_date_range" || got[0].Input["period"] != "today" {
		t.Fatalf("got %+v", got)
	}

	text = `{"name": "Alice", "age": 30} then {"function_name":"foo","args":{"x":1}}`
	if got := Normalize(nil, text); len(got) != 1 || got[0].Name != "foo" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalizer_IDsUniqueAcrossTurns(t *testing.T) {
	var n Normalizer
	first := n.Normalize(nil, `{"name":"foo","arguments":{}}`)
	second := n.Normalize(nil, `{"name":"foo","arguments":{}}`)
	third := n.Normalize([]schema.ToolCall{{Name: "a"}, {ID: "toolu_9", Name: "b"}, {Name: "c"}}, "")

	var ids []string
	for _, batch := range [][]schema.ToolCall{first, second, third} {
		for _, c := range batch {
			ids = append(ids, c.ID)
		}
	}
	want := []string{"call_0", "call_1", "call_2", "toolu_9", "call_3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
}

func TestFind_ReturnsMatchedSpan(t *testing.T) {
	text := `See {today}: {"name":"foo","arguments":{"x":1}} ok`
	_, span, err := Find(text)
	if err != nil || span != `{"name":"foo","arguments":{"x":1}}` {
		t.Errorf("span = %q, err = %v", span, err)
	}
}

func TestParseText_ErrorIsMalformed(t *testing.T) {
	_, err := ParseText("no json here")
	if !errors.Is(err, schema.ErrMalformedToolCall) {
		t.Errorf("err = %v, want ErrMalformedToolCall", err)
	}
}

func TestFindObjects_AllTopLevelSpans(t *testing.T) {
	got := FindObjects(`a {x} b {"k":{"n":1}} c {unclosed`)
	if len(got) != 2 || got[0] != "{x}" || got[1] != `{"k":{"n":1}}` {
		t.Errorf("FindObjects = %q", got)
	}
}

func TestFindObject_IgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"name":"echo","arguments":{"s":"a } b { c \" }"}} suffix {"x":1}`
	span, ok := FindObject(text)
	if !ok {
		t.Fatal("no span found")
	}
	want := `{"name":"echo","arguments":{"s":"a } b { c \" }"}}`
	if span != want {
		t.Errorf("span = %s\nwant  %s", span, want)
	}
}
