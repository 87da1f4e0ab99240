package compress

import (
	"encoding/json"
	"strings"
	"testing"
)

const events = `{
  "events": [
    {"summary": "Standup", "start": {"dateTime": "2025-11-04T09:00:00-05:00"}, "end": {"dateTime": "2025-11-04T09:15:00-05:00"}, "htmlLink": "https://example.invalid/1", "etag": "abc", "description": "long text"},
    {"summary": "Dentist", "start": {"date": "2025-11-03"}, "location": "Main St"},
    {"summary": "Retro", "start": {"dateTime": "2025-11-04T15:00:00-05:00"}, "creator": {"email": "x@y"}}
  ],
  "nextPageToken": "zzz"
}`

func TestReshapeCalendar_GroupsByDay(t *testing.T) {
	out, ok := ReshapeCalendar(events)
	if !ok {
		t.Fatal("calendar payload not recognised")
	}
	var cal Calendar
	if err := json.Unmarshal([]byte(out), &cal); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if cal.TotalEvents != 3 {
		t.Errorf("TotalEvents = %d, want 3", cal.TotalEvents)
	}
	if len(cal.Days) != 2 {
		t.Fatalf("days = %d, want 2", len(cal.Days))
	}
	if cal.Days[0].Date != "2025-11-03" || cal.Days[0].DayOfWeek != "Monday" {
		t.Errorf("day 0 = %s %s", cal.Days[0].Date, cal.Days[0].DayOfWeek)
	}
	if cal.Days[1].Date != "2025-11-04" || cal.Days[1].DayOfWeek != "Tuesday" || len(cal.Days[1].Events) != 2 {
		t.Errorf("day 1 = %+v", cal.Days[1])
	}
	if cal.Days[1].Events[0]["summary"] != "Standup" {
		t.Errorf("event order not preserved: %v", cal.Days[1].Events)
	}
	for _, dropped := range []string{"htmlLink", "etag", "description", "creator", "nextPageToken"} {
		if strings.Contains(out, dropped) {
			t.Errorf("non-essential field %q kept", dropped)
		}
	}
}

func TestReshapeCalendar_Rejects(t *testing.T) {
	for _, p := range []string{
		"plain text",
		`{"result": "ok"}`,
		`[]`,
		`[{"summary": "no date"}]`,
		`[{"date": "2025-11-03"}, "not an object"]`,
		`{"events": [{"start": "tomorrow"}]}`,
		`{"events": [{"summary": "Standup", "start": "tomorrow"}]}`,
		`[{"sha": "abc123", "message": "fix bug", "date": "2025-11-03"}]`,
		`[{"summary": "Standup", "date": "2025-11-03"}, {"sha": "abc123", "date": "2025-11-04"}]`,
		`[{"summary": "", "date": "2025-11-03"}]`,
	} {
		if _, ok := ReshapeCalendar(p); ok {
			t.Errorf("ReshapeCalendar(%q) recognised a non-calendar payload", p)
		}
	}
}

func TestCompress_CalendarIsNotTruncated(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 300; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"title":"Meeting","date":"2025-11-0`)
		b.WriteByte(byte('1' + i%7))
		b.WriteString(`","notes":"` + strings.Repeat("n", 50) + `"}`)
	}
	b.WriteString("]")

	c := New(Config{Threshold: 500, Reshape: true})
	out := c.Compress(b.String())
	if strings.Contains(out, "omitted") {
		t.Fatal("calendar payload was truncated")
	}
	var cal Calendar
	if err := json.Unmarshal([]byte(out), &cal); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if cal.TotalEvents != 300 || len(cal.Days) != 7 {
		t.Errorf("total=%d days=%d, want 300 and 7", cal.TotalEvents, len(cal.Days))
	}
	if again := c.Compress(out); again != out {
		t.Error("compressing a reshaped payload changed it")
	}
}

func TestCompress_SmallDatedListUnchanged(t *testing.T) {
	c := New(DefaultConfig())
	for _, p := range []string{
		`[{"sha":"abc123","message":"fix bug","date":"2025-11-03"},{"sha":"def456","message":"add test","date":"2025-11-04"}]`,
		`{"events": [{"summary": "Standup", "start": {"date": "2025-11-03"}, "etag": "abc"}]}`,
	} {
		if got := c.Compress(p); got != p {
			t.Errorf("Compress rewrote a %d-byte payload:\n%s", len(p), got)
		}
	}
}

func TestCompress_OversizedNonEventListIsTruncated(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 50; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"sha":"abc","message":"` + strings.Repeat("m", 30) + `","date":"2025-11-03"}`)
	}
	b.WriteString("]")

	c := New(Config{Threshold: 500, Reshape: true})
	out := c.Compress(b.String())
	if !strings.Contains(out, "omitted") || !strings.Contains(out, `"sha":"abc"`) {
		t.Errorf("non-event list should be truncated, got:\n%s", out)
	}
	if len(out) > 500 {
		t.Errorf("len = %d, want <= 500", len(out))
	}
}
