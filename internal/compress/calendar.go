package compress

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Keys that may hold the list of entries in an object payload.
var listKeys = []string{"events", "items", "entries", "appointments"}

// Keys that may hold an entry's date, in lookup order.
var dateKeys = []string{"date", "start", "start_time", "startTime", "start_date", "startDate", "datetime", "when"}

// Keys that mark an entry as an event. One must be present and non-empty.
var titleKeys = []string{"summary", "title", "subject"}

// Fields kept per entry; everything else is dropped.
var essentialKeys = []string{
	"summary", "title", "subject", "name",
	"start", "end", "start_time", "end_time", "startTime", "endTime",
	"all_day", "allDay", "location", "status",
}

// Day is one date bucket of a reshaped payload.
type Day struct {
	Date      string           `json:"date"`
	DayOfWeek string           `json:"day_of_week"`
	Events    []map[string]any `json:"events"`
}

// Calendar is the reshaped form of a date-partitioned payload.
type Calendar struct {
	TotalEvents int   `json:"total_events"`
	Days        []Day `json:"days"`
}

// ReshapeCalendar regroups a JSON list of dated events by day, attaching
// the weekday and keeping only essential fields. Every entry must be an
// object with a title and a date. It reports false otherwise, so callers
// fall back to truncation.
// A payload that is already reshaped is returned unchanged.
func ReshapeCalendar(payload string) (string, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var root any
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return "", false
	}
	if isReshaped(root) {
		return payload, true
	}

	entries, ok := findEntries(root)
	if !ok || len(entries) == 0 {
		return "", false
	}

	byDate := make(map[string]*Day)
	var order []string
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok || !isEvent(entry) {
			return "", false
		}
		day, ok := entryDate(entry)
		if !ok {
			return "", false
		}
		key := day.Format(time.DateOnly)
		d, exists := byDate[key]
		if !exists {
			d = &Day{Date: key, DayOfWeek: day.Weekday().String()}
			byDate[key] = d
			order = append(order, key)
		}
		d.Events = append(d.Events, essentials(entry))
	}
	sort.Strings(order)

	cal := Calendar{TotalEvents: len(entries), Days: make([]Day, 0, len(order))}
	for _, k := range order {
		cal.Days = append(cal.Days, *byDate[k])
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cal); err != nil {
		return "", false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}

func isReshaped(root any) bool {
	obj, ok := root.(map[string]any)
	if !ok || len(obj) != 2 {
		return false
	}
	if _, ok := obj["total_events"]; !ok {
		return false
	}
	days, ok := obj["days"].([]any)
	if !ok {
		return false
	}
	for _, d := range days {
		m, ok := d.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m["day_of_week"]; !ok {
			return false
		}
	}
	return true
}

func isEvent(entry map[string]any) bool {
	for _, k := range titleKeys {
		if s, ok := entry[k].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func findEntries(root any) ([]any, bool) {
	switch v := root.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, k := range listKeys {
			if list, ok := v[k].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// entryDate finds the calendar date of an entry. Date values may be plain
// strings or objects such as {"dateTime": "..."} or {"date": "..."}.
func entryDate(entry map[string]any) (time.Time, bool) {
	for _, k := range dateKeys {
		v, ok := entry[k]
		if !ok {
			continue
		}
		if t, ok := parseDay(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDay(v any) (time.Time, bool) {
	switch d := v.(type) {
	case string:
		if len(d) < len(time.DateOnly) {
			return time.Time{}, false
		}
		t, err := time.Parse(time.DateOnly, d[:len(time.DateOnly)])
		return t, err == nil
	case map[string]any:
		for _, k := range []string{"dateTime", "date_time", "date"} {
			if s, ok := d[k].(string); ok {
				return parseDay(s)
			}
		}
	}
	return time.Time{}, false
}

func essentials(entry map[string]any) map[string]any {
	out := make(map[string]any)
	for _, k := range essentialKeys {
		if v, ok := entry[k]; ok && v != nil && v != "" {
			out[k] = v
		}
	}
	return out
}
