package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

const periodHint = "Try: 'today', 'yesterday', 'this week', 'last week', 'this month', 'last month', 'past 7 days', 'last 2 weeks', etc."

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var (
	reLastNWeeks  = regexp.MustCompile(`^last (\d+) weeks?$`)
	reLastNMonths = regexp.MustCompile(`^last (\d+) months?$`)
	rePastNDays   = regexp.MustCompile(`^past (\d+) days?$`)
	reWeeksAgo    = regexp.MustCompile(`^(\d+) weeks? ago$`)
	reMonthsAgo   = regexp.MustCompile(`^(\d+) months? ago$`)
)

// DateRangeTool turns a period description such as "last week" into
// concrete start and end dates. Weeks run Sunday to Saturday.
type DateRangeTool struct {
	now func() time.Time
}

func NewDateRangeTool() *DateRangeTool {
	return &DateRangeTool{now: time.Now}
}

func (t *DateRangeTool) Name() string { return string(ToolDateRange) }
func (t *DateRangeTool) Description() string {
	return "Calculate start and end dates for time period descriptions. " +
		"Use this tool to convert period descriptions like 'last week', 'past 7 days', " +
		"'last 2 months' into exact date ranges. Weeks are Sunday-Saturday."
}
func (t *DateRangeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"period": {
				"type": "string",
				"description": "Time period description. Supported formats:\n- 'today', 'yesterday'\n- 'this week', 'last week', 'this month', 'last month'\n- 'last N weeks', 'last N months' (e.g., 'last 2 weeks')\n- 'past N days' (e.g., 'past 7 days')\n- 'N weeks ago', 'N months ago' (e.g., '2 weeks ago')\n- 'last monday', 'last tuesday', etc. (most recent occurrence)\n- 'this monday', 'this tuesday', etc. (in current week)"
			},
			"reference_date": {
				"type": "string",
				"description": "Optional reference date in YYYY-MM-DD format (defaults to today)"
			}
		},
		"required": ["period"]
	}`)
}

// DateRange is the tool's successful output.
type DateRange struct {
	Period        string `json:"period"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Description   string `json:"description"`
	ReferenceDate string `json:"reference_date"`
}

func (t *DateRangeTool) Execute(_ context.Context, params map[string]any) (string, error) {
	period, _ := params["period"].(string)
	period = strings.ToLower(strings.Join(strings.Fields(period), " "))
	if period == "" {
		slog.Warn("empty period, defaulting to this week")
		period = "this week"
	}

	ref := t.now()
	if raw, _ := params["reference_date"].(string); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return jsonString(map[string]any{
				"error": fmt.Sprintf("Invalid reference_date format: %s. Use YYYY-MM-DD.", raw),
			}), nil
		}
		ref = parsed
	}
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	start, end, desc, err := ResolvePeriod(period, ref)
	if err != nil {
		slog.Info("unrecognized period", "period", period, "err", err)
		return jsonString(map[string]any{
			"error":  err.Error(),
			"period": period,
			"hint":   periodHint,
		}), nil
	}

	out, _ := json.MarshalIndent(DateRange{
		Period:        period,
		StartDate:     start.Format(dateLayout),
		EndDate:       end.Format(dateLayout),
		Description:   desc,
		ReferenceDate: ref.Format(dateLayout),
	}, "", "  ")
	return string(out), nil
}

// ResolvePeriod returns the inclusive date range for period relative to
// ref, plus a human description. period must already be lower-case.
func ResolvePeriod(period string, ref time.Time) (start, end time.Time, desc string, err error) {
	weekStart := ref.AddDate(0, 0, -int(ref.Weekday()))
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	title := cases.Title(language.English)

	if day, ok := strings.CutPrefix(period, "last "); ok {
		if wd, found := weekdays[day]; found {
			back := (int(ref.Weekday()) - int(wd) + 7) % 7
			if back == 0 {
				back = 7
			}
			d := ref.AddDate(0, 0, -back)
			return d, d, fmt.Sprintf("Last %s (%s)", title.String(day), d.Format("Jan 02")), nil
		}
	}
	if day, ok := strings.CutPrefix(period, "this "); ok {
		if wd, found := weekdays[day]; found {
			d := weekStart.AddDate(0, 0, int(wd))
			return d, d, fmt.Sprintf("This %s (%s)", title.String(day), d.Format("Jan 02")), nil
		}
	}

	switch period {
	case "today":
		return ref, ref, "Today", nil
	case "yesterday":
		d := ref.AddDate(0, 0, -1)
		return d, d, "Yesterday", nil
	case "this week", "this past week":
		end := weekStart.AddDate(0, 0, 6)
		return weekStart, end, fmt.Sprintf("This week (%s - %s)", weekStart.Format("Jan 02"), end.Format("Jan 02")), nil
	case "last week":
		start, end := weekStart.AddDate(0, 0, -7), weekStart.AddDate(0, 0, -1)
		return start, end, fmt.Sprintf("Last week (%s - %s)", start.Format("Jan 02"), end.Format("Jan 02")), nil
	case "this month":
		return monthStart, monthStart.AddDate(0, 1, -1), fmt.Sprintf("This month (%s)", monthStart.Format("Jan 2006")), nil
	case "last month":
		start := monthStart.AddDate(0, -1, 0)
		return start, monthStart.AddDate(0, 0, -1), fmt.Sprintf("Last month (%s)", start.Format("Jan 2006")), nil
	}

	if n, ok := matchCount(reLastNWeeks, period); ok {
		return weekStart.AddDate(0, 0, -7*n), weekStart.AddDate(0, 0, -1), fmt.Sprintf("Last %d weeks", n), nil
	}
	if n, ok := matchCount(reLastNMonths, period); ok {
		return monthStart.AddDate(0, -n, 0), monthStart.AddDate(0, 0, -1), fmt.Sprintf("Last %d months", n), nil
	}
	if n, ok := matchCount(rePastNDays, period); ok {
		if n < 1 {
			return start, end, "", fmt.Errorf("invalid format: %q. Use 'past N days' where N is at least 1", period)
		}
		return ref.AddDate(0, 0, -(n - 1)), ref, fmt.Sprintf("Past %d days", n), nil
	}
	if n, ok := matchCount(reWeeksAgo, period); ok {
		start := weekStart.AddDate(0, 0, -7*n)
		return start, start.AddDate(0, 0, 6), fmt.Sprintf("%d weeks ago", n), nil
	}
	if n, ok := matchCount(reMonthsAgo, period); ok {
		start := monthStart.AddDate(0, -n, 0)
		return start, start.AddDate(0, 1, -1), fmt.Sprintf("%d months ago (%s)", n, start.Format("Jan 2006")), nil
	}

	return start, end, "", fmt.Errorf("unrecognized period format: %q. Supported: today, yesterday, "+
		"this week, last week, this month, last month, last N weeks, last N months, past N days, "+
		"N weeks ago, N months ago, last monday/tuesday/etc., this monday/tuesday/etc.", period)
}

func matchCount(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
