package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// bootstrapFiles are workspace files appended to the system prompt when present.
var bootstrapFiles = []string{"AGENTS.md", "HUGIN.md"}

// PromptBuilder assembles the system prompt sent as the conversation anchor.
type PromptBuilder struct {
	workspace string
	extra     string
	now       func() time.Time
}

// NewPromptBuilder returns a builder for workspace. extra, when set, is
// appended verbatim after the identity section.
func NewPromptBuilder(workspace, extra string) *PromptBuilder {
	return &PromptBuilder{workspace: workspace, extra: extra, now: time.Now}
}

// Build returns the system prompt for a session whose catalog draws on
// the given tool sources.
func (pb *PromptBuilder) Build(sources []string) string {
	parts := []string{pb.identity(sources)}
	if pb.extra != "" {
		parts = append(parts, pb.extra)
	}
	if bootstrap := pb.loadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, bootstrap)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (pb *PromptBuilder) identity(sources []string) string {
	now := pb.now()
	tz, _ := now.Zone()
	if tz == "" {
		tz = "UTC"
	}
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "macOS"
	}

	toolLine := "No tools are connected."
	if len(sources) > 0 {
		sorted := append([]string(nil), sources...)
		sort.Strings(sorted)
		toolLine = fmt.Sprintf("Tool names are prefixed with their source: %s.", strings.Join(sorted, ", "))
	}

	return fmt.Sprintf(`# Hugin

You are Hugin, an assistant that answers questions by calling tools when they help.

## Current Time
%s (%s)
Today's date is %s.

## Runtime
%s %s

## Workspace
%s

## Tools
%s
When a question depends on dates such as "last week" or "this month", resolve them with the date range tool before calling other tools.
Call tools directly; do not announce a tool call without making it.
When you have what you need, answer in plain text without calling further tools.`,
		now.Format("2006-01-02 15:04 (Monday)"), tz,
		now.Format("2006-01-02"),
		osName, runtime.GOARCH,
		pb.workspace,
		toolLine,
	)
}

func (pb *PromptBuilder) loadBootstrapFiles() string {
	if pb.workspace == "" {
		return ""
	}
	var parts []string
	for _, name := range bootstrapFiles {
		data, err := os.ReadFile(filepath.Join(pb.workspace, name))
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", name, strings.TrimSpace(string(data))))
	}
	return strings.Join(parts, "\n\n")
}
