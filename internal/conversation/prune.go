package conversation

import (
	"log/slog"

	"github.com/hugin/hugin/internal/schema"
)

// over reports whether the store exceeds its budget. The token ceiling
// wins when both ceilings are set.
func (s *Store) over() bool {
	switch {
	case s.budget.MaxTokens > 0:
		return s.tokens > s.budget.MaxTokens
	case s.budget.MaxTurns > 0:
		return len(s.entries) > s.budget.MaxTurns
	default:
		return false
	}
}

// prune evicts messages until the store is within budget. Caller holds mu.
//
// Messages are evicted in units: a message carrying tool calls goes
// together with the result messages that follow it, so a call never loses
// its results. Phase one removes the oldest units after the anchor that
// lie wholly outside the recent window. If that is not enough the anchor
// goes too, and after it the oldest units of the window, always keeping
// the newest unit even when it alone exceeds the budget.
func (s *Store) prune() {
	if !s.over() {
		return
	}
	before := len(s.entries)

	first := 0
	if s.anchored {
		first = 1
	}
	for s.over() {
		start, end, ok := s.oldestUnit(first)
		if !ok || end > len(s.entries)-s.budget.MinRecent {
			break
		}
		s.removeRange(start, end)
	}

	if s.over() && s.anchored {
		s.removeRange(0, 1)
		s.anchored = false
		slog.Warn("conversation anchor dropped to stay within budget",
			"tokens", s.tokens, "messages", len(s.entries))
	}
	for s.over() {
		start, end, ok := s.oldestUnit(0)
		if !ok || end == len(s.entries) {
			break
		}
		s.removeRange(start, end)
	}

	s.dropOrphans()
	s.pruned += before - len(s.entries)
	slog.Debug("conversation pruned",
		"evicted", before-len(s.entries), "messages", len(s.entries), "tokens", s.tokens)
}

// oldestUnit returns the bounds of the eviction unit starting at from.
// A message with tool calls extends over the result-only messages that
// directly follow it.
func (s *Store) oldestUnit(from int) (start, end int, ok bool) {
	if from >= len(s.entries) {
		return 0, 0, false
	}
	end = from + 1
	if len(s.entries[from].msg.ToolCalls()) > 0 {
		for end < len(s.entries) && s.entries[end].msg.IsToolResult() {
			end++
		}
	}
	return from, end, true
}

func (s *Store) removeRange(start, end int) {
	for _, e := range s.entries[start:end] {
		s.tokens -= e.tokens
	}
	s.entries = append(s.entries[:start], s.entries[end:]...)
}

// dropOrphans removes tool-result parts whose call is no longer in the
// history, so every remaining result references an earlier call.
func (s *Store) dropOrphans() {
	seen := make(map[string]bool)
	kept := s.entries[:0]
	for _, e := range s.entries {
		for _, call := range e.msg.ToolCalls() {
			seen[call.ID] = true
		}
		if !hasResults(e.msg) {
			kept = append(kept, e)
			continue
		}
		parts := make([]schema.Part, 0, len(e.msg.Parts))
		for _, p := range e.msg.Parts {
			if p.Type == schema.PartToolResult && p.Result != nil && !seen[p.Result.CallID] {
				continue
			}
			parts = append(parts, p)
		}
		if len(parts) == len(e.msg.Parts) {
			kept = append(kept, e)
			continue
		}
		s.tokens -= e.tokens
		if len(parts) == 0 {
			continue
		}
		e.msg = schema.Message{Role: e.msg.Role, Parts: parts}
		e.tokens = EstimateTokens(e.msg, s.budget.CharsPerToken)
		s.tokens += e.tokens
		kept = append(kept, e)
	}
	s.entries = kept
}

func hasResults(m schema.Message) bool {
	for _, p := range m.Parts {
		if p.Type == schema.PartToolResult {
			return true
		}
	}
	return false
}
