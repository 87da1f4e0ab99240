// Package conversation holds the budgeted message history owned by one
// provider adapter.
package conversation

import (
	"sync"

	"github.com/hugin/hugin/internal/schema"
)

// Budget bounds the size of a conversation.
//
// MaxTokens takes precedence over MaxTurns when both are set. A zero
// ceiling means unbounded. MinRecent is the number of newest messages
// normal pruning never touches.
type Budget struct {
	MaxTokens     int
	MaxTurns      int
	CharsPerToken int
	MinRecent     int
}

// DefaultBudget returns the budget used when nothing is configured.
func DefaultBudget() Budget {
	return Budget{CharsPerToken: 4, MinRecent: 4}
}

type entry struct {
	msg    schema.Message
	tokens int
}

// Store is an ordered message history that enforces its Budget after every
// append. The first user message is the anchor: normal pruning evicts the
// oldest messages after it and never the anchor itself.
type Store struct {
	mu       sync.Mutex
	budget   Budget
	entries  []entry
	tokens   int
	anchored bool // entries[0] is the anchor
	pruned   int
}

// New returns an empty Store with budget b.
func New(b Budget) *Store {
	if b.CharsPerToken <= 0 {
		b.CharsPerToken = 4
	}
	if b.MinRecent < 1 {
		b.MinRecent = 1
	}
	return &Store{budget: b}
}

// Budget returns the store's budget.
func (s *Store) Budget() Budget { return s.budget }

// Append adds m to the end of the history and prunes synchronously.
func (s *Store) Append(m schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 && m.Role == schema.RoleUser && !m.IsToolResult() {
		s.anchored = true
	}
	e := entry{msg: m, tokens: EstimateTokens(m, s.budget.CharsPerToken)}
	s.entries = append(s.entries, e)
	s.tokens += e.tokens
	s.prune()
}

// Messages returns a copy of the current history.
func (s *Store) Messages() []schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Message, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.msg
	}
	return out
}

// Len returns the number of messages held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Tokens returns the current token estimate.
func (s *Store) Tokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Anchor returns the anchor message if it is still held.
func (s *Store) Anchor() (schema.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.anchored || len(s.entries) == 0 {
		return schema.Message{}, false
	}
	return s.entries[0].msg, true
}

// Pruned returns how many messages pruning has evicted since the last Clear.
func (s *Store) Pruned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruned
}

// Clear drops every message, anchor included.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.tokens = 0
	s.anchored = false
	s.pruned = 0
}
