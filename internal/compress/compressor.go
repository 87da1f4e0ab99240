// Package compress bounds the size of tool results before they re-enter
// the conversation.
package compress

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Config holds the compressor's tunables.
type Config struct {
	// Threshold is the largest payload, in bytes, passed through untouched.
	Threshold int
	// HeadRatio and TailRatio are the shares of Threshold kept from the
	// start and the end of an oversized payload.
	HeadRatio float64
	TailRatio float64
	// SnippetLength caps the preview of the first removed bytes.
	SnippetLength int
	// Reshape enables lossless re-grouping of date-partitioned payloads.
	Reshape bool
}

// DefaultConfig returns the stock compressor settings.
func DefaultConfig() Config {
	return Config{
		Threshold:     10000,
		HeadRatio:     0.70,
		TailRatio:     0.10,
		SnippetLength: 200,
		Reshape:       true,
	}
}

// Compressor shrinks tool results to fit the configured threshold.
type Compressor struct {
	cfg Config
}

// New returns a Compressor for cfg. Zero fields fall back to defaults.
func New(cfg Config) *Compressor {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.HeadRatio <= 0 {
		cfg.HeadRatio = def.HeadRatio
	}
	if cfg.TailRatio < 0 {
		cfg.TailRatio = def.TailRatio
	}
	if cfg.HeadRatio+cfg.TailRatio > 1 {
		cfg.HeadRatio, cfg.TailRatio = def.HeadRatio, def.TailRatio
	}
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = def.SnippetLength
	}
	return &Compressor{cfg: cfg}
}

// Threshold returns the pass-through limit in bytes.
func (c *Compressor) Threshold() int { return c.cfg.Threshold }

// Compress returns payload unchanged when it fits the threshold.
// An oversized calendar payload is re-grouped by day instead of truncated.
// Anything else keeps a head and a tail around an elision marker, and the
// result never exceeds the threshold, so compressing twice equals
// compressing once.
func (c *Compressor) Compress(payload string) string {
	if len(payload) <= c.cfg.Threshold {
		return payload
	}
	if c.cfg.Reshape {
		if reshaped, ok := ReshapeCalendar(payload); ok {
			slog.Debug("tool result reshaped by date", "before", len(payload), "after", len(reshaped))
			return reshaped
		}
	}
	out := c.truncate(payload)
	slog.Debug("tool result truncated", "before", len(payload), "after", len(out))
	return out
}

func (c *Compressor) truncate(payload string) string {
	limit := c.cfg.Threshold
	head := int(float64(limit) * c.cfg.HeadRatio)
	tail := int(float64(limit) * c.cfg.TailRatio)

	var marker string
	for range 4 {
		head = runeFloor(payload, head)
		tail = len(payload) - runeCeil(payload, len(payload)-tail)
		marker = c.marker(payload[head : len(payload)-tail])
		excess := head + len(marker) + tail - limit
		if excess <= 0 {
			break
		}
		head -= excess
		if head < 0 {
			tail += head
			head = 0
		}
		if tail < 0 {
			tail = 0
		}
	}

	out := payload[:head] + marker + payload[len(payload)-tail:]
	if len(out) > limit {
		// Threshold too small for a full marker.
		out = out[:runeFloor(out, limit)]
	}
	return out
}

func (c *Compressor) marker(removed string) string {
	snippet := removed
	if len(snippet) > c.cfg.SnippetLength {
		snippet = snippet[:runeFloor(snippet, c.cfg.SnippetLength)]
	}
	snippet = strings.Join(strings.Fields(snippet), " ")
	lines := strings.Count(removed, "\n")
	return fmt.Sprintf("\n\n[... %d bytes (%d lines) omitted; omitted text begins: %q ...]\n\n",
		len(removed), lines, snippet)
}

// runeFloor moves i back to the start of the rune containing it.
func runeFloor(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	if i <= 0 {
		return 0
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves i forward to the next rune start.
func runeCeil(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
