package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hugin/hugin/internal/schema"
)

// Catalog is the merged, namespaced tool set of one session. It is built
// once and is read-only afterwards.
type Catalog struct {
	descriptors []schema.ToolDescriptor
	routes      map[string]route
	sources     map[string]schema.Invoker
	prefixes    []string // longest first
}

type route struct {
	source string
	tool   string
}

type catalogSource struct {
	prefix string
	inv    schema.Invoker
	tools  []schema.ToolDescriptor
}

// CatalogBuilder accumulates tool sources. Call Build to produce the
// Catalog.
type CatalogBuilder struct {
	sources []catalogSource
}

func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// WithSource adds every tool of one source under "<prefix>_<tool>" with
// its description tagged "[prefix] ".
func (b *CatalogBuilder) WithSource(prefix string, inv schema.Invoker, tools []schema.ToolDescriptor) *CatalogBuilder {
	b.sources = append(b.sources, catalogSource{prefix: prefix, inv: inv, tools: tools})
	return b
}

// Build fails if two tools end up with the same namespaced name.
func (b *CatalogBuilder) Build() (*Catalog, error) {
	c := &Catalog{
		routes:  make(map[string]route),
		sources: make(map[string]schema.Invoker, len(b.sources)),
	}
	for _, src := range b.sources {
		if src.prefix == "" || strings.ContainsAny(src.prefix, " \t\n") {
			return nil, fmt.Errorf("invalid tool source prefix %q", src.prefix)
		}
		if _, dup := c.sources[src.prefix]; dup {
			return nil, fmt.Errorf("tool source %q registered twice", src.prefix)
		}
		c.sources[src.prefix] = src.inv
		c.prefixes = append(c.prefixes, src.prefix)

		for _, d := range src.tools {
			name := src.prefix + "_" + d.Name
			if prev, dup := c.routes[name]; dup {
				return nil, fmt.Errorf("duplicate tool name %q (from %s and %s)", name, prev.source, src.prefix)
			}
			c.routes[name] = route{source: src.prefix, tool: d.Name}
			c.descriptors = append(c.descriptors, schema.ToolDescriptor{
				Name:        name,
				Description: "[" + src.prefix + "] " + d.Description,
				InputSchema: d.InputSchema,
			})
		}
	}
	sort.Slice(c.prefixes, func(i, j int) bool { return len(c.prefixes[i]) > len(c.prefixes[j]) })
	return c, nil
}

// Descriptors returns the catalog in registration order.
func (c *Catalog) Descriptors() []schema.ToolDescriptor {
	return append([]schema.ToolDescriptor(nil), c.descriptors...)
}

func (c *Catalog) Len() int { return len(c.descriptors) }

// Sources returns the registered source prefixes, sorted.
func (c *Catalog) Sources() []string {
	out := append([]string(nil), c.prefixes...)
	sort.Strings(out)
	return out
}

// Resolve maps a namespaced name to its source and source-local tool name.
// Exact catalog entries win; otherwise the longest matching source prefix
// is used so the source can report the unknown tool itself.
func (c *Catalog) Resolve(name string) (source, tool string, ok bool) {
	if r, found := c.routes[name]; found {
		return r.source, r.tool, true
	}
	for _, p := range c.prefixes {
		if rest, found := strings.CutPrefix(name, p+"_"); found && rest != "" {
			return p, rest, true
		}
	}
	return "", "", false
}

// Dispatch runs one call and always returns exactly one result for it.
// Failures of any kind come back as a failed result, never as an error.
func (c *Catalog) Dispatch(ctx context.Context, call schema.ToolCall, timeout time.Duration) schema.ToolResult {
	source, tool, ok := c.Resolve(call.Name)
	if !ok {
		slog.Warn("unknown tool requested", "tool", call.Name)
		return schema.FailedResult(call, "Error: %v: %q does not belong to any tool source (available sources: %s)",
			schema.ErrUnknownTool, call.Name, strings.Join(c.Sources(), ", "))
	}

	tctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	out, err := c.sources[source].Invoke(tctx, tool, call.Input)
	slog.Debug("tool call finished", "tool", call.Name, "source", source, "elapsed", time.Since(start), "err", err)

	var toolErr *schema.ToolError
	switch {
	case err == nil:
		return schema.ToolResult{CallID: call.ID, Name: call.Name, Content: out}
	case errors.As(err, &toolErr):
		return schema.FailedResult(call, "%s", toolErr.Text)
	case ctx.Err() != nil:
		return schema.FailedResult(call, "Error: tool call %s was cancelled", call.Name)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn("tool call timed out", "tool", call.Name, "timeout", timeout)
		return schema.FailedResult(call, "Error: tool %s timed out after %s", call.Name, timeout)
	case errors.Is(err, schema.ErrToolUnavailable):
		slog.Warn("tool source unavailable", "tool", call.Name, "source", source)
		return schema.FailedResult(call, "Error: %s is unavailable for the rest of this session: %v", source, err)
	default:
		slog.Warn("tool call failed", "tool", call.Name, "err", err)
		return schema.FailedResult(call, "Error: %s failed: %v", call.Name, err)
	}
}
