package mcp

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	agentcfg "github.com/hugin/hugin/internal/config/agent"
	toolcfg "github.com/hugin/hugin/internal/config/tool"
)

// Manager owns every tool-provider connection of one session.
type Manager struct {
	conns map[string]*Connection
	once  sync.Once
}

// NewManager returns a Manager over the given connections.
func NewManager(conns ...*Connection) *Manager {
	m := &Manager{conns: make(map[string]*Connection, len(conns))}
	for _, c := range conns {
		m.conns[c.Name()] = c
	}
	return m
}

// FromConfig builds one Connection per enabled server.
func FromConfig(servers map[string]toolcfg.MCPServerConfig, cc agentcfg.ConnectionConfig, version string) *Manager {
	var conns []*Connection
	for name, cfg := range servers {
		if cfg.Disabled {
			continue
		}
		conns = append(conns, NewConnection(name, NewDialer(name, cfg, version), Options{
			ReconnectLimit: cc.ReconnectLimit,
			ReconnectPause: cc.ReconnectPause.Duration,
			ConnectTimeout: cc.ConnectTimeout.Duration,
			CallTimeout:    cfg.Timeout.Duration,
		}))
	}
	return NewManager(conns...)
}

// ConnectAll connects every server concurrently. Failures are logged and
// the server stays Disconnected; it returns the number connected.
func (m *Manager) ConnectAll(ctx context.Context) int {
	var (
		mu        sync.Mutex
		connected int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range m.conns {
		g.Go(func() error {
			if err := c.Connect(gctx); err != nil {
				slog.Error("MCP server connect failed", "server", c.Name(), "err", err)
				return nil
			}
			mu.Lock()
			connected++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return connected
}

func (m *Manager) Get(name string) (*Connection, bool) {
	c, ok := m.conns[name]
	return c, ok
}

// Connections returns all connections sorted by name.
func (m *Manager) Connections() []*Connection {
	out := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Close disconnects every server. Safe to call more than once.
func (m *Manager) Close() {
	m.once.Do(func() {
		for _, c := range m.conns {
			if err := c.Disconnect(); err != nil {
				slog.Debug("MCP server disconnect", "server", c.Name(), "err", err)
			}
		}
	})
}
