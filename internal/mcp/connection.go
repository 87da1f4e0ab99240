package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hugin/hugin/internal/schema"
)

// State is the lifecycle position of a Connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Ready
	Degraded
	Dead
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	case Dead:
		return "dead"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options bound a Connection's recovery behaviour.
type Options struct {
	ReconnectLimit int           // failures tolerated before the connection is dead
	ReconnectPause time.Duration // pause between disconnect and reconnect
	ConnectTimeout time.Duration
	CallTimeout    time.Duration // per tool call; 0 leaves it to the caller
}

// Connection is a stateful handle to one tool provider.
//
// A failed call moves it to Degraded and triggers one reconnect, after
// which the call is retried once. A later success returns it to Ready
// and resets the failure count. Once the count exceeds ReconnectLimit
// the connection is Dead and every call fails with
// schema.ErrToolUnavailable.
type Connection struct {
	name string
	dial Dialer
	opts Options

	mu       sync.Mutex
	state    State
	failures int
	session  Session
	gen      uint64
	tools    []schema.ToolDescriptor

	// after is swapped in tests.
	after func(time.Duration) <-chan time.Time
}

var _ schema.Invoker = (*Connection)(nil)

func NewConnection(name string, dial Dialer, opts Options) *Connection {
	return &Connection{name: name, dial: dial, opts: opts, after: time.After}
}

func (c *Connection) Name() string { return c.name }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures returns the current consecutive failure count.
func (c *Connection) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && (c.state == Ready || c.state == Degraded)
}

// Tools returns the descriptors listed at the last successful Connect.
func (c *Connection) Tools() []schema.ToolDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]schema.ToolDescriptor(nil), c.tools...)
}

// Connect dials the provider and lists its tools. On failure the
// connection returns to Disconnected and Connect may be called again.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Dead {
		return c.unavailable(nil)
	}
	if c.session == nil {
		if err := c.dialLocked(ctx); err != nil {
			return err
		}
	}

	lctx, cancel := c.withTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()
	tools, err := c.session.ListTools(lctx)
	if err != nil {
		c.closeLocked()
		c.state = Disconnected
		return fmt.Errorf("%w: list tools on %s: %v", schema.ErrConnectivity, c.name, err)
	}
	c.tools = tools
	slog.Info("MCP server connected", "server", c.name, "tools", len(tools))
	return nil
}

// Disconnect closes the session. The connection can be reconnected
// unless it is Dead.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.closeLocked()
	if c.state != Dead {
		c.state = Disconnected
	}
	return err
}

// Invoke calls tool name on the provider, recovering from one dropped
// connection per call.
func (c *Connection) Invoke(ctx context.Context, name string, input map[string]any) (string, error) {
	sess, gen, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}

	text, err := c.call(ctx, sess, name, input)
	if !c.isConnectivityFailure(ctx, err) {
		c.settle(err)
		return text, err
	}

	slog.Warn("MCP call failed, reconnecting", "server", c.name, "tool", name, "err", err)
	sess, gen, err = c.recover(ctx, gen, err)
	if err != nil {
		return "", err
	}

	text, err = c.call(ctx, sess, name, input)
	if !c.isConnectivityFailure(ctx, err) {
		c.settle(err)
		return text, err
	}
	return "", c.fail(gen, err)
}

func (c *Connection) call(ctx context.Context, sess Session, name string, input map[string]any) (string, error) {
	cctx, cancel := c.withTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	text, isError, err := sess.CallTool(cctx, name, input)
	if err != nil {
		if cctx.Err() != nil && ctx.Err() == nil {
			return "", fmt.Errorf("%s/%s: %w", c.name, name, cctx.Err())
		}
		return "", err
	}
	if isError {
		return "", &schema.ToolError{Tool: name, Text: text}
	}
	return text, nil
}

// isConnectivityFailure separates transport faults from outcomes that
// say nothing about the connection: success, tool-reported errors,
// timeouts and caller cancellation.
func (c *Connection) isConnectivityFailure(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var toolErr *schema.ToolError
	if errors.As(err, &toolErr) {
		return false
	}
	return !errors.Is(err, context.DeadlineExceeded)
}

// settle records a call that reached the provider.
func (c *Connection) settle(err error) {
	if err != nil && !errors.As(err, new(*schema.ToolError)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dead {
		return
	}
	if c.failures > 0 {
		slog.Info("MCP server recovered", "server", c.name)
	}
	c.failures = 0
	c.state = Ready
}

func (c *Connection) acquire(ctx context.Context) (Session, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dead {
		return nil, 0, c.unavailable(nil)
	}
	if c.session == nil {
		if err := c.dialLocked(ctx); err != nil {
			if c.failures > 0 && ctx.Err() == nil {
				if derr := c.countFailureLocked(err); derr != nil {
					return nil, 0, derr
				}
			}
			return nil, 0, err
		}
	}
	return c.session, c.gen, nil
}

// recover counts the failure, then disconnects, pauses and dials again.
// If another call already replaced the session it is reused.
func (c *Connection) recover(ctx context.Context, gen uint64, cause error) (Session, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Dead {
		return nil, 0, c.unavailable(cause)
	}
	if c.gen != gen && c.session != nil {
		return c.session, c.gen, nil
	}
	if err := c.countFailureLocked(cause); err != nil {
		return nil, 0, err
	}

	c.closeLocked()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-c.after(c.opts.ReconnectPause):
	}
	if err := c.dialLocked(ctx); err != nil {
		return nil, 0, err
	}
	return c.session, c.gen, nil
}

// fail records a failure of the retried call.
func (c *Connection) fail(gen uint64, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dead {
		return c.unavailable(cause)
	}
	if err := c.countFailureLocked(cause); err != nil {
		return err
	}
	if c.gen == gen {
		c.closeLocked()
	}
	return fmt.Errorf("%w: %s: %v", schema.ErrConnectivity, c.name, cause)
}

func (c *Connection) countFailureLocked(cause error) error {
	c.failures++
	if c.failures > c.opts.ReconnectLimit {
		slog.Warn("MCP server marked dead", "server", c.name, "failures", c.failures, "err", cause)
		c.closeLocked()
		c.state = Dead
		return c.unavailable(cause)
	}
	c.state = Degraded
	return nil
}

func (c *Connection) dialLocked(ctx context.Context) error {
	prev := c.state
	c.state = Connecting

	dctx, cancel := c.withTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()
	sess, err := c.dial(dctx)
	if err != nil {
		if prev == Degraded {
			c.state = Degraded
		} else {
			c.state = Disconnected
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: connect %s: %v", schema.ErrConnectivity, c.name, err)
	}

	c.session = sess
	c.gen++
	if c.failures > 0 {
		c.state = Degraded
	} else {
		c.state = Ready
	}
	slog.Debug("MCP session opened", "server", c.name, "generation", c.gen)
	return nil
}

func (c *Connection) closeLocked() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	if err != nil {
		slog.Debug("MCP session close", "server", c.name, "err", err)
	}
	return err
}

func (c *Connection) unavailable(cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", schema.ErrToolUnavailable, c.name)
	}
	return fmt.Errorf("%w: %s: %v", schema.ErrToolUnavailable, c.name, cause)
}

func (c *Connection) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
