package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/observability"
)

var (
	// ErrAlreadyOpen is returned when Open is called twice on one channel.
	ErrAlreadyOpen = errors.New("realtime channel already opened")
	// ErrChannelClosed is returned when Open is called after Close.
	ErrChannelClosed = errors.New("realtime channel closed")
	// ErrNotOpened is returned when Retarget is called before Open.
	ErrNotOpened = errors.New("realtime channel not opened")
)

// Sender is the outbound half of the channel handed to components that push events.
type Sender interface {
	Send(ctx context.Context, event events.OutboundEvent) bool
	State() domain.ConnectionState
}

// HeaderSource supplies the auth headers attached to every dial.
type HeaderSource func(ctx context.Context) http.Header

// ChannelDependencies wires collaborators for Channel.
type ChannelDependencies struct {
	Dialer     Dialer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Schedule   Scheduler
	Headers    HeaderSource
	Now        func() time.Time
}

// Channel keeps one live connection per agent and reconnects after every closure.
type Channel struct {
	baseURL    string
	delay      time.Duration
	dialer     Dialer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	schedule   Scheduler
	headers    HeaderSource
	now        func() time.Time

	mu          sync.Mutex
	state       domain.ConnectionState
	opened      bool
	closed      bool
	agentID     string
	target      string
	gen         uint64
	conn        Conn
	cancelRetry func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewChannel constructs a Channel in the CLOSED state.
func NewChannel(baseURL string, cfg config.RealtimeConfig, deps ChannelDependencies) *Channel {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Dialer == nil {
		deps.Dialer = WebSocketDialer{}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.NewInMemoryDispatcher()
	}
	if deps.Schedule == nil {
		deps.Schedule = AfterFunc
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Channel{
		baseURL:    baseURL,
		delay:      cfg.ReconnectDelay,
		dialer:     deps.Dialer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		schedule:   deps.Schedule,
		headers:    deps.Headers,
		now:        deps.Now,
		state:      domain.StateClosed,
	}
}

// Open connects under agentID, or under the "unknown" identity when agentID is blank.
// A failed first dial is logged and retried like any other closure.
func (c *Channel) Open(ctx context.Context, agentID string) error {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		agentID = domain.UnknownAgent
	}
	target, err := BuildURL(c.baseURL, agentID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.opened {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.opened = true
	c.agentID = agentID
	c.target = target
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.connect()
	return nil
}

// Retarget moves an opened channel to agentID. The live connection is dropped
// without scheduling a retry and the new target is dialed right away.
// Retargeting to the current identity is a no-op.
func (c *Channel) Retarget(agentID string) error {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		agentID = domain.UnknownAgent
	}
	target, err := BuildURL(c.baseURL, agentID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if !c.opened {
		c.mu.Unlock()
		return ErrNotOpened
	}
	if c.target == target {
		c.mu.Unlock()
		return nil
	}
	c.agentID = agentID
	c.target = target
	c.gen++
	if c.cancelRetry != nil {
		c.cancelRetry()
		c.cancelRetry = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = domain.StateClosed
	c.mu.Unlock()

	c.logger.Info("retargeting realtime channel", zap.String("agent_id", agentID))
	if conn != nil {
		_ = conn.Close()
	}
	c.connect()
	return nil
}

// OnEvent registers an inbound handler for one event type.
func (c *Channel) OnEvent(eventType events.EventType, handler events.EventHandler) {
	c.dispatcher.Subscribe(eventType, handler)
}

// State returns the current connection state.
func (c *Channel) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AgentID returns the identity the channel connects under.
func (c *Channel) AgentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentID
}

// Send transmits event when the channel is OPEN and reports whether it was written.
// Events sent in any other state are dropped.
func (c *Channel) Send(ctx context.Context, event events.OutboundEvent) bool {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state != domain.StateOpen || conn == nil {
		c.metrics.RecordDroppedSend()
		c.logger.Debug("dropping realtime send", zap.String("type", string(event.Type)), zap.Stringer("state", state))
		return false
	}

	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Warn("encode realtime event", zap.Error(err))
		return false
	}
	if err := conn.Write(ctx, data); err != nil {
		c.metrics.RecordDroppedSend()
		c.logger.Warn("realtime send failed", zap.String("type", string(event.Type)), zap.Error(err))
		return false
	}
	return true
}

// Close tears the channel down and cancels any pending reconnect.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = domain.StateClosed
	conn := c.conn
	c.conn = nil
	if c.cancelRetry != nil {
		c.cancelRetry()
		c.cancelRetry = nil
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = domain.StateConnecting
	c.cancelRetry = nil
	ctx, target, gen := c.ctx, c.target, c.gen
	c.mu.Unlock()

	var header http.Header
	if c.headers != nil {
		header = c.headers(ctx)
	}

	conn, err := c.dialer.Dial(ctx, target, header)
	if err != nil {
		c.logger.Warn("realtime dial failed", zap.String("url", target), zap.Error(err))
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if !stale {
			c.handleClosure(nil)
		}
		return
	}

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = domain.StateOpen
	c.mu.Unlock()

	c.logger.Info("realtime connection established", zap.String("url", target))
	go c.readLoop(ctx, conn)
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			c.logger.Info("realtime connection closed", zap.Error(err))
			_ = conn.Close()
			c.handleClosure(conn)
			return
		}
		c.dispatch(ctx, data)
	}
}

func (c *Channel) dispatch(ctx context.Context, data []byte) {
	event, err := events.ParseFrame(data, c.now())
	if err != nil {
		c.metrics.RecordFrame("invalid", "dropped")
		c.logger.Warn("dropping realtime frame", zap.Error(err))
		return
	}
	if !events.IsKnown(event.Type) {
		c.metrics.RecordFrame(string(event.Type), "dropped")
		c.logger.Info("unknown realtime message type", zap.String("type", string(event.Type)))
		return
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.metrics.RecordFrame(string(event.Type), "handler_error")
		c.logger.Warn("realtime handler failed", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	c.metrics.RecordFrame(string(event.Type), "dispatched")
}

// handleClosure moves to CLOSED and schedules exactly one reconnect for the closed conn.
func (c *Channel) handleClosure(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn != nil && c.conn != conn {
		return
	}
	c.conn = nil
	c.state = domain.StateClosed
	if c.closed || c.ctx.Err() != nil {
		return
	}
	c.metrics.RecordReconnect()
	c.logger.Debug("scheduling realtime reconnect", zap.Duration("delay", c.delay))
	c.cancelRetry = c.schedule(c.delay, c.connect)
}
