package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Conn is a live bidirectional realtime connection.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens realtime connections.
type Dialer interface {
	Dial(ctx context.Context, target string, header http.Header) (Conn, error)
}

// Scheduler runs fn once after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// AfterFunc is the production Scheduler backed by time.AfterFunc.
func AfterFunc(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}

// WebSocketDialer dials with github.com/coder/websocket.
type WebSocketDialer struct {
	HTTPClient *http.Client
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, target string, header http.Header) (Conn, error) {
	conn, resp, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: header,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "console closed")
}

// BuildURL derives the per-agent channel URL from the backend base URL.
func BuildURL(baseURL, agentID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("backend url %q has no host", baseURL)
	}
	return (&url.URL{
		Scheme:  u.Scheme,
		Host:    u.Host,
		Path:    "/agent/ws/" + agentID,
		RawPath: "/agent/ws/" + url.PathEscape(agentID),
	}).String(), nil
}
