// Package proxy implements the registration collaborator client: a
// fire-and-forget notification link over websocket that the supervisor
// informs of agent connect and logout events.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"fleetd/internal/domain"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// frame is the JSON notification sent to the proxy. Replies are ignored.
type frame struct {
	Type  string    `json:"type"` // hello, register, logout
	Agent string    `json:"agent,omitempty"`
	Time  time.Time `json:"time"`
}

// Client notifies the registration proxy over a websocket. Send failures
// trip a circuit breaker so a dead proxy cannot stall supervision, and
// reconnect attempts are rate limited.
type Client struct {
	url     string
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
	redial  *rate.Limiter

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ domain.Notifier = (*Client)(nil)

// NewClient creates a client for the proxy at url.
func NewClient(url string, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "proxy",
		MaxRequests: 1, // one probe in half-open state
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("proxy breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Client{
		url:     url,
		logger:  logger,
		breaker: cb,
		redial:  rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

// Connect dials the proxy and sends the hello frame.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return domain.WrapOp("proxy connect", err)
	}
	return c.send(ctx, frame{Type: "hello", Time: time.Now()})
}

// RegisterAgent announces a supervised agent.
func (c *Client) RegisterAgent(ctx context.Context, name string) error {
	return c.send(ctx, frame{Type: "register", Agent: name, Time: time.Now()})
}

// LogoutAgent announces that an agent's worker has terminated.
func (c *Client) LogoutAgent(ctx context.Context, name string) error {
	return c.send(ctx, frame{Type: "logout", Agent: name, Time: time.Now()})
}

// Close shuts the websocket down cleanly.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "supervisor shutting down")
	}
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("proxy connected", "url", c.url)
	return nil
}

// send writes one frame through the breaker, reconnecting first if the
// last write dropped the connection.
func (c *Client) send(ctx context.Context, f frame) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			if !c.redial.Allow() {
				return struct{}{}, fmt.Errorf("proxy disconnected, redial throttled")
			}
			if err := c.dial(ctx); err != nil {
				return struct{}{}, err
			}
			c.mu.Lock()
			conn = c.conn
			c.mu.Unlock()
		}

		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		if err := wsjson.Write(wctx, conn, f); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close(websocket.StatusInternalError, "write failed")
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return domain.WrapOp("proxy notify "+f.Type, err)
	}
	return nil
}
