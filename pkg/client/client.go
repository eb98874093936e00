// Package client implements the resilient cardroom connection: a binary
// websocket session with automatic reconnection, an offline action queue
// and in-order packet dispatch to registered listeners.
package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/vmtri/cardroom/pkg/protocol"
)

// State is the connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// ErrConnectionFailed is the terminal event raised after the reconnect
// budget is exhausted. No further retries happen without a new Connect.
var ErrConnectionFailed = errors.New("connection failed after retries")

// Conn is the transport under the client. Tests substitute an in-memory
// implementation; production uses a websocket connection.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a transport to the server.
type Dialer func(addr string) (Conn, error)

func wsDial(addr string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// PacketHandler receives decoded server packets in arrival order. Handlers
// run on the client's read goroutine; marshalling onto a render thread is
// the caller's responsibility.
type PacketHandler func(op protocol.Op, msg interface{})

// Config holds the client settings.
type Config struct {
	ServerAddr string
	Username   string

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	QueueCapacity     int

	// Dial is overridable for tests; nil uses the websocket dialer.
	Dial Dialer

	Log slog.Logger
}

// Client is a resilient connection to the cardroom server. Safe for
// concurrent use.
type Client struct {
	cfg  Config
	log  slog.Logger
	dial Dialer

	mu      sync.Mutex
	state   State
	conn    Conn
	writeMu sync.Mutex // serializes frame writes on the transport
	queue   [][]byte // frames held while offline, oldest first
	gen     int      // increments per established connection
	userID  int64
	balance int64

	handlersMu sync.RWMutex
	handlers   []PacketHandler
	onTerminal func(error)
}

// New creates a client. Call Connect to establish the session.
func New(cfg Config) (*Client, error) {
	if cfg.Username == "" {
		return nil, errors.New("username required")
	}
	if cfg.QueueCapacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", cfg.QueueCapacity)
	}
	dial := cfg.Dial
	if dial == nil {
		dial = wsDial
	}
	return &Client{
		cfg:  cfg,
		log:  cfg.Log,
		dial: dial,
	}, nil
}

// OnPacket registers a listener for incoming packets. Listeners are
// invoked in registration order for each packet, packets in arrival order.
func (c *Client) OnPacket(h PacketHandler) {
	c.handlersMu.Lock()
	c.handlers = append(c.handlers, h)
	c.handlersMu.Unlock()
}

// OnConnectionFailed registers the terminal failure callback.
func (c *Client) OnConnectionFailed(f func(error)) {
	c.handlersMu.Lock()
	c.onTerminal = f
	c.handlersMu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UserID returns the identity assigned by the server, valid once connected.
func (c *Client) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Balance returns the credit balance reported at the last hello.
func (c *Client) Balance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

// Connect establishes the session. Only one attempt may be in flight:
// calling Connect while CONNECTING or CONNECTED is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()

	if err := c.establish(); err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return err
	}
	return nil
}

// establish dials, performs the hello exchange, drains the offline queue
// and starts the read loop.
func (c *Client) establish() error {
	conn, err := c.dial(c.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.ServerAddr, err)
	}

	hello, err := protocol.Encode(protocol.OpHelloRequest, &protocol.HelloRequest{
		Username: c.cfg.Username,
	})
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		conn.Close()
		return fmt.Errorf("send hello: %w", err)
	}

	_, frame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("read hello response: %w", err)
	}
	_, msg, err := protocol.Decode(frame)
	if err != nil {
		conn.Close()
		return err
	}
	resp, ok := msg.(*protocol.HelloResponse)
	if !ok {
		conn.Close()
		return fmt.Errorf("expected hello response, got %T", msg)
	}

	// The write lock is taken before CONNECTED is published so that a
	// concurrent Send cannot slip a frame in ahead of the queued actions.
	c.writeMu.Lock()
	c.mu.Lock()
	c.conn = conn
	c.state = Connected
	c.gen++
	gen := c.gen
	c.userID = resp.UserID
	c.balance = resp.Balance
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	if c.log != nil {
		c.log.Infof("connected as user %d, draining %d queued frames", resp.UserID, len(pending))
	}

	// Queued offline actions go out first, in original order. A failed
	// write puts the undelivered tail back at the head of the queue for
	// the next connection.
	for i, f := range pending {
		if err := conn.WriteMessage(websocket.BinaryMessage, f); err != nil {
			c.mu.Lock()
			c.queue = append(append([][]byte{}, pending[i:]...), c.queue...)
			c.mu.Unlock()
			if c.log != nil {
				c.log.Warnf("drain stopped at frame %d of %d, requeued the rest: %v",
					i+1, len(pending), err)
			}
			break
		}
	}
	c.writeMu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// Send delivers a packet to the server, or queues it while offline. A full
// queue drops the newest packet with a warning; queued order is never
// changed.
func (c *Client) Send(op protocol.Op, msg interface{}) error {
	frame, err := protocol.Encode(op, msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == Connected {
		conn := c.conn
		c.mu.Unlock()
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteMessage(websocket.BinaryMessage, frame)
	}

	if len(c.queue) >= c.cfg.QueueCapacity {
		c.mu.Unlock()
		if c.log != nil {
			c.log.Warnf("offline queue full (%d), dropping %s", c.cfg.QueueCapacity, op)
		}
		return nil
	}
	c.queue = append(c.queue, frame)
	c.mu.Unlock()
	return nil
}

// QueuedActions returns how many frames wait for reconnection.
func (c *Client) QueuedActions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Client) readLoop(conn Conn, gen int) {
	for {
		mt, frame, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(conn, gen, err)
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		op, msg, err := protocol.Decode(frame)
		if err != nil {
			if c.log != nil {
				c.log.Warnf("bad frame from server: %v", err)
			}
			continue
		}
		c.dispatch(op, msg)
	}
}

func (c *Client) dispatch(op protocol.Op, msg interface{}) {
	c.handlersMu.RLock()
	handlers := c.handlers
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(op, msg)
	}
}

// connectionLost transitions to CONNECTING and runs the bounded retry
// cycle. Exhausting the budget raises the terminal failure event.
func (c *Client) connectionLost(conn Conn, gen int, cause error) {
	conn.Close()

	c.mu.Lock()
	// A stale read loop from a replaced connection must not trigger
	// another reconnect cycle.
	if c.gen != gen || c.state != Connected {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.mu.Unlock()

	if c.log != nil {
		c.log.Warnf("connection lost: %v, reconnecting", cause)
	}

	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		time.Sleep(c.cfg.ReconnectDelay)
		if err := c.establish(); err != nil {
			if c.log != nil {
				c.log.Warnf("reconnect attempt %d/%d failed: %v",
					attempt, c.cfg.ReconnectAttempts, err)
			}
			continue
		}
		return
	}

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()

	if c.log != nil {
		c.log.Errorf("reconnect budget exhausted after %d attempts", c.cfg.ReconnectAttempts)
	}
	c.handlersMu.RLock()
	terminal := c.onTerminal
	c.handlersMu.RUnlock()
	if terminal != nil {
		terminal(fmt.Errorf("%w: %v", ErrConnectionFailed, cause))
	}
}

// Close tears the connection down without retrying.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++ // invalidate any running read loop
	c.state = Disconnected
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
