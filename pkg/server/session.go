package server

import (
	"fmt"
	"sync"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/vmtri/cardroom/pkg/protocol"
)

// transport is the subset of the websocket connection the session uses.
// Tests substitute an in-memory implementation.
type transport interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// sendQueueSize bounds the per-connection outbound queue. A client that
// cannot drain this many frames is effectively dead.
const sendQueueSize = 128

// Session is one client connection. Frames are written from a single
// writer goroutine; Send may be called from any goroutine.
type Session struct {
	// UserID and Username are set once the connection completes the hello
	// exchange.
	UserID   int64
	Username string

	conn transport
	log  slog.Logger

	sendCh    chan []byte
	quit      chan struct{}
	closeOnce sync.Once
}

// NewSession wraps a connection and starts its writer goroutine.
func NewSession(conn transport, log slog.Logger) *Session {
	s := &Session{
		conn:   conn,
		log:    log,
		sendCh: make(chan []byte, sendQueueSize),
		quit:   make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *Session) writeLoop() {
	for {
		select {
		case frame := <-s.sendCh:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				if s.log != nil {
					s.log.Debugf("write to %s failed: %v", s.Username, err)
				}
				s.Close()
				return
			}
		case <-s.quit:
			return
		}
	}
}

// Send queues a frame for delivery. A full queue drops the frame with a
// warning rather than blocking the caller.
func (s *Session) Send(frame []byte) {
	select {
	case <-s.quit:
	case s.sendCh <- frame:
	default:
		if s.log != nil {
			s.log.Warnf("send queue full for %s, dropping frame", s.Username)
		}
	}
}

// SendPacket encodes and queues a protocol message.
func (s *Session) SendPacket(op protocol.Op, msg interface{}) error {
	frame, err := protocol.Encode(op, msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", op, err)
	}
	s.Send(frame)
	return nil
}

// SendError reports a rejection to this connection only.
func (s *Session) SendError(code protocol.ErrorCode, message string) {
	s.SendPacket(protocol.OpError, &protocol.ErrorPacket{
		Code:    code,
		Message: message,
	})
}

// ReadFrame blocks for the next binary frame from the client.
func (s *Session) ReadFrame() ([]byte, error) {
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

// Close tears down the connection. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.conn.Close()
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}
