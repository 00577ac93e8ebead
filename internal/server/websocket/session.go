package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Session carries one stream to one peer. The server only writes; a read
// pump watches for the peer going away and cancels the session context.
type Session struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.Mutex
}

// NewSession starts the read pump for conn. The session context is derived
// from parent.
func NewSession(parent context.Context, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{conn: conn, ctx: ctx, cancel: cancel}
	go s.readPump()
	return s
}

func (s *Session) readPump() {
	defer s.cancel()
	s.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Context is canceled when the peer disconnects or the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// WriteJSON sends v as a text message.
func (s *Session) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// Close sends a close frame with the given code and closes the connection.
// It is safe to call more than once.
func (s *Session) Close(code int, reason string) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		deadline := time.Now().Add(writeWait)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		s.mu.Unlock()
		s.cancel()
		err = s.conn.Close()
	})
	return err
}
