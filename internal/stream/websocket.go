package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/websocket"
)

var ErrMissingURL = errors.New("stream: websocket url required")

// WebSocket presents a websocket connection as a byte stream. Each Write
// is one binary message; Read drains messages back to back so frames may
// span message boundaries.
type WebSocket struct {
	conn *websocket.Conn
	r    io.Reader
}

func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// DialWebSocket connects to a ws:// or wss:// bridge.
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	return NewWebSocket(conn), nil
}

func (w *WebSocket) Read(p []byte) (int, error) {
	for {
		if w.r == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			w.r = r
		}
		n, err := w.r.Read(p)
		if errors.Is(err, io.EOF) {
			w.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal close message and closes the connection.
func (w *WebSocket) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteMessage(websocket.CloseMessage, msg)
	return w.conn.Close()
}
