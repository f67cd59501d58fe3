// Package transport is the WebSocket edge of the server: it upgrades an
// HTTP request to a socket, then runs the standard gorilla read/write
// pump pair, isolating internal/dispatch and internal/hub from gorilla
// entirely — they only ever see a Conn.
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/obrien-tchaleu/crosscircle-server/internal/hub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn wraps one upgraded WebSocket connection. It implements hub.Conn.
type Conn struct {
	ws        *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// Upgrade promotes an HTTP request to a WebSocket connection and starts
// its write pump. The caller is responsible for running Listen to start
// reading, normally in the same goroutine that called Upgrade.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	conn := &Conn{ws: ws, send: make(chan []byte, hub.SendBuffer)}
	go conn.writePump()
	return conn, nil
}

// Send queues a pre-marshaled frame for delivery. If the connection's
// outbound buffer is already full, the frame is dropped rather than
// blocking the room goroutine that called it.
func (c *Conn) Send(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// Close tears down the outbound queue, which in turn lets writePump send
// a close frame and close the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Listen blocks reading frames off the socket, invoking onMessage for
// each one, until the connection errors or closes, at which point
// onClose runs exactly once. Intended to be called from the HTTP
// handler's own goroutine right after Upgrade.
func (c *Conn) Listen(onMessage func(data []byte), onClose func()) {
	defer func() {
		onClose()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		onMessage(message)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
