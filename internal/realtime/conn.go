package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one live client connection as the hub sees it. The websocket
// implementation lives behind this interface so the hub (and its tests)
// never touch transport details.
type Conn interface {
	// SendVolatile queues an event without blocking; it reports false
	// when the event was dropped because the connection is backed up.
	SendVolatile(ev Event) bool

	// SendGuaranteed queues an event, waiting up to the write timeout
	// for buffer space. Failing or closed connections return an error.
	SendGuaranteed(ev Event) error

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

var errConnClosed = errors.New("realtime: connection closed")

const (
	// sendBuffer is the per-connection outbound queue; volatile events
	// beyond it are dropped.
	sendBuffer = 32

	// writeWait bounds a single websocket write and the guaranteed-send
	// wait for buffer space.
	writeWait = 10 * time.Second

	// pingPeriod keeps intermediaries from reaping idle connections.
	// Must be shorter than pongWait.
	pingPeriod = 45 * time.Second

	pongWait = 60 * time.Second
)

// wsConn adapts a gorilla websocket connection to the Conn interface
// with a single writer goroutine, since gorilla permits at most one
// concurrent writer.
type wsConn struct {
	ws   *websocket.Conn
	send chan Event
	done chan struct{}
	once sync.Once
}

// NewConn wraps an upgraded websocket connection for hub registration
// and starts its writer.
func NewConn(ws *websocket.Conn) Conn {
	c := &wsConn{
		ws:   ws,
		send: make(chan Event, sendBuffer),
		done: make(chan struct{}),
	}
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.writePump()
	return c
}

func (c *wsConn) SendVolatile(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *wsConn) SendGuaranteed(ev Event) error {
	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return errConnClosed
	case <-time.After(writeWait):
		return errors.New("realtime: send timed out")
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.ws.Close()
}

// writePump owns all writes on the underlying connection until it is
// closed.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
