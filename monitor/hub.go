// Package monitor pushes call events to browsers watching the landing page.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/models"
)

// ErrBacklog is returned by Publish when the hub cannot keep up.
var ErrBacklog = errors.New("monitor: broadcast backlog full")

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected websocket. Run owns the client set.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	clients    map[*client]struct{}
	connected  atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for cl := range h.clients {
				h.drop(cl)
			}
			return
		case cl := <-h.register:
			h.clients[cl] = struct{}{}
			h.connected.Add(1)
		case cl := <-h.unregister:
			if _, ok := h.clients[cl]; ok {
				h.drop(cl)
			}
		case msg := <-h.broadcast:
			for cl := range h.clients {
				select {
				case cl.send <- msg:
				default:
					logger.Log.Debug("dropping slow monitor client")
					h.drop(cl)
				}
			}
		}
	}
}

func (h *Hub) drop(cl *client) {
	delete(h.clients, cl)
	close(cl.send)
	h.connected.Add(-1)
}

// Connected is the number of registered clients.
func (h *Hub) Connected() int {
	return int(h.connected.Load())
}

// Publish queues the event for every connected client.
func (h *Hub) Publish(ctx context.Context, event models.CallEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBacklog
	}
}

// ServeWS upgrades the request and streams events until the peer leaves.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- cl:
	case <-h.done:
		return conn.Close()
	}
	logger.Log.Debug("monitor client connected", zap.String("remote", c.RealIP()))

	go cl.writePump()
	cl.readPump()

	select {
	case h.unregister <- cl:
	case <-h.done:
	}
	return nil
}

func (cl *client) writePump() {
	defer cl.conn.Close()
	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// readPump sees the closed conn and unregisters.
			cl.conn.Close()
		}
	}
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards anything the browser sends; it only detects disconnects.
func (cl *client) readPump() {
	cl.conn.SetReadLimit(512)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
