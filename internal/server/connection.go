package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be shorter than pongWait
	maxRequestSize = 8192
	sendBuffer     = 256
)

// ErrConnectionClosed is returned when a response is queued after Close or
// when the peer stops draining its responses.
var ErrConnectionClosed = errors.New("connection closed")

// DrawFunc answers a draw request
type DrawFunc func(DrawRequest) DrawResponse

// Connection serves draw requests from one WebSocket peer. Responses are
// queued on a buffered channel and written by a single writer goroutine.
type Connection struct {
	conn      *websocket.Conn
	responses chan *DrawResponse
	draw      DrawFunc
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded WebSocket
func NewConnection(conn *websocket.Conn, logger *log.Logger, draw DrawFunc) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:      conn,
		responses: make(chan *DrawResponse, sendBuffer),
		draw:      draw,
		logger:    logger.WithPrefix("conn"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the reader and writer goroutines
func (c *Connection) Start() {
	go c.writeResponses()
	go c.serveRequests()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close sends a close frame and releases the socket. It is safe to call more
// than once and concurrently with Send.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		// WriteControl may run alongside the writer goroutine
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

// Send queues a response. A full queue means the peer is not reading, so the
// connection is dropped.
func (c *Connection) Send(resp *DrawResponse) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.responses <- resp:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Response queue full, dropping peer", "queued", len(c.responses))
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) serveRequests() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxRequestSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var req DrawRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if c.Send(&DrawResponse{Error: "invalid request: " + err.Error()}) != nil {
				return
			}
			continue
		}

		c.logger.Debug("Received draw request", "id", req.ID, "domain", req.Domain, "op", req.Op)
		resp := c.draw(req)
		if c.Send(&resp) != nil {
			return
		}
	}
}

func (c *Connection) writeResponses() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case resp := <-c.responses:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(resp); err != nil {
				c.logger.Debug("Failed to write response", "id", resp.ID, "error", err)
				_ = c.Close()
				return
			}

		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
