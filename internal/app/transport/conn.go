/*
Package transport maintains the WebSocket connection to the chat server.

A Conn runs a read pump that hands every received text frame to a FrameSink in
receipt order, and a write pump that drains a bounded send queue. Sending is
best-effort and never blocks the caller.
*/
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatview/internal/pkg/errs"
	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong from the server.
	pongWait = 60 * time.Second

	// frequency at which the client sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxFrameSize is the largest frame accepted from the server.
	// A larger frame fails the connection.
	DefaultMaxFrameSize = 1 << 20

	// DefaultSendBuffer is the number of frames that may wait in the send queue.
	DefaultSendBuffer = 256
)

// FrameSink receives frames read from the connection. Publish returns false
// when the sink no longer accepts frames, which stops the read pump.
type FrameSink interface {
	Publish(frame []byte) bool
}

// Options tune Dial.
type Options struct {
	// HandshakeTimeout bounds the WebSocket opening handshake. Zero disables it.
	HandshakeTimeout time.Duration

	// Header is sent with the handshake request.
	Header http.Header

	// SendBuffer is the send queue length; non-positive selects DefaultSendBuffer.
	SendBuffer int

	// MaxFrameSize is the read limit in bytes; non-positive selects DefaultMaxFrameSize.
	MaxFrameSize int64
}

// Conn is an open chat server connection.
type Conn struct {
	// underlying WebSocket connection object.
	ws *websocket.Conn

	// sink receives every text frame read from ws.
	sink FrameSink

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// maxFrameSize is the read limit applied by ReadPump.
	maxFrameSize int64

	// done is closed when the connection shuts down.
	done      chan struct{}
	closeOnce sync.Once

	// wg tracks the read and write pumps.
	wg sync.WaitGroup

	// structured logger with connection context.
	logger zerolog.Logger
}

// Dial opens a WebSocket to rawURL and starts the pumps.
func Dial(ctx context.Context, rawURL string, sink FrameSink, opts Options) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	c := NewConn(ws, sink, opts.SendBuffer)
	if opts.MaxFrameSize > 0 {
		c.maxFrameSize = opts.MaxFrameSize
	}
	c.logger = c.logger.With().Str("server_url", rawURL).Logger()
	c.Start()

	c.logger.Info().Msg("Connected to chat server.")
	return c, nil
}

// NewConn wraps an established WebSocket. Call Start to run the pumps.
func NewConn(ws *websocket.Conn, sink FrameSink, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	return &Conn{
		ws:           ws,
		sink:         sink,
		send:         make(chan []byte, sendBuffer),
		maxFrameSize: DefaultMaxFrameSize,
		done:         make(chan struct{}),
		logger:       logx.Component("transport"),
	}
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		c.WritePump()
	}()

	go func() {
		defer c.wg.Done()
		c.ReadPump()
	}()
}

// ReadPump reads frames until the connection fails or closes and hands each
// text frame to the sink in receipt order.
func (c *Conn) ReadPump() {
	defer c.shutdown()

	c.ws.SetReadLimit(c.maxFrameSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Connection closed unexpectedly")
			} else {
				c.logger.Info().Err(err).Msg("Read pump stopped")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		metrics.FramesReceived.Inc()

		if !c.sink.Publish(frame) {
			c.logger.Info().Msg("Frame sink closed, stopping read pump")
			return
		}
	}
}

// WritePump writes queued frames and periodic pings until shutdown.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

// writeFrame writes one message with a deadline. It reports false if the
// write pump should stop.
func (c *Conn) writeFrame(messageType int, payload []byte) bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.ws.WriteMessage(messageType, payload); err != nil {
		c.logger.Error().Err(err).Int("message_type", messageType).Msg("Error writing frame")
		return false
	}

	return true
}

// TrySend queues frame without blocking. It fails with ErrNotConnected after
// shutdown and ErrSendQueueFull when the queue has no room.
func (c *Conn) TrySend(frame []byte) error {
	select {
	case <-c.done:
		return errs.NewError(errs.ErrNotConnected)
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
		return errs.NewError(errs.ErrSendQueueFull)
	}
}

// Done is closed when the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close sends a normal closure to the server and releases the connection.
// It waits for the pumps to exit.
func (c *Conn) Close() error {
	c.shutdown()
	c.wg.Wait()
	return nil
}

// shutdown runs once, from whichever side notices the end first.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)

		closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client close")
		if err := c.ws.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to send close frame")
		}

		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}

		c.logger.Info().Msg("Connection closed.")
	})
}
