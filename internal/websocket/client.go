package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClientClosed is returned by Send after the connection has closed
	ErrClientClosed = errors.New("client is closed")
	// ErrSlowClient is returned by Send when the outbox is full. The
	// connection is closed so the subscriber reconnects and gets a replay.
	ErrSlowClient = errors.New("client outbox full")
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10

	// alert frames are small and rare
	outboxSize   = 16
	inboundLimit = 512
)

// Client is a push-only alert stream over one WebSocket connection. Inbound
// frames are read only to observe pongs and the peer closing.
type Client struct {
	ownerID string
	ws      *websocket.Conn
	outbox  chan []byte
	done    chan struct{}
	once    sync.Once
}

// NewClient wraps an upgraded connection for ownerID
func NewClient(ws *websocket.Conn, ownerID string) *Client {
	return &Client{
		ownerID: ownerID,
		ws:      ws,
		outbox:  make(chan []byte, outboxSize),
		done:    make(chan struct{}),
	}
}

// OwnerID returns the Auth0 subject the stream authenticated as
func (c *Client) OwnerID() string {
	return c.ownerID
}

// Send queues a frame without blocking
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbox <- data:
		return nil
	default:
		c.Close()
		return ErrSlowClient
	}
}

// Close tears the connection down. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// Serve attaches the client to hub and writes queued frames until the peer
// goes away or the client is closed. It blocks; run it in its own goroutine.
func (c *Client) Serve(hub *Hub) {
	hub.Attach(c)
	defer func() {
		hub.Detach(c)
		c.Close()
	}()

	go c.watchPeer()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.outbox:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("owner_id", c.ownerID).Msg("Alert stream write failed")
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// watchPeer discards inbound frames and closes the client once the peer
// stops answering pings or disconnects
func (c *Client) watchPeer() {
	defer c.Close()

	c.ws.SetReadLimit(inboundLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("owner_id", c.ownerID).Msg("Alert stream closed by peer")
			}
			return
		}
	}
}
