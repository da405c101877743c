package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize = 32
	writeTimeout   = 5 * time.Second
	pingInterval   = 30 * time.Second
)

// Client is one socket attached to a session, bound to a single seat
// (or seatless, for spectators). Writes go through a buffered channel
// drained by writePump so a slow reader never blocks a broadcast.
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	sessionID    string
	gamePlayerID string
	log          zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

func newClient(conn *websocket.Conn, sessionID, gamePlayerID string, log zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		sessionID:    sessionID,
		gamePlayerID: gamePlayerID,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeCtx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).
					Str("session_id", c.sessionID).
					Str("game_player_id", c.gamePlayerID).
					Msg("socket write failed")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// trySend queues a frame. A client whose buffer is full is dropped
// rather than allowed to stall everyone else's updates.
func (c *Client) trySend(msg []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn().
			Str("session_id", c.sessionID).
			Str("game_player_id", c.gamePlayerID).
			Msg("send buffer full, dropping slow client")
		go c.close()
		return false
	}
}

func (c *Client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
