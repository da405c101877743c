// Package ws is the realtime gateway: it upgrades session sockets,
// routes game actions to the app service, and fans session events out
// to the attached clients with per-seat personalized state.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ohhell/internal/app"
)

// Gateway owns the socket endpoint for one server process.
type Gateway struct {
	svc            *app.Service
	hub            *Hub
	log            zerolog.Logger
	originPatterns []string
}

var _ app.EventSink = (*Gateway)(nil)

func NewGateway(svc *app.Service, hub *Hub, log zerolog.Logger, originPatterns []string) *Gateway {
	return &Gateway{
		svc:            svc,
		hub:            hub,
		log:            log,
		originPatterns: originPatterns,
	}
}

// Handle upgrades GET /ws?session_id=&game_player_id= and serves the
// connection until the client goes away. A seat is authenticated
// against the session before the upgrade; omitting game_player_id
// attaches a spectator that only ever sees the public projection.
func (g *Gateway) Handle(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	gamePlayerID := c.Query("game_player_id")
	if gamePlayerID != "" {
		if _, err := g.svc.SeatInSession(c.Request.Context(), sessionID, gamePlayerID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "seat not found in session"})
			return
		}
	} else if _, err := g.svc.SessionSnapshot(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Debug().Err(err).Str("session_id", sessionID).Msg("socket upgrade failed")
		return
	}

	client := newClient(conn, sessionID, gamePlayerID, g.log)
	g.hub.Register(client)
	go client.writePump()

	g.sendState(client)
	g.readLoop(client)
}

func (g *Gateway) readLoop(client *Client) {
	defer func() {
		g.hub.Unregister(client)
	}()

	// Reads block indefinitely; dead peers surface through the write
	// pump's ping failures, which close the client context.
	for {
		_, data, err := client.conn.Read(client.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				g.log.Debug().Err(err).
					Str("session_id", client.sessionID).
					Str("game_player_id", client.gamePlayerID).
					Msg("socket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			g.sendError(client, "", "malformed message")
			continue
		}
		g.handleMessage(client, &msg)
	}
}

func (g *Gateway) handleMessage(client *Client, msg *ClientMessage) {
	ctx := context.Background()

	switch msg.Type {
	case MsgJoinGameRoom:
		g.sendState(client)

	case MsgSubmitBid:
		var p SubmitBidPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			g.sendError(client, msg.Type, "malformed payload")
			return
		}
		if p.GamePlayerID != client.gamePlayerID {
			g.sendError(client, msg.Type, "cannot act for another seat")
			return
		}
		_, events, err := g.svc.SubmitBid(ctx, client.sessionID, client.gamePlayerID, p.RoundNumber, p.Bid)
		if err != nil {
			g.sendError(client, msg.Type, g.actionMessage(err))
			return
		}
		g.Dispatch(client.sessionID, events)

	case MsgPlayCard:
		var p PlayCardPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			g.sendError(client, msg.Type, "malformed payload")
			return
		}
		if p.GamePlayerID != client.gamePlayerID {
			g.sendError(client, msg.Type, "cannot act for another seat")
			return
		}
		_, events, err := g.svc.PlayCard(ctx, client.sessionID, client.gamePlayerID, p.Card)
		if err != nil {
			g.sendError(client, msg.Type, g.actionMessage(err))
			return
		}
		g.Dispatch(client.sessionID, events)

	case MsgProceedToNext:
		_, events, err := g.svc.AdvanceRound(ctx, client.sessionID)
		if err != nil {
			g.sendError(client, msg.Type, g.actionMessage(err))
			return
		}
		g.Dispatch(client.sessionID, events)

	default:
		g.sendError(client, msg.Type, "unknown message type")
	}
}

// Dispatch fans events out to the session's clients. State changes are
// projected per seat so a hand is only ever written to its owner's
// socket; targeted events go to their recipients alone.
//
// Dispatch also serves as the app.EventSink for timer-driven advances.
func (g *Gateway) Dispatch(sessionID string, events []app.Event) {
	for _, ev := range events {
		switch {
		case ev.Kind == app.EventStateChanged:
			snap, ok := ev.Payload.(*app.Snapshot)
			if !ok {
				continue
			}
			for _, client := range g.hub.Clients(sessionID) {
				g.sendView(client, snap)
			}

		case len(ev.Recipients) > 0:
			data, err := json.Marshal(ServerMessage{Type: string(ev.Kind), Payload: ev.Payload})
			if err != nil {
				continue
			}
			for _, rid := range ev.Recipients {
				g.hub.SendToSeat(sessionID, rid, data)
			}

		default:
			data, err := json.Marshal(ServerMessage{Type: string(ev.Kind), Payload: ev.Payload})
			if err != nil {
				continue
			}
			g.hub.Broadcast(sessionID, data)
		}
	}
}

func (g *Gateway) sendState(client *Client) {
	snap, err := g.svc.SessionSnapshot(context.Background(), client.sessionID)
	if err != nil {
		g.sendError(client, MsgJoinGameRoom, g.actionMessage(err))
		return
	}
	g.sendView(client, snap)
}

func (g *Gateway) sendView(client *Client, snap *app.Snapshot) {
	view := app.BuildSessionView(snap, client.gamePlayerID)
	data, err := json.Marshal(ServerMessage{Type: MsgGameStateUpdate, Payload: view})
	if err != nil {
		g.log.Error().Err(err).Msg("marshal session view")
		return
	}
	client.trySend(data)
}

func (g *Gateway) sendError(client *Client, action, message string) {
	data, err := json.Marshal(ServerMessage{
		Type:    MsgActionError,
		Payload: ActionErrorPayload{Action: action, Message: message},
	})
	if err != nil {
		return
	}
	client.trySend(data)
}

var actionErrors = []error{
	app.ErrSessionNotFound,
	app.ErrSessionNotJoinable,
	app.ErrSessionFull,
	app.ErrAlreadyJoined,
	app.ErrSeatNotFound,
	app.ErrWrongPhase,
	app.ErrNotYourTurn,
	app.ErrRoundMismatch,
	app.ErrBidOutOfRange,
	app.ErrDuplicateBid,
	app.ErrCardNotInHand,
	app.ErrIllegalPlay,
}

// actionMessage maps validation failures to their message and hides
// anything else behind a generic one.
func (g *Gateway) actionMessage(err error) string {
	for _, known := range actionErrors {
		if errors.Is(err, known) {
			g.log.Debug().Err(err).Msg("action rejected")
			return err.Error()
		}
	}
	g.log.Error().Err(err).Msg("action failed")
	return "internal error"
}
