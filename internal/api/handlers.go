// Package api is the HTTP lobby surface: creating, joining, listing and
// archiving sessions. Gameplay itself runs over the socket endpoint.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ohhell/internal/app"
	"ohhell/internal/ports"
)

type Handlers struct {
	svc  *app.Service
	sink app.EventSink
	log  zerolog.Logger
}

// NewHandlers wires the lobby endpoints. sink receives the events of
// state-changing requests so connected sockets stay current; it may be
// nil when no realtime fan-out is attached.
func NewHandlers(svc *app.Service, sink app.EventSink, log zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, sink: sink, log: log}
}

type createSessionRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"name" binding:"required"`
}

type joinSessionRequest struct {
	JoinCode    string `json:"join_code" binding:"required"`
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"name" binding:"required"`
}

// sessionListEntry is one row in the lobby listing.
type sessionListEntry struct {
	SessionID string              `json:"session_id"`
	JoinCode  string              `json:"join_code"`
	Status    ports.SessionStatus `json:"status"`
	SeatCount int                 `json:"seat_count"`
	CreatedAt time.Time           `json:"created_at"`
}

// CreateSession handles POST /api/sessions.
func (h *Handlers) CreateSession(c *gin.Context) {
	var body createSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	snap, seat, err := h.svc.CreateSession(c.Request.Context(), body.UserID, body.DisplayName)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":        app.BuildSessionView(snap, seat.ID),
		"join_code":      snap.Session.JoinCode,
		"game_player_id": seat.ID,
	})
}

// JoinSession handles POST /api/sessions/join. The fourth join starts
// the game, so its events are pushed to already-connected sockets.
func (h *Handlers) JoinSession(c *gin.Context) {
	var body joinSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	snap, seat, events, err := h.svc.JoinSession(c.Request.Context(), body.JoinCode, body.UserID, body.DisplayName)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if h.sink != nil && len(events) > 0 {
		h.sink.Dispatch(snap.Session.ID, events)
	}

	c.JSON(http.StatusOK, gin.H{
		"session":        app.BuildSessionView(snap, seat.ID),
		"game_player_id": seat.ID,
	})
}

// ListSessions handles GET /api/sessions?status=. Pending is the
// default so the lobby shows joinable games.
func (h *Handlers) ListSessions(c *gin.Context) {
	status := ports.SessionStatus(c.DefaultQuery("status", string(ports.StatusPending)))

	sessions, err := h.svc.ListSessions(c.Request.Context(), status)
	if err != nil {
		h.renderError(c, err)
		return
	}

	entries := make([]sessionListEntry, 0, len(sessions))
	for _, sess := range sessions {
		entries = append(entries, sessionListEntry{
			SessionID: sess.ID,
			JoinCode:  sess.JoinCode,
			Status:    sess.Status,
			SeatCount: len(sess.Players),
			CreatedAt: sess.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": entries})
}

// GetSession handles GET /api/sessions/:id?game_player_id=. The view is
// personalized when the query names a seat, spectator-shaped otherwise.
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := h.svc.SessionSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": app.BuildSessionView(snap, c.Query("game_player_id")),
	})
}

// ArchiveSession handles POST /api/sessions/:id/archive.
func (h *Handlers) ArchiveSession(c *gin.Context) {
	snap, events, err := h.svc.ArchiveSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if h.sink != nil && len(events) > 0 {
		h.sink.Dispatch(snap.Session.ID, events)
	}
	c.JSON(http.StatusOK, gin.H{
		"session": app.BuildSessionView(snap, ""),
	})
}

// renderError maps service sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with its cause logged, not leaked.
func (h *Handlers) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSeatNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrSessionNotJoinable),
		errors.Is(err, app.ErrSessionFull),
		errors.Is(err, app.ErrAlreadyJoined),
		errors.Is(err, app.ErrWrongPhase),
		errors.Is(err, app.ErrDuplicateBid):
		status = http.StatusConflict
	case errors.Is(err, app.ErrNotYourTurn),
		errors.Is(err, app.ErrRoundMismatch),
		errors.Is(err, app.ErrBidOutOfRange),
		errors.Is(err, app.ErrCardNotInHand),
		errors.Is(err, app.ErrIllegalPlay):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
