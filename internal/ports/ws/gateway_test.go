package ws_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ohhell/internal/app"
	"ohhell/internal/domain"
	"ohhell/internal/ports"
	"ohhell/internal/ports/gormstore"
	"ohhell/internal/ports/ws"
)

func newGatewayServer(t *testing.T) (*app.Service, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gormstore.Migrate(db))

	svc := app.NewService(gormstore.New(db), zerolog.Nop(), rand.New(rand.NewSource(11)), time.Hour)
	t.Cleanup(svc.Close)

	hub := ws.NewHub(zerolog.Nop())
	hubCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	gw := ws.NewGateway(svc, hub, zerolog.Nop(), nil)
	svc.SetSink(gw)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", gw.Handle)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return svc, srv.URL
}

// seatUpSession fills all four seats and returns the snapshot taken
// after the fourth join started round 1.
func seatUpSession(t *testing.T, svc *app.Service) *app.Snapshot {
	t.Helper()
	ctx := context.Background()

	first, _, err := svc.CreateSession(ctx, "user-0", "P0")
	require.NoError(t, err)

	var snap *app.Snapshot
	for i := 1; i < domain.NumSeats; i++ {
		snap, _, _, err = svc.JoinSession(ctx, first.Session.JoinCode, fmt.Sprintf("user-%d", i), fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	return snap
}

func socketURL(baseURL, sessionID, gamePlayerID string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") +
		"/ws?session_id=" + sessionID + "&game_player_id=" + gamePlayerID
}

type serverFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// testConn dials one seat's socket and collects every frame the server
// pushes, so tests can assert on ordering and targeting.
type testConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	frames []serverFrame
}

func dialSeat(t *testing.T, baseURL, sessionID, gamePlayerID string) *testConn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, socketURL(baseURL, sessionID, gamePlayerID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	tc := &testConn{conn: conn}
	go tc.receive()
	return tc
}

func (tc *testConn) receive() {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, data, err := tc.conn.Read(ctx)
		cancel()
		if err != nil {
			return
		}
		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		tc.mu.Lock()
		tc.frames = append(tc.frames, frame)
		tc.mu.Unlock()
	}
}

func (tc *testConn) send(t *testing.T, msgType string, payload any) {
	t.Helper()

	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tc.conn.Write(ctx, websocket.MessageText, data))
}

func (tc *testConn) sendRaw(t *testing.T, data []byte) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tc.conn.Write(ctx, websocket.MessageText, data))
}

// waitFor blocks until a frame of the given type arrives.
func (tc *testConn) waitFor(t *testing.T, msgType string) serverFrame {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		tc.mu.Lock()
		for _, f := range tc.frames {
			if f.Type == msgType {
				tc.mu.Unlock()
				return f
			}
		}
		tc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no %q frame arrived", msgType)
	return serverFrame{}
}

// waitForView blocks until a state update satisfying pred arrives.
func (tc *testConn) waitForView(t *testing.T, pred func(app.SessionView) bool) app.SessionView {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		tc.mu.Lock()
		for _, f := range tc.frames {
			if f.Type != ws.MsgGameStateUpdate {
				continue
			}
			var view app.SessionView
			if err := json.Unmarshal(f.Payload, &view); err != nil {
				continue
			}
			if pred(view) {
				tc.mu.Unlock()
				return view
			}
		}
		tc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no matching state update arrived")
	return app.SessionView{}
}

func (tc *testConn) countOf(msgType string) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	n := 0
	for _, f := range tc.frames {
		if f.Type == msgType {
			n++
		}
	}
	return n
}

func TestSocketDeliversPersonalizedState(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	for _, seat := range snap.Players {
		tc := dialSeat(t, baseURL, snap.Session.ID, seat.ID)
		frame := tc.waitFor(t, ws.MsgGameStateUpdate)

		var view app.SessionView
		require.NoError(t, json.Unmarshal(frame.Payload, &view))
		assert.Equal(t, snap.Session.ID, view.SessionID)
		assert.Equal(t, ports.StatusBidding, view.Status)
		assert.Equal(t, seat.ID, view.YourSeatID)
		assert.Len(t, view.YourHand, 1, "round 1 deals one card")
		assert.Len(t, view.Seats, domain.NumSeats)
		for _, sv := range view.Seats {
			assert.Equal(t, 1, sv.CardsRemaining)
		}
	}
}

func TestSocketRejectsBadHandshakes(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	t.Run("unknown seat", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, resp, err := websocket.Dial(ctx, socketURL(baseURL, snap.Session.ID, uuid.NewString()), nil)
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing session id", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, resp, err := websocket.Dial(ctx, socketURL(baseURL, "", snap.Players[0].ID), nil)
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, resp, err := websocket.Dial(ctx, socketURL(baseURL, uuid.NewString(), ""), nil)
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSocketSpectatorSeesPublicView(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	// No game_player_id: the connection attaches seatless and only ever
	// receives the public projection.
	tc := dialSeat(t, baseURL, snap.Session.ID, "")
	frame := tc.waitFor(t, ws.MsgGameStateUpdate)

	var view app.SessionView
	require.NoError(t, json.Unmarshal(frame.Payload, &view))
	assert.Equal(t, snap.Session.ID, view.SessionID)
	assert.Empty(t, view.YourSeatID)
	assert.Empty(t, view.YourHand)
	for _, sv := range view.Seats {
		assert.Equal(t, 1, sv.CardsRemaining)
	}

	require.NotNil(t, snap.Session.CurrentTurnGamePlayerID)
	turnID := *snap.Session.CurrentTurnGamePlayerID
	tc.send(t, ws.MsgSubmitBid, ws.SubmitBidPayload{GamePlayerID: turnID, RoundNumber: 1, Bid: 0})

	errFrame := tc.waitFor(t, ws.MsgActionError)
	var report ws.ActionErrorPayload
	require.NoError(t, json.Unmarshal(errFrame.Payload, &report))
	assert.Equal(t, "cannot act for another seat", report.Message)
}

func TestSocketBidRoundTrip(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	require.NotNil(t, snap.Session.CurrentTurnGamePlayerID)
	turnID := *snap.Session.CurrentTurnGamePlayerID
	var watcherSeat string
	for _, p := range snap.Players {
		if p.ID != turnID {
			watcherSeat = p.ID
			break
		}
	}

	bidder := dialSeat(t, baseURL, snap.Session.ID, turnID)
	watcher := dialSeat(t, baseURL, snap.Session.ID, watcherSeat)
	bidder.waitFor(t, ws.MsgGameStateUpdate)
	watcher.waitFor(t, ws.MsgGameStateUpdate)

	bidder.send(t, ws.MsgSubmitBid, ws.SubmitBidPayload{GamePlayerID: turnID, RoundNumber: 1, Bid: 1})

	// The bidder alone gets the ack.
	ack := bidder.waitFor(t, ws.MsgBidSuccess)
	var accepted app.BidAcceptedPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &accepted))
	assert.Equal(t, turnID, accepted.GamePlayerID)
	assert.Equal(t, 1, accepted.RoundNumber)
	assert.Equal(t, 1, accepted.Amount)

	// Both sockets get the refreshed state, each from their own view.
	require.Eventually(t, func() bool {
		return bidder.countOf(ws.MsgGameStateUpdate) >= 2 && watcher.countOf(ws.MsgGameStateUpdate) >= 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, watcher.countOf(ws.MsgBidSuccess))

	frame := watcher.waitFor(t, ws.MsgGameStateUpdate)
	var view app.SessionView
	require.NoError(t, json.Unmarshal(frame.Payload, &view))
	assert.Equal(t, watcherSeat, view.YourSeatID)
}

func TestSocketPlaysOutFirstRound(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)
	ctx := context.Background()

	conns := make(map[string]*testConn, domain.NumSeats)
	for _, p := range snap.Players {
		conns[p.ID] = dialSeat(t, baseURL, snap.Session.ID, p.ID)
		conns[p.ID].waitFor(t, ws.MsgGameStateUpdate)
	}

	// The bids go through the service; the sockets drive the plays.
	for i := 0; i < domain.NumSeats; i++ {
		cur, err := svc.SessionSnapshot(ctx, snap.Session.ID)
		require.NoError(t, err)
		require.NotNil(t, cur.Session.CurrentTurnGamePlayerID)
		_, _, err = svc.SubmitBid(ctx, snap.Session.ID, *cur.Session.CurrentTurnGamePlayerID, 1, 0)
		require.NoError(t, err)
	}

	for i := 0; i < domain.NumSeats; i++ {
		cur, err := svc.SessionSnapshot(ctx, snap.Session.ID)
		require.NoError(t, err)
		require.NotNil(t, cur.Session.CurrentTurnGamePlayerID)
		turn := *cur.Session.CurrentTurnGamePlayerID
		require.Len(t, cur.Hands[turn], 1, "round 1 deals one card")

		conns[turn].send(t, ws.MsgPlayCard, ws.PlayCardPayload{GamePlayerID: turn, Card: cur.Hands[turn][0]})

		// The ack doubles as the barrier: once it arrives the play has
		// committed and the next snapshot shows the next turn.
		ack := conns[turn].waitFor(t, ws.MsgPlayCardSuccess)
		var accepted app.PlayAcceptedPayload
		require.NoError(t, json.Unmarshal(ack.Payload, &accepted))
		assert.Equal(t, turn, accepted.GamePlayerID)
		assert.Equal(t, cur.Hands[turn][0], accepted.Card)
	}

	summary := conns[snap.Players[0].ID].waitForView(t, func(v app.SessionView) bool {
		return v.Status == ports.StatusRoundSummary
	})
	require.Len(t, summary.RoundSummary, domain.NumSeats)
	total := 0
	for _, row := range summary.RoundSummary {
		assert.Equal(t, 0, row.Bid)
		total += row.ScoreChange
	}
	assert.Equal(t, 27, total, "three exact zero bids score 10 each, the trick winner loses 3")

	// Any attached client may acknowledge the summary for the room.
	conns[snap.Players[1].ID].send(t, ws.MsgProceedToNext, nil)

	next := conns[snap.Players[2].ID].waitForView(t, func(v app.SessionView) bool {
		return v.Status == ports.StatusBidding && v.CurrentRound != nil && *v.CurrentRound == 2
	})
	assert.Equal(t, 2, next.HandSize)
	assert.Len(t, next.YourHand, 2, "round 2 deals two cards")
}

func TestSocketReportsActionErrors(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	require.NotNil(t, snap.Session.CurrentTurnGamePlayerID)
	turnID := *snap.Session.CurrentTurnGamePlayerID
	var offTurn string
	for _, p := range snap.Players {
		if p.ID != turnID {
			offTurn = p.ID
			break
		}
	}

	tc := dialSeat(t, baseURL, snap.Session.ID, offTurn)
	tc.waitFor(t, ws.MsgGameStateUpdate)

	tc.send(t, ws.MsgSubmitBid, ws.SubmitBidPayload{GamePlayerID: offTurn, RoundNumber: 1, Bid: 0})

	frame := tc.waitFor(t, ws.MsgActionError)
	var report ws.ActionErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &report))
	assert.Equal(t, ws.MsgSubmitBid, report.Action)
	assert.Equal(t, app.ErrNotYourTurn.Error(), report.Message)
}

func TestSocketRejectsSpoofedSeats(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	require.NotNil(t, snap.Session.CurrentTurnGamePlayerID)
	turnID := *snap.Session.CurrentTurnGamePlayerID
	var other string
	for _, p := range snap.Players {
		if p.ID != turnID {
			other = p.ID
			break
		}
	}

	// The socket is bound to `other` but the payload claims the turn
	// seat. The action must be refused even though it would be legal
	// for the claimed seat.
	tc := dialSeat(t, baseURL, snap.Session.ID, other)
	tc.waitFor(t, ws.MsgGameStateUpdate)

	tc.send(t, ws.MsgSubmitBid, ws.SubmitBidPayload{GamePlayerID: turnID, RoundNumber: 1, Bid: 0})

	frame := tc.waitFor(t, ws.MsgActionError)
	var report ws.ActionErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &report))
	assert.Equal(t, "cannot act for another seat", report.Message)

	after, err := svc.SessionSnapshot(context.Background(), snap.Session.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Bids, "no bid should have been recorded")
}

func TestSocketHandlesMalformedFrames(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	tc := dialSeat(t, baseURL, snap.Session.ID, snap.Players[0].ID)
	tc.waitFor(t, ws.MsgGameStateUpdate)

	tc.sendRaw(t, []byte("{not json"))
	frame := tc.waitFor(t, ws.MsgActionError)
	var report ws.ActionErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &report))
	assert.Equal(t, "malformed message", report.Message)

	// The connection survives and still answers a resync request.
	tc.send(t, ws.MsgJoinGameRoom, nil)
	require.Eventually(t, func() bool {
		return tc.countOf(ws.MsgGameStateUpdate) >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSocketUnknownMessageType(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	tc := dialSeat(t, baseURL, snap.Session.ID, snap.Players[0].ID)
	tc.waitFor(t, ws.MsgGameStateUpdate)

	tc.send(t, "shuffle_deck", nil)

	frame := tc.waitFor(t, ws.MsgActionError)
	var report ws.ActionErrorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &report))
	assert.Equal(t, "shuffle_deck", report.Action)
	assert.Equal(t, "unknown message type", report.Message)
}

func TestSocketResyncOnJoinMessage(t *testing.T) {
	svc, baseURL := newGatewayServer(t)
	snap := seatUpSession(t, svc)

	tc := dialSeat(t, baseURL, snap.Session.ID, snap.Players[0].ID)
	tc.waitFor(t, ws.MsgGameStateUpdate)

	tc.send(t, ws.MsgJoinGameRoom, nil)

	require.Eventually(t, func() bool {
		return tc.countOf(ws.MsgGameStateUpdate) >= 2
	}, 3*time.Second, 10*time.Millisecond)
}
