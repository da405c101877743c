package ws

import (
	"encoding/json"

	"ohhell/internal/domain"
)

// Client → Server message types.
const (
	MsgJoinGameRoom  = "join_game_room"
	MsgSubmitBid     = "submit_bid"
	MsgPlayCard      = "play_card"
	MsgProceedToNext = "proceed_to_next_round"
)

// Server → Client message types. State updates and the action acks
// reuse the app event kinds verbatim.
const (
	MsgGameStateUpdate = "game_state_update"
	MsgActionError     = "action_error"
	MsgBidSuccess      = "bid_success"
	MsgPlayCardSuccess = "play_card_success"
)

// ClientMessage is the envelope for every client→server frame.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the envelope for every server→client frame.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// SubmitBidPayload carries a bid action. GamePlayerID must match the
// seat the socket is bound to.
type SubmitBidPayload struct {
	GamePlayerID string `json:"game_player_id"`
	RoundNumber  int    `json:"round_number"`
	Bid          int    `json:"bid"`
}

// PlayCardPayload carries a card play action.
type PlayCardPayload struct {
	GamePlayerID string      `json:"game_player_id"`
	Card         domain.Card `json:"card"`
}

// ActionErrorPayload reports a rejected action to its sender only.
type ActionErrorPayload struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}
