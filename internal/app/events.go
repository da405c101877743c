package app

import "ohhell/internal/domain"

// EventKind identifies emitted session events for gateway dispatch. The
// values double as the wire message types pushed to clients.
type EventKind string

const (
	EventStateChanged EventKind = "game_state_update"
	EventBidAccepted  EventKind = "bid_success"
	EventPlayAccepted EventKind = "play_card_success"
)

// Event is a session event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // game player IDs; empty means broadcast
}

// EventSink receives events produced outside a request, such as the
// round-summary timer advancing a session on its own.
type EventSink interface {
	Dispatch(sessionID string, events []Event)
}

// BidAcceptedPayload acknowledges a recorded bid to the bidder.
type BidAcceptedPayload struct {
	GamePlayerID string `json:"game_player_id"`
	RoundNumber  int    `json:"round_number"`
	Amount       int    `json:"amount"`
}

// PlayAcceptedPayload acknowledges a recorded card play to the player.
type PlayAcceptedPayload struct {
	GamePlayerID string      `json:"game_player_id"`
	Card         domain.Card `json:"card"`
}
