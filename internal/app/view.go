package app

import (
	"sort"

	"ohhell/internal/domain"
	"ohhell/internal/ports"
)

// Snapshot is everything loaded from one session needed to render any
// seat's view. It is assembled inside the same transaction that mutated
// the session, so it is internally consistent. Hands are keyed by game
// player ID and are only revealed per seat by BuildSessionView.
type Snapshot struct {
	Session ports.GameSession
	Players []ports.GamePlayer
	Bids    []ports.Bid
	Hands   map[string][]domain.Card
	Trick   []TrickPlayView
	Summary []RoundSummaryRow
}

// SessionView is the wire shape of a session as seen by one seat (or by
// a spectator when the viewer holds no seat). Hands other than the
// viewer's never appear; opponents expose card counts only.
type SessionView struct {
	SessionID          string              `json:"session_id"`
	JoinCode           string              `json:"join_code"`
	Status             ports.SessionStatus `json:"status"`
	CurrentRound       *int                `json:"current_round,omitempty"`
	TotalRounds        int                 `json:"total_rounds"`
	HandSize           int                 `json:"hand_size,omitempty"`
	TrumpSuit          *domain.Suit        `json:"trump_suit,omitempty"`
	DealerGamePlayerID *string             `json:"dealer_game_player_id,omitempty"`
	TurnGamePlayerID   *string             `json:"turn_game_player_id,omitempty"`
	TrickNumber        int                 `json:"trick_number"`
	TrickLeadSuit      *domain.Suit        `json:"trick_lead_suit,omitempty"`
	CurrentTrick       []TrickPlayView     `json:"current_trick,omitempty"`
	Seats              []SeatView          `json:"seats"`
	RoundSummary       []RoundSummaryRow   `json:"round_summary,omitempty"`
	WinnerGamePlayerID *string             `json:"winner_game_player_id,omitempty"`
	YourSeatID         string              `json:"your_seat_id,omitempty"`
	YourHand           []domain.Card       `json:"your_hand,omitempty"`
}

// SeatView is the public face of one seat.
type SeatView struct {
	GamePlayerID   string `json:"game_player_id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	PlayerOrder    int    `json:"player_order"`
	Score          int    `json:"score"`
	TricksTaken    int    `json:"tricks_taken"`
	Bid            *int   `json:"bid,omitempty"`
	CardsRemaining int    `json:"cards_remaining"`
}

// TrickPlayView is one card on the table in the current trick.
type TrickPlayView struct {
	GamePlayerID string      `json:"game_player_id"`
	PlayerOrder  int         `json:"player_order"`
	Card         domain.Card `json:"card"`
	PlaySequence int         `json:"play_sequence"`
}

// RoundSummaryRow is one seat's line in the end-of-round summary.
type RoundSummaryRow struct {
	GamePlayerID string `json:"game_player_id"`
	PlayerOrder  int    `json:"player_order"`
	DisplayName  string `json:"display_name"`
	RoundNumber  int    `json:"round_number"`
	Bid          int    `json:"bid"`
	TricksTaken  int    `json:"tricks_taken"`
	ScoreChange  int    `json:"score_change"`
	TotalScore   int    `json:"total_score"`
}

// BuildSessionView projects a snapshot into the view for one viewer.
// viewerID is the viewer's game player ID; an unknown or empty ID yields
// a spectator view with no hand.
func BuildSessionView(snap *Snapshot, viewerID string) SessionView {
	sess := snap.Session

	view := SessionView{
		SessionID:          sess.ID,
		JoinCode:           sess.JoinCode,
		Status:             sess.Status,
		CurrentRound:       sess.CurrentRound,
		TotalRounds:        domain.TotalRounds,
		TrumpSuit:          sess.TrumpSuit,
		DealerGamePlayerID: sess.CurrentDealerID,
		TurnGamePlayerID:   sess.CurrentTurnGamePlayerID,
		TrickNumber:        sess.CurrentTrickNumberInRound,
		TrickLeadSuit:      sess.CurrentTrickLeadSuit,
		CurrentTrick:       snap.Trick,
		RoundSummary:       snap.Summary,
		WinnerGamePlayerID: sess.WinnerGamePlayerID,
	}
	if sess.CurrentRound != nil {
		view.HandSize = domain.HandSizeForRound(*sess.CurrentRound)
	}

	bidBySeat := make(map[string]int, len(snap.Bids))
	for _, b := range snap.Bids {
		bidBySeat[b.GamePlayerID] = b.Amount
	}

	view.Seats = make([]SeatView, 0, len(snap.Players))
	for _, p := range snap.Players {
		seat := SeatView{
			GamePlayerID:   p.ID,
			UserID:         p.UserID,
			DisplayName:    p.DisplayName,
			PlayerOrder:    p.PlayerOrder,
			Score:          p.CurrentScore,
			TricksTaken:    p.CurrentRoundTricksTaken,
			CardsRemaining: len(snap.Hands[p.ID]),
		}
		if amount, ok := bidBySeat[p.ID]; ok {
			seat.Bid = &amount
		}
		if p.ID == viewerID {
			view.YourSeatID = p.ID
			view.YourHand = snap.Hands[p.ID]
		}
		view.Seats = append(view.Seats, seat)
	}
	sort.Slice(view.Seats, func(i, j int) bool {
		return view.Seats[i].PlayerOrder < view.Seats[j].PlayerOrder
	})

	return view
}
