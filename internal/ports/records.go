package ports

import (
	"time"

	"ohhell/internal/domain"
)

// SessionStatus is the state-machine phase of a game session.
type SessionStatus string

const (
	// StatusPending is the initial phase: created, waiting for 4 seats.
	StatusPending SessionStatus = "pending"
	// StatusBidding collects one bid per seat for the current round.
	StatusBidding SessionStatus = "bidding"
	// StatusActivePlay runs the current round's tricks.
	StatusActivePlay SessionStatus = "active_play"
	// StatusRoundSummary shows scores between rounds until acknowledged
	// or timed out.
	StatusRoundSummary SessionStatus = "round_summary"
	// StatusFinished is terminal: all rounds played, winner recorded.
	StatusFinished SessionStatus = "finished"
	// StatusArchived is the terminal administrative state, reachable from
	// any other.
	StatusArchived SessionStatus = "archived"
)

// Terminal reports whether no further transitions may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusArchived
}

// GameSession is the aggregate root row for one game instance. Child rows
// cascade on delete; nothing is shared across sessions.
type GameSession struct {
	ID                        string        `gorm:"primaryKey;size:36"`
	JoinCode                  string        `gorm:"size:12;uniqueIndex;not null"`
	Status                    SessionStatus `gorm:"size:32;index;not null"`
	CurrentRound              *int
	TrumpSuit                 *domain.Suit `gorm:"size:16"`
	CurrentDealerID           *string      `gorm:"size:36"`
	CurrentTurnGamePlayerID   *string      `gorm:"size:36"`
	CurrentTrickNumberInRound int          `gorm:"not null;default:1"`
	CurrentTrickLeadSuit      *domain.Suit `gorm:"size:16"`
	WinnerGamePlayerID        *string      `gorm:"size:36"`
	CreatedAt                 time.Time    `gorm:"not null"`
	UpdatedAt                 time.Time    `gorm:"not null"`

	Players      []GamePlayer       `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Bids         []Bid              `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	HandEntries  []HandEntry        `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Tricks       []Trick            `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	ScoreChanges []RoundScoreChange `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// GamePlayer is one seat in one session. Seat order is fixed for the
// session's lifetime and defines turn rotation and dealing order.
type GamePlayer struct {
	ID                      string    `gorm:"primaryKey;size:36"`
	SessionID               string    `gorm:"size:36;index;not null;uniqueIndex:idx_players_session_order;uniqueIndex:idx_players_session_user"`
	UserID                  string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_user"`
	DisplayName             string    `gorm:"size:64;not null"`
	PlayerOrder             int       `gorm:"not null;uniqueIndex:idx_players_session_order"`
	CurrentScore            int       `gorm:"not null;default:0"`
	CurrentRoundTricksTaken int       `gorm:"not null;default:0"`
	CreatedAt               time.Time `gorm:"not null"`
	UpdatedAt               time.Time `gorm:"not null"`
}

// Bid is a seat's prediction for one round. Immutable once recorded.
type Bid struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionID    string    `gorm:"size:36;index;not null;uniqueIndex:idx_bids_session_seat_round"`
	GamePlayerID string    `gorm:"size:36;not null;uniqueIndex:idx_bids_session_seat_round"`
	RoundNumber  int       `gorm:"not null;uniqueIndex:idx_bids_session_seat_round"`
	Amount       int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// HandEntry is one dealt card for one seat in one round. A card is dealt
// once per round and flips unplayed to played exactly once; the round's
// entries are purged before the next deal.
type HandEntry struct {
	ID           string      `gorm:"primaryKey;size:36"`
	SessionID    string      `gorm:"size:36;index;not null;uniqueIndex:idx_hand_entries_card"`
	GamePlayerID string      `gorm:"size:36;index;not null;uniqueIndex:idx_hand_entries_card"`
	RoundNumber  int         `gorm:"not null;uniqueIndex:idx_hand_entries_card"`
	Suit         domain.Suit `gorm:"size:16;not null;uniqueIndex:idx_hand_entries_card"`
	Rank         domain.Rank `gorm:"size:8;not null;uniqueIndex:idx_hand_entries_card"`
	IsPlayed     bool        `gorm:"not null;default:false"`
	CreatedAt    time.Time   `gorm:"not null"`
	UpdatedAt    time.Time   `gorm:"not null"`
}

// Card returns the domain card this entry was dealt as.
func (h HandEntry) Card() domain.Card {
	return domain.Card{Suit: h.Suit, Rank: h.Rank}
}

// Trick is one trick of one round. The lead suit is fixed by the first
// card; the winner is set once all 4 cards are in.
type Trick struct {
	ID                  string      `gorm:"primaryKey;size:36"`
	SessionID           string      `gorm:"size:36;index;not null;uniqueIndex:idx_tricks_session_round_number"`
	RoundNumber         int         `gorm:"not null;uniqueIndex:idx_tricks_session_round_number"`
	TrickNumberInRound  int         `gorm:"not null;uniqueIndex:idx_tricks_session_round_number"`
	LeadSuit            domain.Suit `gorm:"size:16;not null"`
	WinningGamePlayerID *string     `gorm:"size:36"`
	CreatedAt           time.Time   `gorm:"not null"`
	UpdatedAt           time.Time   `gorm:"not null"`

	Cards []TrickCard `gorm:"foreignKey:TrickID;constraint:OnDelete:CASCADE"`
}

// TrickCard is one play within a trick: which seat, which card, in which
// sequence slot (0-3, strictly increasing, one per seat).
type TrickCard struct {
	ID           string      `gorm:"primaryKey;size:36"`
	TrickID      string      `gorm:"size:36;index;not null;uniqueIndex:idx_trick_cards_seat;uniqueIndex:idx_trick_cards_sequence"`
	GamePlayerID string      `gorm:"size:36;not null;uniqueIndex:idx_trick_cards_seat"`
	PlaySequence int         `gorm:"not null;uniqueIndex:idx_trick_cards_sequence"`
	Suit         domain.Suit `gorm:"size:16;not null"`
	Rank         domain.Rank `gorm:"size:8;not null"`
	CreatedAt    time.Time   `gorm:"not null"`
}

// Card returns the domain card that was played.
func (t TrickCard) Card() domain.Card {
	return domain.Card{Suit: t.Suit, Rank: t.Rank}
}

// RoundScoreChange is the append-only per-round scoring record for one
// seat: the delta applied to the cumulative score and the tricks actually
// taken that round.
type RoundScoreChange struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionID    string    `gorm:"size:36;index;not null;uniqueIndex:idx_score_changes_seat_round"`
	GamePlayerID string    `gorm:"size:36;not null;uniqueIndex:idx_score_changes_seat_round"`
	RoundNumber  int       `gorm:"not null;uniqueIndex:idx_score_changes_seat_round"`
	ScoreChange  int       `gorm:"not null"`
	TricksTaken  int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
