// Package ports declares the persistence boundary of the game server:
// the records stored for a session and the store interface the
// application layer drives. Implementations live in subpackages.
package ports

import (
	"context"
	"errors"

	"ohhell/internal/domain"
)

// ErrNotFound is returned by lookup methods when no row matches.
// Implementations translate their driver's not-found error to this one.
var ErrNotFound = errors.New("record not found")

// SessionStore persists game sessions and their child records.
//
// Tx runs fn against a store view bound to one database transaction;
// every state transition of a session runs inside a single Tx call, and
// SessionByIDForUpdate at the top of fn locks the session row so
// concurrent transitions on the same session serialize.
type SessionStore interface {
	// Tx executes fn in a transaction. If fn returns an error the
	// transaction rolls back and the error is returned unchanged.
	Tx(ctx context.Context, fn func(tx SessionStore) error) error

	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, s *GameSession) error
	// SessionByID loads a session without locking.
	SessionByID(ctx context.Context, id string) (*GameSession, error)
	// SessionByIDForUpdate loads a session with a row lock. Only
	// meaningful inside Tx.
	SessionByIDForUpdate(ctx context.Context, id string) (*GameSession, error)
	// SessionByJoinCode loads a session by its join code.
	SessionByJoinCode(ctx context.Context, code string) (*GameSession, error)
	// SessionsByStatus lists sessions in a given status, oldest first,
	// with their seats attached in player order.
	SessionsByStatus(ctx context.Context, status SessionStatus) ([]GameSession, error)
	// SaveSession writes back a modified session row.
	SaveSession(ctx context.Context, s *GameSession) error

	// CreateGamePlayer inserts a seat row.
	CreateGamePlayer(ctx context.Context, p *GamePlayer) error
	// GamePlayerByID loads one seat.
	GamePlayerByID(ctx context.Context, id string) (*GamePlayer, error)
	// GamePlayersBySession lists a session's seats ordered by PlayerOrder.
	GamePlayersBySession(ctx context.Context, sessionID string) ([]GamePlayer, error)
	// SaveGamePlayer writes back a modified seat row.
	SaveGamePlayer(ctx context.Context, p *GamePlayer) error

	// CreateBid inserts a bid row.
	CreateBid(ctx context.Context, b *Bid) error
	// BidBySeatAndRound loads one seat's bid for one round.
	BidBySeatAndRound(ctx context.Context, sessionID, gamePlayerID string, round int) (*Bid, error)
	// BidsBySessionAndRound lists all bids recorded for one round.
	BidsBySessionAndRound(ctx context.Context, sessionID string, round int) ([]Bid, error)

	// CreateHandEntries inserts the dealt cards for a round in one batch.
	CreateHandEntries(ctx context.Context, entries []HandEntry) error
	// UnplayedHand lists a seat's unplayed cards for a round.
	UnplayedHand(ctx context.Context, sessionID, gamePlayerID string, round int) ([]HandEntry, error)
	// HandEntry loads the row for one specific dealt card.
	HandEntry(ctx context.Context, sessionID, gamePlayerID string, round int, card domain.Card) (*HandEntry, error)
	// SaveHandEntry writes back a modified hand entry.
	SaveHandEntry(ctx context.Context, e *HandEntry) error
	// PurgeHandEntries deletes all hand entries of a round.
	PurgeHandEntries(ctx context.Context, sessionID string, round int) error

	// CreateTrick inserts a trick row.
	CreateTrick(ctx context.Context, t *Trick) error
	// TrickByNumber loads one trick of a round.
	TrickByNumber(ctx context.Context, sessionID string, round, trickNumber int) (*Trick, error)
	// SaveTrick writes back a modified trick row.
	SaveTrick(ctx context.Context, t *Trick) error
	// CreateTrickCard inserts one play into a trick.
	CreateTrickCard(ctx context.Context, c *TrickCard) error
	// TrickCards lists a trick's plays ordered by PlaySequence.
	TrickCards(ctx context.Context, trickID string) ([]TrickCard, error)

	// CreateScoreChange inserts one seat's scoring record for a round.
	CreateScoreChange(ctx context.Context, sc *RoundScoreChange) error
	// ScoreChangesByRound lists a round's scoring records.
	ScoreChangesByRound(ctx context.Context, sessionID string, round int) ([]RoundScoreChange, error)
	// ScoreChangesBySeat lists one seat's scoring records across rounds.
	ScoreChangesBySeat(ctx context.Context, sessionID, gamePlayerID string) ([]RoundScoreChange, error)
}
