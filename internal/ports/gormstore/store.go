// Package gormstore implements ports.SessionStore on GORM. Production
// runs it against Postgres; tests run it against in-memory SQLite.
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ohhell/internal/domain"
	"ohhell/internal/ports"
)

// Store wraps a *gorm.DB. Inside Tx the wrapped handle is the
// transaction, so nested calls hit the same transaction.
type Store struct {
	db *gorm.DB
}

var _ ports.SessionStore = (*Store)(nil)

// New returns a Store over an opened database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx runs fn inside one database transaction.
func (s *Store) Tx(ctx context.Context, fn func(tx ports.SessionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// notFound maps GORM's record-not-found to the port sentinel so callers
// can errors.Is against ports.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	return err
}

func (s *Store) CreateSession(ctx context.Context, sess *ports.GameSession) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *Store) SessionByID(ctx context.Context, id string) (*ports.GameSession, error) {
	var sess ports.GameSession
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) SessionByIDForUpdate(ctx context.Context, id string) (*ports.GameSession, error) {
	var sess ports.GameSession
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&sess).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) SessionByJoinCode(ctx context.Context, code string) (*ports.GameSession, error) {
	var sess ports.GameSession
	if err := s.db.WithContext(ctx).Where("join_code = ?", code).First(&sess).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) SessionsByStatus(ctx context.Context, status ports.SessionStatus) ([]ports.GameSession, error) {
	var sessions []ports.GameSession
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("player_order asc")
		}).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *ports.GameSession) error {
	// Child slices are managed through their own Create calls; saving
	// them here would re-upsert every loaded association.
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(sess).Error
}

func (s *Store) CreateGamePlayer(ctx context.Context, p *ports.GamePlayer) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) GamePlayerByID(ctx context.Context, id string) (*ports.GamePlayer, error) {
	var p ports.GamePlayer
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) GamePlayersBySession(ctx context.Context, sessionID string) ([]ports.GamePlayer, error) {
	var players []ports.GamePlayer
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("player_order asc").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Store) SaveGamePlayer(ctx context.Context, p *ports.GamePlayer) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *Store) CreateBid(ctx context.Context, b *ports.Bid) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) BidBySeatAndRound(ctx context.Context, sessionID, gamePlayerID string, round int) (*ports.Bid, error) {
	var b ports.Bid
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND game_player_id = ? AND round_number = ?", sessionID, gamePlayerID, round).
		First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) BidsBySessionAndRound(ctx context.Context, sessionID string, round int) ([]ports.Bid, error) {
	var bids []ports.Bid
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND round_number = ?", sessionID, round).
		Order("created_at asc").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

func (s *Store) CreateHandEntries(ctx context.Context, entries []ports.HandEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&entries).Error
}

func (s *Store) UnplayedHand(ctx context.Context, sessionID, gamePlayerID string, round int) ([]ports.HandEntry, error) {
	var entries []ports.HandEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND game_player_id = ? AND round_number = ? AND is_played = ?",
			sessionID, gamePlayerID, round, false).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) HandEntry(ctx context.Context, sessionID, gamePlayerID string, round int, card domain.Card) (*ports.HandEntry, error) {
	var e ports.HandEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND game_player_id = ? AND round_number = ? AND suit = ? AND rank = ?",
			sessionID, gamePlayerID, round, card.Suit, card.Rank).
		First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *Store) SaveHandEntry(ctx context.Context, e *ports.HandEntry) error {
	return s.db.WithContext(ctx).Save(e).Error
}

func (s *Store) PurgeHandEntries(ctx context.Context, sessionID string, round int) error {
	return s.db.WithContext(ctx).
		Where("session_id = ? AND round_number = ?", sessionID, round).
		Delete(&ports.HandEntry{}).Error
}

func (s *Store) CreateTrick(ctx context.Context, t *ports.Trick) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) TrickByNumber(ctx context.Context, sessionID string, round, trickNumber int) (*ports.Trick, error) {
	var t ports.Trick
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND round_number = ? AND trick_number_in_round = ?", sessionID, round, trickNumber).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) SaveTrick(ctx context.Context, t *ports.Trick) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

func (s *Store) CreateTrickCard(ctx context.Context, c *ports.TrickCard) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) TrickCards(ctx context.Context, trickID string) ([]ports.TrickCard, error) {
	var cards []ports.TrickCard
	err := s.db.WithContext(ctx).
		Where("trick_id = ?", trickID).
		Order("play_sequence asc").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Store) CreateScoreChange(ctx context.Context, sc *ports.RoundScoreChange) error {
	return s.db.WithContext(ctx).Create(sc).Error
}

func (s *Store) ScoreChangesByRound(ctx context.Context, sessionID string, round int) ([]ports.RoundScoreChange, error) {
	var changes []ports.RoundScoreChange
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND round_number = ?", sessionID, round).
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *Store) ScoreChangesBySeat(ctx context.Context, sessionID, gamePlayerID string) ([]ports.RoundScoreChange, error) {
	var changes []ports.RoundScoreChange
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND game_player_id = ?", sessionID, gamePlayerID).
		Order("round_number asc").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}
