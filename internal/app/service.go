// Package app contains the session use-cases: seating players, running
// the bid/play/summary state machine, scoring, and producing the events
// the gateway fans out. Every state transition runs in one store
// transaction under a session row lock.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"ohhell/internal/domain"
	"ohhell/internal/ports"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6

	defaultSummaryDelay = 10 * time.Second
)

// Service contains the game-session use-cases operating on the store.
type Service struct {
	store ports.SessionStore
	log   zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	sinkMu sync.RWMutex
	sink   EventSink

	summaryDelay time.Duration
	timers       *summaryTimers
}

// NewService constructs a Service with the provided rng or a time-seeded
// default. summaryDelay is how long a round summary stays up before the
// session advances on its own; zero or negative selects the default.
func NewService(store ports.SessionStore, log zerolog.Logger, rng *rand.Rand, summaryDelay time.Duration) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if summaryDelay <= 0 {
		summaryDelay = defaultSummaryDelay
	}
	return &Service{
		store:        store,
		log:          log,
		rng:          rng,
		summaryDelay: summaryDelay,
		timers:       newSummaryTimers(),
	}
}

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotJoinable = errors.New("session is not accepting players")
	ErrSessionFull        = errors.New("session already has four seats")
	ErrAlreadyJoined      = errors.New("user already holds a seat in this session")
	ErrSeatNotFound       = errors.New("seat not found in this session")
	ErrWrongPhase         = errors.New("action not allowed in current session status")
	ErrNotYourTurn        = errors.New("not this seat's turn")
	ErrRoundMismatch      = errors.New("action targets a different round")
	ErrBidOutOfRange      = errors.New("bid must be between zero and the hand size")
	ErrDuplicateBid       = errors.New("seat already bid this round")
	ErrCardNotInHand      = errors.New("card is not in the seat's unplayed hand")
	ErrIllegalPlay        = errors.New("card play violates follow-suit rules")
)

// SetSink wires the sink that receives timer-driven events. Called once
// during startup, before any session can reach a round summary.
func (s *Service) SetSink(sink EventSink) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

// Close stops every pending summary timer.
func (s *Service) Close() {
	s.timers.stopAll()
}

// CreateSession opens a new pending session with the creator seated at
// order 0 and returns the creator's seat alongside the snapshot.
func (s *Service) CreateSession(ctx context.Context, userID, displayName string) (*Snapshot, *ports.GamePlayer, error) {
	code, err := gonanoid.Generate(joinCodeAlphabet, joinCodeLength)
	if err != nil {
		return nil, nil, fmt.Errorf("generate join code: %w", err)
	}

	sess := &ports.GameSession{
		ID:                        uuid.NewString(),
		JoinCode:                  code,
		Status:                    ports.StatusPending,
		CurrentTrickNumberInRound: 1,
	}
	seat := &ports.GamePlayer{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		UserID:      userID,
		DisplayName: displayName,
		PlayerOrder: 0,
	}

	var snap *Snapshot
	err = s.store.Tx(ctx, func(tx ports.SessionStore) error {
		if err := tx.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := tx.CreateGamePlayer(ctx, seat); err != nil {
			return fmt.Errorf("seat creator: %w", err)
		}
		var err error
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Str("join_code", sess.JoinCode).
		Str("user_id", userID).
		Msg("session created")
	return snap, seat, nil
}

// JoinSession seats a user in a pending session by join code. The
// fourth join starts round 1 with a random dealer and trump suit.
func (s *Service) JoinSession(ctx context.Context, joinCode, userID, displayName string) (*Snapshot, *ports.GamePlayer, []Event, error) {
	var (
		snap    *Snapshot
		seat    *ports.GamePlayer
		started bool
	)
	err := s.store.Tx(ctx, func(tx ports.SessionStore) error {
		found, err := tx.SessionByJoinCode(ctx, joinCode)
		if errors.Is(err, ports.ErrNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup join code: %w", err)
		}

		sess, err := lockSession(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		if sess.Status != ports.StatusPending {
			return ErrSessionNotJoinable
		}

		players, err := tx.GamePlayersBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		for _, p := range players {
			if p.UserID == userID {
				return ErrAlreadyJoined
			}
		}
		if len(players) >= domain.NumSeats {
			return ErrSessionFull
		}

		seat = &ports.GamePlayer{
			ID:          uuid.NewString(),
			SessionID:   sess.ID,
			UserID:      userID,
			DisplayName: displayName,
			PlayerOrder: len(players),
		}
		if err := tx.CreateGamePlayer(ctx, seat); err != nil {
			return fmt.Errorf("seat player: %w", err)
		}
		players = append(players, *seat)

		if len(players) == domain.NumSeats {
			dealer := players[s.intn(len(players))]
			if err := s.startRound(ctx, tx, sess, players, 1, dealer.ID); err != nil {
				return err
			}
			started = true
		}

		if err := tx.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, nil, err
	}

	s.log.Info().
		Str("session_id", seat.SessionID).
		Str("game_player_id", seat.ID).
		Int("player_order", seat.PlayerOrder).
		Bool("started", started).
		Msg("player joined")

	// Seats fill over plain HTTP; the room only needs a push once the
	// fourth join flips the session into bidding.
	var events []Event
	if started {
		events = append(events, Event{Kind: EventStateChanged, Payload: snap})
	}
	return snap, seat, events, nil
}

// SubmitBid records a seat's bid for the round. The fourth bid moves
// the session to active play with the seat left of the dealer leading.
func (s *Service) SubmitBid(ctx context.Context, sessionID, gamePlayerID string, roundNumber, amount int) (*Snapshot, []Event, error) {
	var (
		snap       *Snapshot
		ohHell     bool
		bidsClosed bool
	)
	err := s.store.Tx(ctx, func(tx ports.SessionStore) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != ports.StatusBidding {
			return ErrWrongPhase
		}

		players, err := tx.GamePlayersBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		seat := seatByID(players, gamePlayerID)
		if seat == nil {
			return ErrSeatNotFound
		}
		if sess.CurrentTurnGamePlayerID == nil || *sess.CurrentTurnGamePlayerID != seat.ID {
			return ErrNotYourTurn
		}
		if sess.CurrentRound == nil || *sess.CurrentRound != roundNumber {
			return ErrRoundMismatch
		}

		handSize := domain.HandSizeForRound(roundNumber)
		if !domain.IsValidBid(amount, handSize) {
			return ErrBidOutOfRange
		}

		if _, err := tx.BidBySeatAndRound(ctx, sess.ID, seat.ID, roundNumber); err == nil {
			return ErrDuplicateBid
		} else if !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("check existing bid: %w", err)
		}

		bid := &ports.Bid{
			ID:           uuid.NewString(),
			SessionID:    sess.ID,
			GamePlayerID: seat.ID,
			RoundNumber:  roundNumber,
			Amount:       amount,
		}
		if err := tx.CreateBid(ctx, bid); err != nil {
			return fmt.Errorf("record bid: %w", err)
		}

		bids, err := tx.BidsBySessionAndRound(ctx, sess.ID, roundNumber)
		if err != nil {
			return fmt.Errorf("load bids: %w", err)
		}

		if len(bids) == len(players) {
			total := 0
			for _, b := range bids {
				total += b.Amount
			}
			ohHell = domain.IsOhHellBid(total, handSize)

			if sess.CurrentDealerID == nil {
				return fmt.Errorf("session %s is bidding without a dealer", sess.ID)
			}
			// The first card of the round comes from the seat left of the
			// dealer, not from whoever happened to bid last.
			first, err := seatAfter(players, *sess.CurrentDealerID)
			if err != nil {
				return err
			}
			sess.Status = ports.StatusActivePlay
			sess.CurrentTurnGamePlayerID = &first.ID
			bidsClosed = true
		} else {
			next, err := seatAfter(players, seat.ID)
			if err != nil {
				return err
			}
			sess.CurrentTurnGamePlayerID = &next.ID
		}

		if err := tx.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Debug().
		Str("session_id", sessionID).
		Str("game_player_id", gamePlayerID).
		Int("round", roundNumber).
		Int("amount", amount).
		Msg("bid accepted")
	if ohHell {
		s.log.Warn().
			Str("session_id", sessionID).
			Int("round", roundNumber).
			Msg("oh hell round: total bids equal the hand size")
	}
	if bidsClosed {
		s.log.Info().
			Str("session_id", sessionID).
			Int("round", roundNumber).
			Msg("bidding closed, play begins")
	}

	events := []Event{
		{
			Kind:       EventBidAccepted,
			Payload:    BidAcceptedPayload{GamePlayerID: gamePlayerID, RoundNumber: roundNumber, Amount: amount},
			Recipients: []string{gamePlayerID},
		},
		{Kind: EventStateChanged, Payload: snap},
	}
	return snap, events, nil
}

// PlayCard records a legal card play. The fourth card resolves the
// trick; the last trick of the round scores every seat and opens the
// round summary with its timeout armed.
func (s *Service) PlayCard(ctx context.Context, sessionID, gamePlayerID string, card domain.Card) (*Snapshot, []Event, error) {
	if !domain.ValidSuit(card.Suit) || !domain.ValidRank(card.Rank) {
		return nil, nil, ErrCardNotInHand
	}

	var (
		snap       *Snapshot
		roundEnded bool
		round      int
	)
	err := s.store.Tx(ctx, func(tx ports.SessionStore) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != ports.StatusActivePlay {
			return ErrWrongPhase
		}

		players, err := tx.GamePlayersBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		seat := seatByID(players, gamePlayerID)
		if seat == nil {
			return ErrSeatNotFound
		}
		if sess.CurrentTurnGamePlayerID == nil || *sess.CurrentTurnGamePlayerID != seat.ID {
			return ErrNotYourTurn
		}
		if sess.CurrentRound == nil || sess.TrumpSuit == nil {
			return fmt.Errorf("session %s is in active play without round state", sess.ID)
		}
		round = *sess.CurrentRound
		trump := *sess.TrumpSuit

		entry, err := tx.HandEntry(ctx, sess.ID, seat.ID, round, card)
		if errors.Is(err, ports.ErrNotFound) {
			return ErrCardNotInHand
		}
		if err != nil {
			return fmt.Errorf("load hand entry: %w", err)
		}
		if entry.IsPlayed {
			return ErrCardNotInHand
		}

		handEntries, err := tx.UnplayedHand(ctx, sess.ID, seat.ID, round)
		if err != nil {
			return fmt.Errorf("load hand: %w", err)
		}
		hand := make([]domain.Card, 0, len(handEntries))
		for _, e := range handEntries {
			hand = append(hand, e.Card())
		}
		if !domain.IsValidPlay(hand, card, sess.CurrentTrickLeadSuit, trump) {
			return ErrIllegalPlay
		}

		entry.IsPlayed = true
		if err := tx.SaveHandEntry(ctx, entry); err != nil {
			return fmt.Errorf("mark card played: %w", err)
		}

		var trick *ports.Trick
		if sess.CurrentTrickLeadSuit == nil {
			trick = &ports.Trick{
				ID:                 uuid.NewString(),
				SessionID:          sess.ID,
				RoundNumber:        round,
				TrickNumberInRound: sess.CurrentTrickNumberInRound,
				LeadSuit:           card.Suit,
			}
			if err := tx.CreateTrick(ctx, trick); err != nil {
				return fmt.Errorf("open trick: %w", err)
			}
			lead := card.Suit
			sess.CurrentTrickLeadSuit = &lead
		} else {
			trick, err = tx.TrickByNumber(ctx, sess.ID, round, sess.CurrentTrickNumberInRound)
			if err != nil {
				return fmt.Errorf("load trick: %w", err)
			}
		}

		prior, err := tx.TrickCards(ctx, trick.ID)
		if err != nil {
			return fmt.Errorf("load trick cards: %w", err)
		}
		play := &ports.TrickCard{
			ID:           uuid.NewString(),
			TrickID:      trick.ID,
			GamePlayerID: seat.ID,
			PlaySequence: len(prior),
			Suit:         card.Suit,
			Rank:         card.Rank,
		}
		if err := tx.CreateTrickCard(ctx, play); err != nil {
			return fmt.Errorf("record play: %w", err)
		}

		if len(prior)+1 < domain.NumSeats {
			next, err := seatAfter(players, seat.ID)
			if err != nil {
				return err
			}
			sess.CurrentTurnGamePlayerID = &next.ID
		} else {
			all := append(prior, *play)
			orderOf := seatOrders(players)
			plays := make([]domain.TrickPlay, 0, len(all))
			for _, c := range all {
				plays = append(plays, domain.TrickPlay{Seat: orderOf[c.GamePlayerID], Card: c.Card()})
			}
			won := domain.DetermineTrickWinner(plays, trump)
			winner := seatByOrder(players, won.Seat)
			if winner == nil {
				return fmt.Errorf("no seat at order %d", won.Seat)
			}

			trick.WinningGamePlayerID = &winner.ID
			if err := tx.SaveTrick(ctx, trick); err != nil {
				return fmt.Errorf("record trick winner: %w", err)
			}
			winner.CurrentRoundTricksTaken++
			if err := tx.SaveGamePlayer(ctx, winner); err != nil {
				return fmt.Errorf("credit trick: %w", err)
			}

			sess.CurrentTrickLeadSuit = nil
			sess.CurrentTrickNumberInRound++

			if sess.CurrentTrickNumberInRound > domain.HandSizeForRound(round) {
				if err := s.scoreRound(ctx, tx, sess, players, round); err != nil {
					return err
				}
				roundEnded = true
			} else {
				sess.CurrentTurnGamePlayerID = &winner.ID
			}
		}

		if err := tx.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Debug().
		Str("session_id", sessionID).
		Str("game_player_id", gamePlayerID).
		Str("suit", string(card.Suit)).
		Str("rank", string(card.Rank)).
		Msg("card played")
	if roundEnded {
		s.timers.schedule(sessionID, s.summaryDelay, func() { s.summaryTimeout(sessionID) })
		s.log.Info().
			Str("session_id", sessionID).
			Int("round", round).
			Msg("round scored, summary timer armed")
	}

	events := []Event{
		{
			Kind:       EventPlayAccepted,
			Payload:    PlayAcceptedPayload{GamePlayerID: gamePlayerID, Card: card},
			Recipients: []string{gamePlayerID},
		},
		{Kind: EventStateChanged, Payload: snap},
	}
	return snap, events, nil
}

// AdvanceRound acknowledges the round summary: it starts the next round
// or, after the final round, finishes the session. Outside the summary
// phase it is a silent no-op returning no events, so the manual
// acknowledgement and the timeout can race harmlessly.
func (s *Service) AdvanceRound(ctx context.Context, sessionID string) (*Snapshot, []Event, error) {
	s.timers.cancel(sessionID)

	var (
		snap     *Snapshot
		advanced bool
	)
	err := s.store.Tx(ctx, func(tx ports.SessionStore) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != ports.StatusRoundSummary {
			return nil
		}
		if sess.CurrentRound == nil || sess.CurrentDealerID == nil {
			return fmt.Errorf("session %s is in round summary without round state", sess.ID)
		}
		round := *sess.CurrentRound

		players, err := tx.GamePlayersBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}

		if round >= domain.TotalRounds {
			winner := finalWinner(players)
			sess.Status = ports.StatusFinished
			sess.WinnerGamePlayerID = &winner.ID
			sess.CurrentTurnGamePlayerID = nil
			s.log.Info().
				Str("session_id", sess.ID).
				Str("winner_game_player_id", winner.ID).
				Int("score", winner.CurrentScore).
				Msg("session finished")
		} else {
			if err := tx.PurgeHandEntries(ctx, sess.ID, round); err != nil {
				return fmt.Errorf("purge hands: %w", err)
			}
			dealer, err := seatAfter(players, *sess.CurrentDealerID)
			if err != nil {
				return err
			}
			if err := s.startRound(ctx, tx, sess, players, round+1, dealer.ID); err != nil {
				return err
			}
		}

		if err := tx.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		advanced = true
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if !advanced {
		return nil, nil, nil
	}

	return snap, []Event{{Kind: EventStateChanged, Payload: snap}}, nil
}

// ArchiveSession moves a session to the terminal archived state from
// any phase and drops its pending timer. Archiving twice is a no-op.
func (s *Service) ArchiveSession(ctx context.Context, sessionID string) (*Snapshot, []Event, error) {
	s.timers.cancel(sessionID)

	var snap *Snapshot
	err := s.store.Tx(ctx, func(tx ports.SessionStore) error {
		sess, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != ports.StatusArchived {
			sess.Status = ports.StatusArchived
			sess.CurrentTurnGamePlayerID = nil
			if err := tx.SaveSession(ctx, sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}
		snap, err = s.buildSnapshot(ctx, tx, sess)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("session_id", sessionID).Msg("session archived")
	return snap, []Event{{Kind: EventStateChanged, Payload: snap}}, nil
}

// SessionSnapshot loads a consistent read-only snapshot for rendering.
func (s *Service) SessionSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s.buildSnapshot(ctx, s.store, sess)
}

// ListSessions lists sessions in one status, oldest first.
func (s *Service) ListSessions(ctx context.Context, status ports.SessionStatus) ([]ports.GameSession, error) {
	return s.store.SessionsByStatus(ctx, status)
}

// SeatInSession resolves a game player ID and checks it belongs to the
// session. The gateway uses it to authenticate socket attachments.
func (s *Service) SeatInSession(ctx context.Context, sessionID, gamePlayerID string) (*ports.GamePlayer, error) {
	p, err := s.store.GamePlayerByID(ctx, gamePlayerID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load seat: %w", err)
	}
	if p.SessionID != sessionID {
		return nil, ErrSeatNotFound
	}
	return p, nil
}

// summaryTimeout is the timer callback: advance the round and push the
// resulting events through the sink. A manual acknowledgement that beat
// the timer leaves nothing to do.
func (s *Service) summaryTimeout(sessionID string) {
	ctx := context.Background()
	_, events, err := s.AdvanceRound(ctx, sessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("summary timeout advance failed")
		return
	}
	if len(events) == 0 {
		return
	}
	s.log.Info().Str("session_id", sessionID).Msg("round summary timed out")

	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()
	if sink != nil {
		sink.Dispatch(sessionID, events)
	}
}

// startRound deals round and flips the session to bidding. Mutates sess
// in place; the caller saves it.
func (s *Service) startRound(ctx context.Context, tx ports.SessionStore, sess *ports.GameSession, players []ports.GamePlayer, round int, dealerID string) error {
	if err := s.deal(ctx, tx, sess.ID, players, round, dealerID); err != nil {
		return err
	}
	first, err := seatAfter(players, dealerID)
	if err != nil {
		return err
	}
	trump := s.randomTrump()

	sess.Status = ports.StatusBidding
	sess.CurrentRound = &round
	sess.TrumpSuit = &trump
	sess.CurrentDealerID = &dealerID
	sess.CurrentTurnGamePlayerID = &first.ID
	sess.CurrentTrickNumberInRound = 1
	sess.CurrentTrickLeadSuit = nil

	s.log.Info().
		Str("session_id", sess.ID).
		Int("round", round).
		Str("trump_suit", string(trump)).
		Msg("round started")
	return nil
}

// deal shuffles a fresh deck and writes hand entries for every seat,
// serving the seat left of the dealer first and the dealer last.
func (s *Service) deal(ctx context.Context, tx ports.SessionStore, sessionID string, players []ports.GamePlayer, round int, dealerID string) error {
	deck := s.shuffledDeck()
	handSize := domain.HandSizeForRound(round)

	dealerIdx := -1
	for i, p := range players {
		if p.ID == dealerID {
			dealerIdx = i
			break
		}
	}
	if dealerIdx < 0 {
		return fmt.Errorf("dealer %s is not seated", dealerID)
	}

	entries := make([]ports.HandEntry, 0, handSize*len(players))
	for i := 1; i <= len(players); i++ {
		p := players[(dealerIdx+i)%len(players)]
		cards := deck.DrawN(handSize)
		if len(cards) != handSize {
			return fmt.Errorf("deck exhausted dealing %d cards for round %d", handSize, round)
		}
		for _, c := range cards {
			entries = append(entries, ports.HandEntry{
				ID:           uuid.NewString(),
				SessionID:    sessionID,
				GamePlayerID: p.ID,
				RoundNumber:  round,
				Suit:         c.Suit,
				Rank:         c.Rank,
			})
		}
	}
	if err := tx.CreateHandEntries(ctx, entries); err != nil {
		return fmt.Errorf("deal hands: %w", err)
	}
	return nil
}

// scoreRound writes every seat's score change, folds it into the
// cumulative score, resets trick counters and opens the round summary.
func (s *Service) scoreRound(ctx context.Context, tx ports.SessionStore, sess *ports.GameSession, players []ports.GamePlayer, round int) error {
	for i := range players {
		p := &players[i]
		bid, err := tx.BidBySeatAndRound(ctx, sess.ID, p.ID, round)
		if err != nil {
			return fmt.Errorf("load bid for seat %d: %w", p.PlayerOrder, err)
		}
		change := domain.CalculateScore(bid.Amount, p.CurrentRoundTricksTaken)

		sc := &ports.RoundScoreChange{
			ID:           uuid.NewString(),
			SessionID:    sess.ID,
			GamePlayerID: p.ID,
			RoundNumber:  round,
			ScoreChange:  change,
			TricksTaken:  p.CurrentRoundTricksTaken,
		}
		if err := tx.CreateScoreChange(ctx, sc); err != nil {
			return fmt.Errorf("record score change: %w", err)
		}

		p.CurrentScore += change
		p.CurrentRoundTricksTaken = 0
		if err := tx.SaveGamePlayer(ctx, p); err != nil {
			return fmt.Errorf("apply score: %w", err)
		}
	}

	sess.Status = ports.StatusRoundSummary
	sess.CurrentTurnGamePlayerID = nil
	return nil
}

// buildSnapshot loads the full render state for a session using the
// same store view (and so the same transaction) as the caller.
func (s *Service) buildSnapshot(ctx context.Context, st ports.SessionStore, sess *ports.GameSession) (*Snapshot, error) {
	players, err := st.GamePlayersBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	snap := &Snapshot{
		Session: *sess,
		Players: players,
		Hands:   make(map[string][]domain.Card, len(players)),
	}
	if sess.CurrentRound == nil {
		return snap, nil
	}
	round := *sess.CurrentRound

	snap.Bids, err = st.BidsBySessionAndRound(ctx, sess.ID, round)
	if err != nil {
		return nil, fmt.Errorf("load bids: %w", err)
	}

	for _, p := range players {
		entries, err := st.UnplayedHand(ctx, sess.ID, p.ID, round)
		if err != nil {
			return nil, fmt.Errorf("load hand: %w", err)
		}
		hand := make([]domain.Card, 0, len(entries))
		for _, e := range entries {
			hand = append(hand, e.Card())
		}
		domain.SortHand(hand)
		snap.Hands[p.ID] = hand
	}

	if sess.CurrentTrickLeadSuit != nil {
		trick, err := st.TrickByNumber(ctx, sess.ID, round, sess.CurrentTrickNumberInRound)
		if err != nil {
			return nil, fmt.Errorf("load trick: %w", err)
		}
		cards, err := st.TrickCards(ctx, trick.ID)
		if err != nil {
			return nil, fmt.Errorf("load trick cards: %w", err)
		}
		orderOf := seatOrders(players)
		for _, c := range cards {
			snap.Trick = append(snap.Trick, TrickPlayView{
				GamePlayerID: c.GamePlayerID,
				PlayerOrder:  orderOf[c.GamePlayerID],
				Card:         c.Card(),
				PlaySequence: c.PlaySequence,
			})
		}
	}

	if sess.Status == ports.StatusRoundSummary || sess.Status == ports.StatusFinished {
		snap.Summary, err = summaryRows(ctx, st, sess.ID, round, players, snap.Bids)
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// summaryRows assembles the end-of-round table from the round's score
// changes, bids and cumulative totals, in seat order.
func summaryRows(ctx context.Context, st ports.SessionStore, sessionID string, round int, players []ports.GamePlayer, bids []ports.Bid) ([]RoundSummaryRow, error) {
	changes, err := st.ScoreChangesByRound(ctx, sessionID, round)
	if err != nil {
		return nil, fmt.Errorf("load score changes: %w", err)
	}
	changeBySeat := make(map[string]ports.RoundScoreChange, len(changes))
	for _, c := range changes {
		changeBySeat[c.GamePlayerID] = c
	}
	bidBySeat := make(map[string]int, len(bids))
	for _, b := range bids {
		bidBySeat[b.GamePlayerID] = b.Amount
	}

	rows := make([]RoundSummaryRow, 0, len(players))
	for _, p := range players {
		change, ok := changeBySeat[p.ID]
		if !ok {
			continue
		}
		rows = append(rows, RoundSummaryRow{
			GamePlayerID: p.ID,
			PlayerOrder:  p.PlayerOrder,
			DisplayName:  p.DisplayName,
			RoundNumber:  round,
			Bid:          bidBySeat[p.ID],
			TricksTaken:  change.TricksTaken,
			ScoreChange:  change.ScoreChange,
			TotalScore:   p.CurrentScore,
		})
	}
	return rows, nil
}

// finalWinner picks the strictly highest cumulative score; ties go to
// the lowest seat order.
func finalWinner(players []ports.GamePlayer) *ports.GamePlayer {
	best := &players[0]
	for i := 1; i < len(players); i++ {
		p := &players[i]
		if p.CurrentScore > best.CurrentScore ||
			(p.CurrentScore == best.CurrentScore && p.PlayerOrder < best.PlayerOrder) {
			best = p
		}
	}
	return best
}

func lockSession(ctx context.Context, tx ports.SessionStore, id string) (*ports.GameSession, error) {
	sess, err := tx.SessionByIDForUpdate(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return sess, nil
}

func seatByID(players []ports.GamePlayer, id string) *ports.GamePlayer {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}

func seatByOrder(players []ports.GamePlayer, order int) *ports.GamePlayer {
	for i := range players {
		if players[i].PlayerOrder == order {
			return &players[i]
		}
	}
	return nil
}

// seatAfter returns the seat one place left of the given one.
func seatAfter(players []ports.GamePlayer, id string) (*ports.GamePlayer, error) {
	cur := seatByID(players, id)
	if cur == nil {
		return nil, fmt.Errorf("seat %s not in session", id)
	}
	order := (cur.PlayerOrder + 1) % len(players)
	next := seatByOrder(players, order)
	if next == nil {
		return nil, fmt.Errorf("no seat at order %d", order)
	}
	return next, nil
}

func seatOrders(players []ports.GamePlayer) map[string]int {
	orders := make(map[string]int, len(players))
	for _, p := range players {
		orders[p.ID] = p.PlayerOrder
	}
	return orders
}

func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Service) shuffledDeck() *domain.Deck {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return domain.NewDeck(s.rng)
}

func (s *Service) randomTrump() domain.Suit {
	return domain.Suits[s.intn(len(domain.Suits))]
}
