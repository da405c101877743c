package sim

import (
	"fmt"
	"math/rand"

	"ohhell/internal/bot"
	"ohhell/internal/domain"
)

// Player is one simulated seat's running state across rounds.
type Player struct {
	Name        string
	Hand        []domain.Card
	Bid         int
	TricksTaken int
	Score       int
}

// TrickResult records one resolved trick.
type TrickResult struct {
	Number     int
	LeadSuit   domain.Suit
	Plays      []domain.TrickPlay
	WinnerSeat int
}

// PlayerRoundResult is one seat's line in a round summary.
type PlayerRoundResult struct {
	Seat        int
	Name        string
	Bid         int
	TricksTaken int
	ScoreChange int
	TotalScore  int
}

// RoundResult is the full structured detail of one simulated round.
type RoundResult struct {
	Round      int
	HandSize   int
	TrumpSuit  domain.Suit
	DealerSeat int
	// OhHell flags the house condition where the bids sum to the tricks
	// available. It never blocks a bid; enforcement is the caller's call.
	OhHell  bool
	Tricks  []TrickResult
	Players []PlayerRoundResult
}

// SimulateRound plays one complete round: reshuffle, deal, bid, play every
// trick, score. Dealing and bidding start left of the dealer; the first
// trick opens with the first bidder and every later trick opens with the
// previous winner. Player hands, bids, trick counters and cumulative scores
// are mutated in place. A policy choosing an illegal bid or card is an error.
func SimulateRound(deck *domain.Deck, players []*Player, round, dealerSeat int, rng *rand.Rand, policy bot.Policy) (*RoundResult, error) {
	if len(players) != domain.NumSeats {
		return nil, fmt.Errorf("sim: need %d players, got %d", domain.NumSeats, len(players))
	}
	if round < 1 || round > domain.TotalRounds {
		return nil, fmt.Errorf("sim: round %d outside schedule", round)
	}
	if dealerSeat < 0 || dealerSeat >= domain.NumSeats {
		return nil, fmt.Errorf("sim: dealer seat %d out of range", dealerSeat)
	}

	handSize := domain.HandSizeForRound(round)
	deck.Reset(rng)
	for _, p := range players {
		p.Hand = nil
		p.Bid = 0
		p.TricksTaken = 0
	}

	trump := domain.Suits[rng.Intn(len(domain.Suits))]

	// Deal left of the dealer first; the dealer deals to themselves last.
	for i := 1; i <= domain.NumSeats; i++ {
		seat := (dealerSeat + i) % domain.NumSeats
		players[seat].Hand = deck.DrawN(handSize)
	}

	totalBids := 0
	for i := 1; i <= domain.NumSeats; i++ {
		seat := (dealerSeat + i) % domain.NumSeats
		bid := policy.ChooseBid(players[seat].Hand, handSize, trump)
		if !domain.IsValidBid(bid, handSize) {
			return nil, fmt.Errorf("sim: seat %d bid %d outside [0,%d]", seat, bid, handSize)
		}
		players[seat].Bid = bid
		totalBids += bid
	}

	result := &RoundResult{
		Round:      round,
		HandSize:   handSize,
		TrumpSuit:  trump,
		DealerSeat: dealerSeat,
		OhHell:     domain.IsOhHellBid(totalBids, handSize),
		Tricks:     make([]TrickResult, 0, handSize),
	}

	leader := (dealerSeat + 1) % domain.NumSeats
	for number := 1; number <= handSize; number++ {
		plays := make([]domain.TrickPlay, 0, domain.NumSeats)
		var leadSuit *domain.Suit

		for k := 0; k < domain.NumSeats; k++ {
			seat := (leader + k) % domain.NumSeats
			p := players[seat]

			legal := domain.LegalPlays(p.Hand, leadSuit, trump)
			card := policy.ChooseCard(legal, plays, trump)
			if !domain.IsValidPlay(p.Hand, card, leadSuit, trump) {
				return nil, fmt.Errorf("sim: seat %d chose illegal card %v", seat, card)
			}

			p.Hand = removeCard(p.Hand, card)
			plays = append(plays, domain.TrickPlay{Seat: seat, Card: card})
			if leadSuit == nil {
				s := card.Suit
				leadSuit = &s
			}
		}

		winner := domain.DetermineTrickWinner(plays, trump)
		players[winner.Seat].TricksTaken++
		result.Tricks = append(result.Tricks, TrickResult{
			Number:     number,
			LeadSuit:   plays[0].Card.Suit,
			Plays:      plays,
			WinnerSeat: winner.Seat,
		})
		leader = winner.Seat
	}

	result.Players = make([]PlayerRoundResult, len(players))
	for seat, p := range players {
		delta := domain.CalculateScore(p.Bid, p.TricksTaken)
		p.Score += delta
		result.Players[seat] = PlayerRoundResult{
			Seat:        seat,
			Name:        p.Name,
			Bid:         p.Bid,
			TricksTaken: p.TricksTaken,
			ScoreChange: delta,
			TotalScore:  p.Score,
		}
	}

	return result, nil
}

func removeCard(hand []domain.Card, card domain.Card) []domain.Card {
	out := append([]domain.Card{}, hand...)
	for i := range out {
		if out[i] == card {
			return append(out[:i], out[i+1:]...)
		}
	}
	return out
}
