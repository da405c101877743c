package sim

import (
	"fmt"
	"math/rand"

	"ohhell/internal/bot"
	"ohhell/internal/domain"
)

// GameResult summarizes a full scheduled game.
type GameResult struct {
	Rounds      []RoundResult
	FinalScores []int
	// Winners holds every seat tied at the maximum score. The offline layer
	// reports ties as-is; tie-breaking is a session concern.
	Winners []int
}

// NewPlayers returns freshly zeroed players for the given seat names. Names
// beyond the seat count are ignored; missing names default to "Seat N".
func NewPlayers(names ...string) []*Player {
	players := make([]*Player, domain.NumSeats)
	for i := range players {
		name := fmt.Sprintf("Seat %d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		players[i] = &Player{Name: name}
	}
	return players
}

// SimulateGame plays all scheduled rounds back to back with one deck,
// reshuffled every round. The first dealer is uniformly random; afterwards
// the deal rotates one seat per round.
func SimulateGame(rng *rand.Rand, policy bot.Policy) (*GameResult, error) {
	players := NewPlayers()
	deck := domain.NewDeck(rng)
	dealer := rng.Intn(domain.NumSeats)

	result := &GameResult{Rounds: make([]RoundResult, 0, domain.TotalRounds)}
	for round := 1; round <= domain.TotalRounds; round++ {
		rr, err := SimulateRound(deck, players, round, dealer, rng, policy)
		if err != nil {
			return nil, fmt.Errorf("sim: round %d: %w", round, err)
		}
		result.Rounds = append(result.Rounds, *rr)
		dealer = (dealer + 1) % domain.NumSeats
	}

	result.FinalScores = make([]int, len(players))
	best := players[0].Score
	for seat, p := range players {
		result.FinalScores[seat] = p.Score
		if p.Score > best {
			best = p.Score
		}
	}
	for seat, p := range players {
		if p.Score == best {
			result.Winners = append(result.Winners, seat)
		}
	}

	return result, nil
}
