package bot

import (
	"math/rand"

	"ohhell/internal/domain"
)

// Policy is the interface all bidding/playing strategies implement. The
// simulator guarantees that legal is non-empty and that played holds the
// current trick's cards in play order.
type Policy interface {
	ChooseBid(hand []domain.Card, handSize int, trump domain.Suit) int
	ChooseCard(legal []domain.Card, played []domain.TrickPlay, trump domain.Suit) domain.Card
}

// RandomPolicy bids and plays uniformly among the legal options.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy constructs a RandomPolicy drawing from rng.
func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) ChooseBid(hand []domain.Card, handSize int, trump domain.Suit) int {
	return p.rng.Intn(handSize + 1)
}

func (p *RandomPolicy) ChooseCard(legal []domain.Card, played []domain.TrickPlay, trump domain.Suit) domain.Card {
	return legal[p.rng.Intn(len(legal))]
}

// GreedyPolicy bids by counting likely winners in hand and plays the
// cheapest card that takes the trick, dumping its lowest card when it
// cannot win. Fully deterministic.
type GreedyPolicy struct{}

// NewGreedyPolicy constructs a GreedyPolicy.
func NewGreedyPolicy() *GreedyPolicy {
	return &GreedyPolicy{}
}

func (p *GreedyPolicy) ChooseBid(hand []domain.Card, handSize int, trump domain.Suit) int {
	bid := 0
	for _, c := range hand {
		switch {
		case c.Suit == trump && domain.RankValue(c.Rank) >= domain.RankValue(domain.RankJack):
			bid++
		case c.Suit != trump && domain.RankValue(c.Rank) >= domain.RankValue(domain.RankKing):
			bid++
		}
	}
	if bid > handSize {
		bid = handSize
	}
	return bid
}

func (p *GreedyPolicy) ChooseCard(legal []domain.Card, played []domain.TrickPlay, trump domain.Suit) domain.Card {
	if len(played) == 0 {
		// Lead with the strongest non-trump to force out higher cards early.
		if c, ok := highestOfOtherSuits(legal, trump); ok {
			return c
		}
		return highestCard(legal)
	}

	leadSuit := played[0].Card.Suit
	winning := domain.DetermineTrickWinner(played, trump).Card

	var cheapestWinner *domain.Card
	for i, c := range legal {
		if domain.CompareCards(c, winning, leadSuit, trump) != domain.Higher {
			continue
		}
		if cheapestWinner == nil || domain.RankValue(c.Rank) < domain.RankValue(cheapestWinner.Rank) {
			cheapestWinner = &legal[i]
		}
	}
	if cheapestWinner != nil {
		return *cheapestWinner
	}
	return lowestCard(legal)
}

func highestOfOtherSuits(cards []domain.Card, trump domain.Suit) (domain.Card, bool) {
	var best domain.Card
	found := false
	for _, c := range cards {
		if c.Suit == trump {
			continue
		}
		if !found || domain.RankValue(c.Rank) > domain.RankValue(best.Rank) {
			best = c
			found = true
		}
	}
	return best, found
}

func highestCard(cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if domain.RankValue(c.Rank) > domain.RankValue(best.Rank) {
			best = c
		}
	}
	return best
}

func lowestCard(cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if domain.RankValue(c.Rank) < domain.RankValue(best.Rank) {
			best = c
		}
	}
	return best
}
