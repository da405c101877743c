package domain

import (
	"math/rand"
	"sort"
)

// DeckSize is the number of cards in a full deck: 8 ranks across 4 suits.
const DeckSize = 32

// NumSeats is the number of players a deck serves. 32 cards across 4 seats
// caps a hand at 8 cards, matching the round schedule's peak.
const NumSeats = 4

// Deck is a mutable sequence of remaining cards. Draws consume from the
// front; Reset restores and reshuffles the full 32 cards.
type Deck struct {
	cards []Card
}

// AllCards returns the 32 suit/rank combinations in a stable order.
func AllCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return cards
}

// NewDeck returns a fully populated deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{}
	d.Reset(rng)
	return d
}

// Reset restores the deck to all 32 cards and reshuffles (Fisher-Yates).
func (d *Deck) Reset(rng *rand.Rand) {
	d.cards = AllCards()
	rng.Shuffle(len(d.cards), func(i, j int) { d.cards[i], d.cards[j] = d.cards[j], d.cards[i] })
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int { return len(d.cards) }

// Draw removes and returns the top card. ok is false when the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}

// DrawN removes and returns up to n cards; fewer when the deck runs short.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out
}

// SortHand orders a hand by suit, then ascending rank within each suit.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Suit != cards[j].Suit {
			return cards[i].Suit < cards[j].Suit
		}
		return RankValue(cards[i].Rank) < RankValue(cards[j].Rank)
	})
}
