package domain

import "fmt"

// Suit identifies one of the four French suits.
type Suit string

const (
	SuitHearts   Suit = "HEARTS"
	SuitDiamonds Suit = "DIAMONDS"
	SuitClubs    Suit = "CLUBS"
	SuitSpades   Suit = "SPADES"
)

// Rank identifies a card rank in the 32-card deck. Seven is the lowest
// rank in play, ace the highest.
type Rank string

const (
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "JACK"
	RankQueen Rank = "QUEEN"
	RankKing  Rank = "KING"
	RankAce   Rank = "ACE"
)

// Suits lists all suits in a stable order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Ranks lists all ranks in ascending order of strength.
var Ranks = []Rank{RankSeven, RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce}

var rankOrder = map[Rank]int{
	RankSeven: 0,
	RankEight: 1,
	RankNine:  2,
	RankTen:   3,
	RankJack:  4,
	RankQueen: 5,
	RankKing:  6,
	RankAce:   7,
}

// Card is a single playing card. Two cards are equal when suit and rank match.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%s", c.Suit, c.Rank)
}

// RankValue returns the strength of a rank: 7 < 8 < 9 < 10 < JACK < QUEEN < KING < ACE.
// An unknown rank cannot come from a real deck and panics.
func RankValue(r Rank) int {
	v, ok := rankOrder[r]
	if !ok {
		panic(fmt.Sprintf("domain: unknown rank %q", r))
	}
	return v
}

// ValidSuit reports whether s is one of the four playable suits.
func ValidSuit(s Suit) bool {
	switch s {
	case SuitHearts, SuitDiamonds, SuitClubs, SuitSpades:
		return true
	}
	return false
}

// ValidRank reports whether r is a rank present in the deck.
func ValidRank(r Rank) bool {
	_, ok := rankOrder[r]
	return ok
}
