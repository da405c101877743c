package domain

import "fmt"

// Comparison is the outcome of challenging the current winning card of a
// trick with another card.
type Comparison int

const (
	// Lower means the challenger does not beat the incumbent.
	Lower Comparison = iota
	// Higher means the challenger takes over as the winning card.
	Higher
)

// TrickPlay pairs a played card with the seat (or play sequence) it came from.
type TrickPlay struct {
	Seat int
	Card Card
}

// CompareCards decides whether challenger beats incumbent given the trick's
// lead suit and the round's trump suit. Trump beats non-trump; two trumps
// compare by rank; a lead-suit card beats any off-suit card; two lead-suit
// cards compare by rank. Two cards that are neither trump nor lead can never
// contend for a trick, so comparing them is a contract violation.
func CompareCards(challenger, incumbent Card, leadSuit, trumpSuit Suit) Comparison {
	challengerTrump := challenger.Suit == trumpSuit
	incumbentTrump := incumbent.Suit == trumpSuit

	switch {
	case challengerTrump && incumbentTrump:
		if RankValue(challenger.Rank) > RankValue(incumbent.Rank) {
			return Higher
		}
		return Lower
	case challengerTrump:
		return Higher
	case incumbentTrump:
		return Lower
	}

	challengerLead := challenger.Suit == leadSuit
	incumbentLead := incumbent.Suit == leadSuit

	switch {
	case challengerLead && incumbentLead:
		if RankValue(challenger.Rank) > RankValue(incumbent.Rank) {
			return Higher
		}
		return Lower
	case challengerLead:
		return Higher
	case incumbentLead:
		return Lower
	}

	panic(fmt.Sprintf("domain: comparing non-contending cards %s and %s", challenger, incumbent))
}

// IsValidPlay reports whether candidate may be played from hand. A nil
// leadSuit means the play opens the trick and any held card is legal.
// Otherwise the player must follow the lead suit if able, must play trump
// if unable to follow but holding trump, and may discard anything only when
// holding neither.
func IsValidPlay(hand []Card, candidate Card, leadSuit *Suit, trumpSuit Suit) bool {
	if !containsCard(hand, candidate) {
		return false
	}
	if leadSuit == nil {
		return true
	}
	if hasSuit(hand, *leadSuit) {
		return candidate.Suit == *leadSuit
	}
	if hasSuit(hand, trumpSuit) {
		return candidate.Suit == trumpSuit
	}
	return true
}

// LegalPlays filters hand down to the cards IsValidPlay would accept.
func LegalPlays(hand []Card, leadSuit *Suit, trumpSuit Suit) []Card {
	legal := make([]Card, 0, len(hand))
	for _, c := range hand {
		if IsValidPlay(hand, c, leadSuit, trumpSuit) {
			legal = append(legal, c)
		}
	}
	return legal
}

// DetermineTrickWinner resolves a completed trick. The lead suit is the suit
// of the first play; every later play challenges the running winner via
// CompareCards. Resolving an empty trick is a contract violation.
func DetermineTrickWinner(plays []TrickPlay, trumpSuit Suit) TrickPlay {
	if len(plays) == 0 {
		panic("domain: cannot resolve a trick with no plays")
	}
	leadSuit := plays[0].Card.Suit
	winner := plays[0]
	for _, play := range plays[1:] {
		if CompareCards(play.Card, winner.Card, leadSuit, trumpSuit) == Higher {
			winner = play
		}
	}
	return winner
}

// CalculateScore computes a seat's score delta for one round. An exact bid
// pays 10 plus 3 per trick taken; any miss costs 3 per trick of distance,
// with no credit for near misses.
func CalculateScore(bid, tricksTaken int) int {
	if bid == tricksTaken {
		return 10 + 3*tricksTaken
	}
	diff := bid - tricksTaken
	if diff < 0 {
		diff = -diff
	}
	return -3 * diff
}

// IsValidBid reports whether bid lies within [0, handSize].
func IsValidBid(bid, handSize int) bool {
	return bid >= 0 && bid <= handSize
}

// IsOhHellBid reports the house "oh hell" condition: the round's bids sum
// exactly to the tricks available. Detected for logging, never enforced.
func IsOhHellBid(totalBids, handSize int) bool {
	return totalBids == handSize
}

func containsCard(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

func hasSuit(hand []Card, s Suit) bool {
	for _, h := range hand {
		if h.Suit == s {
			return true
		}
	}
	return false
}
