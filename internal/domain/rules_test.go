package domain

import (
	"testing"
)

func TestCompareCards(t *testing.T) {
	lead := SuitSpades
	trump := SuitDiamonds

	tests := []struct {
		name       string
		challenger Card
		incumbent  Card
		expected   Comparison
	}{
		{
			name:       "trump beats lead-suit ace",
			challenger: Card{Suit: SuitDiamonds, Rank: RankSeven},
			incumbent:  Card{Suit: SuitSpades, Rank: RankAce},
			expected:   Higher,
		},
		{
			name:       "lead-suit ace loses to trump seven",
			challenger: Card{Suit: SuitSpades, Rank: RankAce},
			incumbent:  Card{Suit: SuitDiamonds, Rank: RankSeven},
			expected:   Lower,
		},
		{
			name:       "higher trump beats lower trump",
			challenger: Card{Suit: SuitDiamonds, Rank: RankQueen},
			incumbent:  Card{Suit: SuitDiamonds, Rank: RankTen},
			expected:   Higher,
		},
		{
			name:       "lower trump loses to higher trump",
			challenger: Card{Suit: SuitDiamonds, Rank: RankEight},
			incumbent:  Card{Suit: SuitDiamonds, Rank: RankJack},
			expected:   Lower,
		},
		{
			name:       "higher lead beats lower lead",
			challenger: Card{Suit: SuitSpades, Rank: RankKing},
			incumbent:  Card{Suit: SuitSpades, Rank: RankNine},
			expected:   Higher,
		},
		{
			name:       "lead-suit card beats off-suit card",
			challenger: Card{Suit: SuitSpades, Rank: RankSeven},
			incumbent:  Card{Suit: SuitHearts, Rank: RankAce},
			expected:   Higher,
		},
		{
			name:       "off-suit card loses to lead-suit card",
			challenger: Card{Suit: SuitClubs, Rank: RankAce},
			incumbent:  Card{Suit: SuitSpades, Rank: RankSeven},
			expected:   Lower,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareCards(tt.challenger, tt.incumbent, lead, trump); got != tt.expected {
				t.Errorf("CompareCards() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCompareCardsNonContendingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic comparing two non-contending cards")
		}
	}()
	CompareCards(
		Card{Suit: SuitHearts, Rank: RankAce},
		Card{Suit: SuitClubs, Rank: RankAce},
		SuitSpades, SuitDiamonds,
	)
}

func TestIsValidPlay(t *testing.T) {
	spades := SuitSpades
	hand := []Card{
		{Suit: SuitSpades, Rank: RankNine},
		{Suit: SuitDiamonds, Rank: RankJack},
		{Suit: SuitHearts, Rank: RankAce},
	}

	tests := []struct {
		name      string
		hand      []Card
		candidate Card
		leadSuit  *Suit
		trumpSuit Suit
		expected  bool
	}{
		{
			name:      "opening play allows any held card",
			hand:      hand,
			candidate: Card{Suit: SuitHearts, Rank: RankAce},
			leadSuit:  nil,
			trumpSuit: SuitDiamonds,
			expected:  true,
		},
		{
			name:      "card not in hand is never valid",
			hand:      hand,
			candidate: Card{Suit: SuitClubs, Rank: RankSeven},
			leadSuit:  nil,
			trumpSuit: SuitDiamonds,
			expected:  false,
		},
		{
			name:      "must follow lead when able",
			hand:      hand,
			candidate: Card{Suit: SuitHearts, Rank: RankAce},
			leadSuit:  &spades,
			trumpSuit: SuitDiamonds,
			expected:  false,
		},
		{
			name:      "following lead is valid",
			hand:      hand,
			candidate: Card{Suit: SuitSpades, Rank: RankNine},
			leadSuit:  &spades,
			trumpSuit: SuitDiamonds,
			expected:  true,
		},
		{
			name: "must trump when void in lead",
			hand: []Card{
				{Suit: SuitDiamonds, Rank: RankJack},
				{Suit: SuitHearts, Rank: RankAce},
			},
			candidate: Card{Suit: SuitHearts, Rank: RankAce},
			leadSuit:  &spades,
			trumpSuit: SuitDiamonds,
			expected:  false,
		},
		{
			name: "trumping when void in lead is valid",
			hand: []Card{
				{Suit: SuitDiamonds, Rank: RankJack},
				{Suit: SuitHearts, Rank: RankAce},
			},
			candidate: Card{Suit: SuitDiamonds, Rank: RankJack},
			leadSuit:  &spades,
			trumpSuit: SuitDiamonds,
			expected:  true,
		},
		{
			name: "free discard when void in lead and trump",
			hand: []Card{
				{Suit: SuitHearts, Rank: RankSeven},
				{Suit: SuitClubs, Rank: RankTen},
			},
			candidate: Card{Suit: SuitClubs, Rank: RankTen},
			leadSuit:  &spades,
			trumpSuit: SuitDiamonds,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPlay(tt.hand, tt.candidate, tt.leadSuit, tt.trumpSuit); got != tt.expected {
				t.Errorf("IsValidPlay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLegalPlays(t *testing.T) {
	spades := SuitSpades
	hand := []Card{
		{Suit: SuitSpades, Rank: RankNine},
		{Suit: SuitSpades, Rank: RankKing},
		{Suit: SuitHearts, Rank: RankAce},
	}

	legal := LegalPlays(hand, &spades, SuitDiamonds)
	if len(legal) != 2 {
		t.Fatalf("LegalPlays() returned %d cards, want 2", len(legal))
	}
	for _, c := range legal {
		if c.Suit != SuitSpades {
			t.Errorf("LegalPlays() included %v, want spades only", c)
		}
	}
}

func TestDetermineTrickWinner(t *testing.T) {
	tests := []struct {
		name       string
		plays      []TrickPlay
		trumpSuit  Suit
		wantSeat   int
		wantCard   Card
	}{
		{
			name: "trump seven beats lead-suit royalty",
			plays: []TrickPlay{
				{Seat: 0, Card: Card{Suit: SuitSpades, Rank: RankAce}},
				{Seat: 1, Card: Card{Suit: SuitDiamonds, Rank: RankSeven}},
				{Seat: 2, Card: Card{Suit: SuitSpades, Rank: RankKing}},
				{Seat: 3, Card: Card{Suit: SuitSpades, Rank: RankQueen}},
			},
			trumpSuit: SuitDiamonds,
			wantSeat:  1,
			wantCard:  Card{Suit: SuitDiamonds, Rank: RankSeven},
		},
		{
			name: "highest lead card wins without trump",
			plays: []TrickPlay{
				{Seat: 2, Card: Card{Suit: SuitHearts, Rank: RankNine}},
				{Seat: 3, Card: Card{Suit: SuitHearts, Rank: RankKing}},
				{Seat: 0, Card: Card{Suit: SuitClubs, Rank: RankAce}},
				{Seat: 1, Card: Card{Suit: SuitHearts, Rank: RankTen}},
			},
			trumpSuit: SuitDiamonds,
			wantSeat:  3,
			wantCard:  Card{Suit: SuitHearts, Rank: RankKing},
		},
		{
			name: "higher trump overtakes earlier trump",
			plays: []TrickPlay{
				{Seat: 1, Card: Card{Suit: SuitClubs, Rank: RankQueen}},
				{Seat: 2, Card: Card{Suit: SuitDiamonds, Rank: RankEight}},
				{Seat: 3, Card: Card{Suit: SuitDiamonds, Rank: RankAce}},
				{Seat: 0, Card: Card{Suit: SuitClubs, Rank: RankKing}},
			},
			trumpSuit: SuitDiamonds,
			wantSeat:  3,
			wantCard:  Card{Suit: SuitDiamonds, Rank: RankAce},
		},
		{
			name: "lead holds when everyone else discards",
			plays: []TrickPlay{
				{Seat: 0, Card: Card{Suit: SuitClubs, Rank: RankSeven}},
				{Seat: 1, Card: Card{Suit: SuitHearts, Rank: RankAce}},
				{Seat: 2, Card: Card{Suit: SuitSpades, Rank: RankAce}},
				{Seat: 3, Card: Card{Suit: SuitHearts, Rank: RankKing}},
			},
			trumpSuit: SuitDiamonds,
			wantSeat:  0,
			wantCard:  Card{Suit: SuitClubs, Rank: RankSeven},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineTrickWinner(tt.plays, tt.trumpSuit)
			if got.Seat != tt.wantSeat || got.Card != tt.wantCard {
				t.Errorf("DetermineTrickWinner() = seat %d card %v, want seat %d card %v",
					got.Seat, got.Card, tt.wantSeat, tt.wantCard)
			}

			// The winner must beat every other play under the trick's lead suit.
			leadSuit := tt.plays[0].Card.Suit
			for _, play := range tt.plays {
				if play == got {
					continue
				}
				if CompareCards(play.Card, got.Card, leadSuit, tt.trumpSuit) != Lower {
					t.Errorf("play %v is not beaten by winner %v", play.Card, got.Card)
				}
			}
		})
	}
}

func TestDetermineTrickWinnerEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic resolving an empty trick")
		}
	}()
	DetermineTrickWinner(nil, SuitHearts)
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name        string
		bid         int
		tricksTaken int
		expected    int
	}{
		{name: "exact bid of three", bid: 3, tricksTaken: 3, expected: 19},
		{name: "exact zero bid", bid: 0, tricksTaken: 0, expected: 10},
		{name: "exact bid of eight", bid: 8, tricksTaken: 8, expected: 34},
		{name: "missed low", bid: 3, tricksTaken: 1, expected: -6},
		{name: "missed high", bid: 2, tricksTaken: 5, expected: -9},
		{name: "missed by one", bid: 0, tricksTaken: 1, expected: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateScore(tt.bid, tt.tricksTaken); got != tt.expected {
				t.Errorf("CalculateScore(%d, %d) = %d, want %d", tt.bid, tt.tricksTaken, got, tt.expected)
			}
		})
	}
}

func TestIsValidBid(t *testing.T) {
	tests := []struct {
		name     string
		bid      int
		handSize int
		expected bool
	}{
		{name: "zero bid", bid: 0, handSize: 5, expected: true},
		{name: "bid equal to hand size", bid: 5, handSize: 5, expected: true},
		{name: "bid above hand size", bid: 6, handSize: 5, expected: false},
		{name: "negative bid", bid: -1, handSize: 5, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidBid(tt.bid, tt.handSize); got != tt.expected {
				t.Errorf("IsValidBid(%d, %d) = %v, want %v", tt.bid, tt.handSize, got, tt.expected)
			}
		})
	}
}

func TestIsOhHellBid(t *testing.T) {
	if !IsOhHellBid(5, 5) {
		t.Error("IsOhHellBid(5, 5) = false, want true")
	}
	if IsOhHellBid(4, 5) {
		t.Error("IsOhHellBid(4, 5) = true, want false")
	}
}
