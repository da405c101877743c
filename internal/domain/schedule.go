package domain

import "fmt"

// RoundSchedule fixes the hand size for every round of a game, indexed by
// round number starting at 1. Symmetric, peaking at 8 when the deck is
// fully dealt across the 4 seats. Never recomputed.
var RoundSchedule = []int{1, 2, 3, 4, 5, 6, 7, 8, 8, 8, 7, 6, 5, 4, 3, 2, 1}

// TotalRounds is the number of scheduled rounds in a full game.
const TotalRounds = 17

// HandSizeForRound returns the scheduled hand size for a 1-indexed round
// number. A round outside the schedule is a programming error.
func HandSizeForRound(round int) int {
	if round < 1 || round > TotalRounds {
		panic(fmt.Sprintf("domain: round %d outside schedule", round))
	}
	return RoundSchedule[round-1]
}
