// Command simulate plays complete games offline with bot policies and
// reports the outcomes. Useful for exercising the rules and sizing up
// policies without a server or a database.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"ohhell/internal/bot"
	"ohhell/internal/domain"
	"ohhell/internal/sim"
)

func main() {
	var (
		games   = flag.Int("games", 1, "number of games to play")
		seed    = flag.Int64("seed", 0, "rng seed; 0 seeds from the clock")
		policy  = flag.String("policy", "greedy", "seat policy: greedy or random")
		verbose = flag.Bool("v", false, "print every round of every game")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	var pol bot.Policy
	switch *policy {
	case "greedy":
		pol = bot.NewGreedyPolicy()
	case "random":
		pol = bot.NewRandomPolicy(rng)
	default:
		fmt.Fprintf(os.Stderr, "unknown policy %q (want greedy or random)\n", *policy)
		os.Exit(2)
	}

	fmt.Printf("seed=%d policy=%s games=%d\n", *seed, *policy, *games)

	wins := make([]int, domain.NumSeats)
	totals := make([]int, domain.NumSeats)
	for g := 1; g <= *games; g++ {
		result, err := sim.SimulateGame(rng, pol)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, seat := range result.Winners {
			wins[seat]++
		}
		for seat, score := range result.FinalScores {
			totals[seat] += score
		}
		if *verbose {
			printGame(g, result)
		} else {
			fmt.Printf("game %d: scores=%v winners=%v\n", g, result.FinalScores, result.Winners)
		}
	}

	if *games > 1 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "seat\twins\tavg score")
		for seat := 0; seat < domain.NumSeats; seat++ {
			fmt.Fprintf(w, "%d\t%d\t%.1f\n", seat, wins[seat], float64(totals[seat])/float64(*games))
		}
		_ = w.Flush()
	}
}

func printGame(number int, result *sim.GameResult) {
	fmt.Printf("game %d\n", number)
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "round\tsize\ttrump\tdealer\tbid/taken\toh hell")
	for _, rr := range result.Rounds {
		cols := make([]string, 0, len(rr.Players))
		for _, pr := range rr.Players {
			cols = append(cols, fmt.Sprintf("%d/%d", pr.Bid, pr.TricksTaken))
		}
		mark := ""
		if rr.OhHell {
			mark = "yes"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n",
			rr.Round, rr.HandSize, rr.TrumpSuit, rr.DealerSeat, strings.Join(cols, " "), mark)
	}
	_ = w.Flush()
	fmt.Printf("final scores=%v winners=%v\n", result.FinalScores, result.Winners)
}
