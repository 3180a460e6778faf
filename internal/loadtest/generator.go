package loadtest

import (
	"math/rand/v2"
)

const maxRank = 20

// generateMatches builds n requests over teams. Every invalidEvery-th
// request uses the same team twice so the service must reject it.
func generateMatches(teams []string, n, invalidEvery int, seed uint64) []Match {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible runs
	matches := make([]Match, n)
	for i := range matches {
		home := rng.IntN(len(teams))
		away := rng.IntN(len(teams) - 1)
		if away >= home {
			away++
		}
		if invalidEvery > 0 && (i+1)%invalidEvery == 0 {
			away = home
		}
		matches[i] = Match{
			HomeTeam: teams[home],
			AwayTeam: teams[away],
			HomeRank: 1 + rng.IntN(maxRank),
			AwayRank: 1 + rng.IntN(maxRank),
		}
	}
	return matches
}
