package loadtest

import (
	"fmt"
	"math"

	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/view"
)

const offsetTolerance = 1e-6

// predictResponse is the client view of a POST /api/predict answer.
type predictResponse struct {
	Request        model.MatchRequest `json:"request"`
	Prediction     model.Outcome      `json:"prediction"`
	Headline       string             `json:"headline"`
	ProbableWinner bool               `json:"probable_winner"`
	Arcs           []struct {
		Segment string  `json:"segment"`
		Length  float64 `json:"length"`
		Offset  float64 `json:"offset"`
	} `json:"arcs"`
	Circumference float64 `json:"circumference"`
}

// verifyPrediction checks one successful answer against the match sent.
func verifyPrediction(m Match, resp predictResponse, checkRanks bool) error {
	if resp.Request.HomeTeam != m.HomeTeam || resp.Request.AwayTeam != m.AwayTeam {
		return fmt.Errorf("request echo %s vs %s does not match %s vs %s",
			resp.Request.HomeTeam, resp.Request.AwayTeam, m.HomeTeam, m.AwayTeam)
	}
	if resp.Request.HomeRank != m.HomeRank || resp.Request.AwayRank != m.AwayRank {
		return fmt.Errorf("rank echo %d/%d does not match %d/%d",
			resp.Request.HomeRank, resp.Request.AwayRank, m.HomeRank, m.AwayRank)
	}

	if want := view.Headline(resp.Request, resp.Prediction); resp.Headline != want {
		return fmt.Errorf("headline %q, want %q", resp.Headline, want)
	}
	decisive := resp.Prediction == model.OutcomeHome || resp.Prediction == model.OutcomeAway
	if resp.ProbableWinner != decisive {
		return fmt.Errorf("probable_winner %t for outcome %s", resp.ProbableWinner, resp.Prediction)
	}

	if len(resp.Arcs) != 3 {
		return fmt.Errorf("got %d arcs, want 3", len(resp.Arcs))
	}
	var drawn float64
	for i, a := range resp.Arcs {
		if math.Abs(a.Offset+drawn) > offsetTolerance {
			return fmt.Errorf("arc %d (%s) offset %.6f, want %.6f", i, a.Segment, a.Offset, -drawn)
		}
		drawn += a.Length
	}

	if checkRanks {
		if want := expectedOutcome(m); resp.Prediction != want {
			return fmt.Errorf("outcome %s for ranks %d/%d, want %s", resp.Prediction, m.HomeRank, m.AwayRank, want)
		}
	}
	return nil
}

// expectedOutcome is the rank rule: the better (lower) rank is favoured and
// equal ranks are a draw.
func expectedOutcome(m Match) model.Outcome {
	switch {
	case m.HomeRank < m.AwayRank:
		return model.OutcomeHome
	case m.HomeRank > m.AwayRank:
		return model.OutcomeAway
	default:
		return model.OutcomeDraw
	}
}
