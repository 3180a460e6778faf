// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Outcome is the predicted result of a match.
type Outcome string

// Known outcomes. OutcomeUnknown covers codes the service may send that
// this front-end does not recognise.
const (
	OutcomeHome    Outcome = "H"
	OutcomeDraw    Outcome = "D"
	OutcomeAway    Outcome = "A"
	OutcomeUnknown Outcome = "?"
)

// ParseOutcome maps a wire code to an Outcome. Unrecognised codes yield
// OutcomeUnknown rather than an error.
func ParseOutcome(code string) Outcome {
	switch Outcome(strings.ToUpper(strings.TrimSpace(code))) {
	case OutcomeHome:
		return OutcomeHome
	case OutcomeDraw:
		return OutcomeDraw
	case OutcomeAway:
		return OutcomeAway
	default:
		return OutcomeUnknown
	}
}

// String returns a human readable label.
func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "Home"
	case OutcomeDraw:
		return "Draw"
	case OutcomeAway:
		return "Away"
	default:
		return "Unknown"
	}
}

// Probabilities holds the three outcome probabilities as percentages.
// They are expected, not guaranteed, to sum to 100.
type Probabilities struct {
	Home float64 `json:"Home"`
	Draw float64 `json:"Draw"`
	Away float64 `json:"Away"`
}

// Sum returns Home + Draw + Away.
func (p Probabilities) Sum() float64 {
	return p.Home + p.Draw + p.Away
}

// MatchRequest is a validated prediction request.
type MatchRequest struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	HomeRank int    `json:"home_rank"`
	AwayRank int    `json:"away_rank"`
}

// PredictionResult is what the prediction service returned for a request.
type PredictionResult struct {
	Outcome       Outcome       `json:"outcome"`
	Probabilities Probabilities `json:"probabilities"`
}

// Form carries the raw form values exactly as the user entered them.
type Form struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	HomeRank string `json:"home_rank"`
	AwayRank string `json:"away_rank"`
}

// HistoryEntry records a completed prediction for later inspection.
type HistoryEntry struct {
	ID        string           `json:"id" db:"id"`
	SessionID string           `json:"session_id" db:"session_id"`
	Request   MatchRequest     `json:"request"`
	Result    PredictionResult `json:"result"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
