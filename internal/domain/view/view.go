// Package view turns a controller snapshot into a display model.
//
// Render is pure: the same snapshot, roster and resolver always give the
// same Page. Templates consume Page and never look at controller state.
package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/geometry"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Headline shown for a draw and for any outcome code we do not recognise.
const DrawHeadline = "DRAW"

// Segment colours, in Home, Draw, Away order.
var segmentColors = [3]string{"#22d3ee", "#64748b", "#ec4899"}

// Roster is the team list shown in the selects.
type Roster interface {
	Teams() []string
}

// Resolver finds a team's logo.
type Resolver interface {
	Resolve(team string) TeamDisplay
}

// Arc is one ring segment ready for SVG.
type Arc struct {
	Label      string
	Color      string
	Length     float64
	Offset     float64
	DashArray  string
	DashOffset string
}

// ResultView is the Result-only part of a Page.
type ResultView struct {
	Outcome        model.Outcome
	Headline       string
	ProbableWinner bool
	Home           TeamDisplay
	Away           TeamDisplay
	Arcs           [3]Arc
	HomePct        string
	DrawPct        string
	AwayPct        string
	Radius         float64
	Circumference  float64
}

// Page is the complete display model for one render.
type Page struct {
	State  string
	Teams  []string
	Form   model.Form
	Error  string
	Result *ResultView
}

// Loading reports whether the page is the loading view.
func (p Page) Loading() bool { return p.State == controller.StateLoading.String() }

// Render builds the Page for s.
func Render(s controller.Snapshot, roster Roster, resolver Resolver) Page {
	p := Page{
		State: s.State.String(),
		Form:  s.Form,
		Error: s.ErrorMessage(),
	}
	if roster != nil {
		p.Teams = roster.Teams()
	}
	if s.State == controller.StateResult && s.Result != nil {
		rv := RenderResult(s.Request, *s.Result, resolver)
		p.Result = &rv
	}
	return p
}

// RenderResult builds the result view for a request and its prediction.
func RenderResult(req model.MatchRequest, res model.PredictionResult, resolver Resolver) ResultView {
	rv := ResultView{
		Outcome:        res.Outcome,
		Headline:       Headline(req, res.Outcome),
		ProbableWinner: res.Outcome == model.OutcomeHome || res.Outcome == model.OutcomeAway,
		HomePct:        Percent(res.Probabilities.Home),
		DrawPct:        Percent(res.Probabilities.Draw),
		AwayPct:        Percent(res.Probabilities.Away),
		Radius:         geometry.Radius,
		Circumference:  geometry.Circumference,
	}
	if resolver != nil {
		rv.Home = resolver.Resolve(req.HomeTeam)
		rv.Away = resolver.Resolve(req.AwayTeam)
	} else {
		rv.Home = TeamDisplay{Name: req.HomeTeam, LogoURL: PlaceholderURL, Placeholder: true}
		rv.Away = TeamDisplay{Name: req.AwayTeam, LogoURL: PlaceholderURL, Placeholder: true}
	}

	labels := [3]string{"Home", "Draw", "Away"}
	for i, a := range geometry.ComputeArcs(res.Probabilities) {
		rv.Arcs[i] = Arc{
			Label:      labels[i],
			Color:      segmentColors[i],
			Length:     a.Length,
			Offset:     a.Offset,
			DashArray:  fmt.Sprintf("%.4f %.4f", a.Length, geometry.Circumference),
			DashOffset: fmt.Sprintf("%.4f", a.Offset),
		}
	}
	return rv
}

// Headline is the upper-cased winner, or DRAW.
func Headline(req model.MatchRequest, o model.Outcome) string {
	switch o {
	case model.OutcomeHome:
		return strings.ToUpper(req.HomeTeam)
	case model.OutcomeAway:
		return strings.ToUpper(req.AwayTeam)
	default:
		return DrawHeadline
	}
}

// Percent formats a probability for display, rounded to one decimal place.
// Non-finite and negative values show as 0%, matching the zero-length arc
// geometry draws for them.
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return "0%"
	}
	return decimal.NewFromFloat(v).Round(1).String() + "%"
}
