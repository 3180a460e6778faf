package view_test

import (
	"errors"
	"io/fs"
	"math"
	"testing"
	"testing/fstest"

	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/geometry"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/roster"
	"github.com/okian/matchwinner/internal/domain/validation"
	"github.com/okian/matchwinner/internal/domain/view"
	. "github.com/smartystreets/goconvey/convey"
)

func resultSnapshot(o model.Outcome, p model.Probabilities) controller.Snapshot {
	res := model.PredictionResult{Outcome: o, Probabilities: p}
	return controller.Snapshot{
		State:   controller.StateResult,
		Form:    model.Form{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: "1", AwayRank: "5"},
		Request: model.MatchRequest{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: 1, AwayRank: 5},
		Result:  &res,
	}
}

func TestRender(t *testing.T) {
	assets := fstest.MapFS{"Arsenal.png": &fstest.MapFile{Data: []byte("png")}}
	resolver := view.NewAssetResolver(assets)
	r := roster.Default()

	Convey("Given an Input snapshot with an error", t, func() {
		s := controller.Snapshot{
			State: controller.StateInput,
			Form:  model.Form{HomeTeam: "Arsenal", AwayTeam: "Arsenal", HomeRank: "1", AwayRank: "2"},
			Err:   &validation.DuplicateTeamError{Team: "Arsenal"},
		}
		p := view.Render(s, r, resolver)

		Convey("Then the page should carry the form, roster and error text", func() {
			So(p.State, ShouldEqual, "input")
			So(p.Form, ShouldResemble, s.Form)
			So(p.Teams, ShouldResemble, r.Teams())
			So(p.Error, ShouldEqual, "Teams must be different.")
			So(p.Result, ShouldBeNil)
			So(p.Loading(), ShouldBeFalse)
		})
	})

	Convey("Given a Loading snapshot", t, func() {
		p := view.Render(controller.Snapshot{State: controller.StateLoading}, r, resolver)

		Convey("Then it should render the loading view", func() {
			So(p.Loading(), ShouldBeTrue)
			So(p.Result, ShouldBeNil)
		})
	})

	Convey("Given a home win 55/25/20 for Arsenal v Chelsea", t, func() {
		p := view.Render(resultSnapshot(model.OutcomeHome, model.Probabilities{Home: 55, Draw: 25, Away: 20}), r, resolver)

		Convey("Then the headline should be ARSENAL with the badge", func() {
			So(p.State, ShouldEqual, "result")
			So(p.Result, ShouldNotBeNil)
			So(p.Result.Headline, ShouldEqual, "ARSENAL")
			So(p.Result.ProbableWinner, ShouldBeTrue)
		})

		Convey("And arcs should be proportioned 55:25:20", func() {
			c := geometry.Circumference
			arcs := p.Result.Arcs
			So(arcs[0].Length, ShouldAlmostEqual, 0.55*c, 1e-9)
			So(arcs[1].Length, ShouldAlmostEqual, 0.25*c, 1e-9)
			So(arcs[2].Length, ShouldAlmostEqual, 0.20*c, 1e-9)
			So(arcs[1].Offset, ShouldAlmostEqual, -0.55*c, 1e-9)
			So(arcs[2].Offset, ShouldAlmostEqual, -0.80*c, 1e-9)
			So(arcs[0].Label, ShouldEqual, "Home")
			So(arcs[0].DashOffset, ShouldEqual, "0.0000")
		})

		Convey("And labels and logos should be filled in", func() {
			So(p.Result.HomePct, ShouldEqual, "55%")
			So(p.Result.DrawPct, ShouldEqual, "25%")
			So(p.Result.AwayPct, ShouldEqual, "20%")
			So(p.Result.Home.LogoURL, ShouldEqual, "/assets/Arsenal.png")
			So(p.Result.Home.Placeholder, ShouldBeFalse)
			So(p.Result.Away.LogoURL, ShouldEqual, view.PlaceholderURL)
			So(p.Result.Away.Placeholder, ShouldBeTrue)
		})
	})

	Convey("Given an away win", t, func() {
		p := view.Render(resultSnapshot(model.OutcomeAway, model.Probabilities{Home: 15, Draw: 25, Away: 60}), r, resolver)

		Convey("Then the away team should headline with the badge", func() {
			So(p.Result.Headline, ShouldEqual, "CHELSEA")
			So(p.Result.ProbableWinner, ShouldBeTrue)
		})
	})

	Convey("Given a draw or an unrecognised outcome", t, func() {
		draw := view.Render(resultSnapshot(model.OutcomeDraw, model.Probabilities{Home: 33, Draw: 34, Away: 33}), r, resolver)
		unknown := view.Render(resultSnapshot(model.OutcomeUnknown, model.Probabilities{Home: 40, Draw: 20, Away: 40}), r, resolver)

		Convey("Then both should read DRAW without the badge", func() {
			So(draw.Result.Headline, ShouldEqual, view.DrawHeadline)
			So(draw.Result.ProbableWinner, ShouldBeFalse)
			So(unknown.Result.Headline, ShouldEqual, view.DrawHeadline)
			So(unknown.Result.ProbableWinner, ShouldBeFalse)
		})
	})

	Convey("Given a nil roster and resolver", t, func() {
		p := view.Render(resultSnapshot(model.OutcomeHome, model.Probabilities{Home: 60, Draw: 20, Away: 20}), nil, nil)

		Convey("Then rendering should fall back to placeholders", func() {
			So(p.Teams, ShouldBeNil)
			So(p.Result.Home.Placeholder, ShouldBeTrue)
			So(p.Result.Away.Placeholder, ShouldBeTrue)
		})
	})

	Convey("Given a snapshot with a non-validation error", t, func() {
		s := controller.Snapshot{State: controller.StateInput, Err: &controller.ServiceUnavailableError{Err: errors.New("x")}}

		Convey("Then the message should be the user-facing one", func() {
			So(view.Render(s, r, resolver).Error, ShouldEqual, "Prediction Service Unavailable.")
		})
	})
}

func TestPercent(t *testing.T) {
	Convey("Percent should round to one decimal place", t, func() {
		So(view.Percent(55), ShouldEqual, "55%")
		So(view.Percent(33.333), ShouldEqual, "33.3%")
		So(view.Percent(12.25), ShouldEqual, "12.3%")
		So(view.Percent(0), ShouldEqual, "0%")
		So(view.Percent(math.NaN()), ShouldEqual, "0%")
		So(view.Percent(math.Inf(1)), ShouldEqual, "0%")
		So(view.Percent(-5), ShouldEqual, "0%")
		So(view.Percent(math.Inf(-1)), ShouldEqual, "0%")
	})
}

func TestAssetResolver(t *testing.T) {
	Convey("Given an asset filesystem", t, func() {
		fsys := fstest.MapFS{
			"Man City.png":      &fstest.MapFile{Data: []byte("png")},
			"Nott'm Forest.png": &fstest.MapFile{Data: []byte("png")},
			"Leeds.png":         &fstest.MapFile{Mode: fs.ModeDir | 0o755},
		}
		r := view.NewAssetResolver(fsys)

		Convey("Then existing logos should be URL-escaped", func() {
			So(r.Resolve("Man City").LogoURL, ShouldEqual, "/assets/Man%20City.png")
			So(r.Resolve("Nott'm Forest").Placeholder, ShouldBeFalse)
		})

		Convey("And missing logos should use the placeholder", func() {
			d := r.Resolve("Wolves")
			So(d.Name, ShouldEqual, "Wolves")
			So(d.LogoURL, ShouldEqual, view.PlaceholderURL)
			So(d.Placeholder, ShouldBeTrue)
		})

		Convey("And directories and path tricks should never resolve", func() {
			So(r.Resolve("Leeds").Placeholder, ShouldBeTrue)
			So(r.Resolve("../secret").Placeholder, ShouldBeTrue)
			So(r.Resolve("").Placeholder, ShouldBeTrue)
		})
	})

	Convey("LogoFile should reject unsafe names", t, func() {
		So(view.LogoFile("Arsenal"), ShouldEqual, "Arsenal.png")
		So(view.LogoFile("a/b"), ShouldEqual, "")
		So(view.LogoFile(".."), ShouldEqual, "")
		So(view.LogoFile(`a\b`), ShouldEqual, "")
	})
}
