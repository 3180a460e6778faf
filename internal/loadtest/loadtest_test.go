package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/matchwinner/internal/adapters/http/api"
	service "github.com/okian/matchwinner/internal/app"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/scoring"
	"github.com/okian/matchwinner/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(p controller.Predictor) (*httptest.Server, *service.Service) {
	svc := service.New(service.WithPredictor(p), service.WithWorkerCount(2))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), svc
}

func TestGenerateMatches(t *testing.T) {
	Convey("Given a small roster", t, func() {
		teams := []string{"Arsenal", "Chelsea", "Everton"}

		Convey("Valid matches always pair two different teams", func() {
			for _, m := range generateMatches(teams, 200, 0, 7) {
				So(m.HomeTeam, ShouldNotEqual, m.AwayTeam)
				So(m.HomeRank, ShouldBeBetweenOrEqual, 1, maxRank)
				So(m.AwayRank, ShouldBeBetweenOrEqual, 1, maxRank)
			}
		})

		Convey("Every Nth match repeats the home team", func() {
			matches := generateMatches(teams, 9, 3, 7)
			So(matches[2].AwayTeam, ShouldEqual, matches[2].HomeTeam)
			So(matches[5].AwayTeam, ShouldEqual, matches[5].HomeTeam)
			So(matches[0].AwayTeam, ShouldNotEqual, matches[0].HomeTeam)
		})

		Convey("The same seed generates the same matches", func() {
			So(generateMatches(teams, 20, 0, 42), ShouldResemble, generateMatches(teams, 20, 0, 42))
		})
	})
}

func TestVerifyPrediction(t *testing.T) {
	Convey("Given a match and a consistent answer", t, func() {
		m := Match{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: 1, AwayRank: 4}
		var resp predictResponse
		So(json.Unmarshal([]byte(`{
			"request":{"home_team":"Arsenal","away_team":"Chelsea","home_rank":1,"away_rank":4},
			"prediction":"H","headline":"ARSENAL","probable_winner":true,
			"arcs":[{"segment":"Home","length":150,"offset":0},
			        {"segment":"Draw","length":50,"offset":-150},
			        {"segment":"Away","length":51,"offset":-200}]}`), &resp), ShouldBeNil)

		Convey("It verifies", func() {
			So(verifyPrediction(m, resp, true), ShouldBeNil)
		})

		Convey("A wrong offset is caught", func() {
			resp.Arcs[2].Offset = -150
			So(verifyPrediction(m, resp, false), ShouldNotBeNil)
		})

		Convey("A wrong headline is caught", func() {
			resp.Headline = "CHELSEA"
			So(verifyPrediction(m, resp, false), ShouldNotBeNil)
		})

		Convey("An outcome against the ranks is caught only when checked", func() {
			resp.Prediction = model.OutcomeAway
			resp.Headline = "CHELSEA"
			So(verifyPrediction(m, resp, false), ShouldBeNil)
			So(verifyPrediction(m, resp, true), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service with the rank predictor", t, func() {
		srv, svc := startServer(scoring.NewRankPredictor(scoring.WithLatencyRange(0, 0)))
		defer srv.Close()
		defer svc.Stop()

		out := filepath.Join(t.TempDir(), "matches", "run.json")
		cfg := &Config{
			BaseURL:      srv.URL,
			Requests:     40,
			Workers:      4,
			Timeout:      5 * time.Second,
			InvalidEvery: 10,
			CheckRanks:   true,
			HistoryWait:  2 * time.Second,
			Seed:         1,
			OutputFile:   out,
		}

		stats, err := Run(context.Background(), cfg, logger.Nop())

		Convey("Every answer is consistent and duplicates are rejected", func() {
			So(err, ShouldBeNil)
			So(stats.Generated, ShouldEqual, 40)
			So(stats.Submitted, ShouldEqual, 40)
			So(stats.Rejected, ShouldEqual, 4)
			So(stats.Successful, ShouldEqual, 36)
			So(stats.Inconsistent, ShouldEqual, 0)
			So(stats.HistoryAfter-stats.HistoryBefore, ShouldEqual, 36)
		})

		Convey("The generated matches are saved", func() {
			data, readErr := os.ReadFile(out)
			So(readErr, ShouldBeNil)
			var saved []Match
			So(json.Unmarshal(data, &saved), ShouldBeNil)
			So(saved, ShouldHaveLength, 40)
		})
	})

	Convey("Given a predictor that ignores the ranks", t, func() {
		srv, svc := startServer(controller.PredictorFunc(func(context.Context, model.MatchRequest) (model.PredictionResult, error) {
			return model.PredictionResult{
				Outcome:       model.OutcomeDraw,
				Probabilities: model.Probabilities{Home: 30, Draw: 40, Away: 30},
			}, nil
		}))
		defer srv.Close()
		defer svc.Stop()

		cfg := &Config{BaseURL: srv.URL, Requests: 10, Workers: 2, Timeout: time.Second, CheckRanks: true, Seed: 3}

		Convey("Run reports inconsistent predictions", func() {
			_, err := Run(context.Background(), cfg, logger.Nop())
			So(errors.Is(err, ErrInconsistent), ShouldBeTrue)
		})
	})

	Convey("Given no service", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", Requests: 1, Workers: 1, Timeout: 200 * time.Millisecond}

		Convey("Run fails the health check", func() {
			_, err := Run(context.Background(), cfg, logger.Nop())
			So(err, ShouldNotBeNil)
		})
	})
}
