package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchwinner/internal/adapters/repository"
	service "github.com/okian/matchwinner/internal/app"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/scoring"
	"github.com/okian/matchwinner/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// waitForHistory polls until the store holds want entries or the deadline
// passes.
func waitForHistory(ctx context.Context, st repository.Store, want int) int {
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, _ := st.Count(ctx)
		if n >= want || time.Now().After(deadline) {
			return n
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to the local rank predictor", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithLogger(logger.Get()),
			service.WithPredictor(scoring.NewRankPredictor()),
			service.WithHistoryStore(store),
			service.WithDwell(20*time.Millisecond),
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a session runs a prediction end-to-end", func() {
			c, id, err := svc.Controller("")
			So(err, ShouldBeNil)

			err = c.Submit(ctx, model.Form{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: "1", AwayRank: "5"})
			So(err, ShouldBeNil)
			So(c.Snapshot().State, ShouldEqual, controller.StateLoading)
			c.Wait()

			Convey("Then the controller shows the home win", func() {
				snap := c.Snapshot()
				So(snap.State, ShouldEqual, controller.StateResult)
				So(snap.Result.Outcome, ShouldEqual, model.OutcomeHome)
				So(snap.Result.Probabilities.Home, ShouldEqual, 60.0)
			})

			Convey("And the prediction lands in history", func() {
				So(waitForHistory(ctx, store, 1), ShouldEqual, 1)

				entries, err := svc.History(ctx, 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].SessionID, ShouldEqual, id)
				So(entries[0].Request.HomeTeam, ShouldEqual, "Arsenal")
				So(entries[0].ID, ShouldNotBeEmpty)
				So(entries[0].CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And Back returns the session to a clean form", func() {
				So(c.Back(ctx), ShouldBeNil)
				snap := c.Snapshot()
				So(snap.State, ShouldEqual, controller.StateInput)
				So(snap.Form, ShouldResemble, model.Form{})
			})
		})

		Convey("When many sessions predict concurrently", func() {
			const sessions = 10
			var wg sync.WaitGroup
			for i := 0; i < sessions; i++ {
				c, _, err := svc.Controller("")
				So(err, ShouldBeNil)
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = c.Submit(ctx, model.Form{HomeTeam: "Leeds", AwayTeam: "Fulham", HomeRank: "7", AwayRank: "7"})
					c.Wait()
				}()
			}
			wg.Wait()

			Convey("Then every prediction is recorded", func() {
				So(waitForHistory(ctx, store, sessions), ShouldEqual, sessions)
				st := svc.Stats(ctx)
				So(st.ActiveSessions, ShouldEqual, sessions)
				So(st.HistoryCount, ShouldEqual, sessions)
			})
		})

		Convey("When the API path predicts directly", func() {
			_, res, err := svc.Predict(ctx, model.Form{HomeTeam: "Wolves", AwayTeam: "everton", HomeRank: "12", AwayRank: "4"})

			Convey("Then the away side is favoured and recorded as an api entry", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, model.OutcomeAway)
				So(waitForHistory(ctx, store, 1), ShouldEqual, 1)

				entries, err := svc.History(ctx, 1)
				So(err, ShouldBeNil)
				So(entries[0].SessionID, ShouldEqual, "api")
				So(entries[0].Request.AwayTeam, ShouldEqual, "Everton")
			})
		})
	})
}

// countingStore counts successful writes so they can be checked after Close.
type countingStore struct {
	repository.Store
	written atomic.Int64
}

func (s *countingStore) Record(ctx context.Context, e model.HistoryEntry) error {
	if err := s.Store.Record(ctx, e); err != nil {
		return err
	}
	s.written.Add(1)
	return nil
}

func TestServiceStopDrainsHistory(t *testing.T) {
	Convey("Given a service with pending history writes", t, func() {
		store := &countingStore{Store: repository.NewMemoryStore()}
		svc := service.New(
			service.WithHistoryStore(store),
			service.WithPredictor(okPredictor()),
			service.WithDwell(0),
			service.WithWorkerCount(1),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		for i := 0; i < 5; i++ {
			_, _, err := svc.Predict(ctx, model.Form{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: "1", AwayRank: "2"})
			So(err, ShouldBeNil)
		}

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the queued entries were written before the store closed", func() {
				So(store.written.Load(), ShouldEqual, int64(5))
			})
		})
	})
}
