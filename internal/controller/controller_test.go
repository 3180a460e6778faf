package controller_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

var errBoom = errors.New("boom")

// fakePredictor counts calls and optionally blocks until released.
type fakePredictor struct {
	calls   atomic.Int32
	result  model.PredictionResult
	err     error
	delay   time.Duration
	release chan struct{}
}

func (f *fakePredictor) Predict(_ context.Context, _ model.MatchRequest) (model.PredictionResult, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func arsenalChelsea() model.Form {
	return model.Form{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: "1", AwayRank: "5"}
}

func homeWin() model.PredictionResult {
	return model.PredictionResult{
		Outcome:       model.OutcomeHome,
		Probabilities: model.Probabilities{Home: 55, Draw: 25, Away: 20},
	}
}

func TestController_Submit(t *testing.T) {
	Convey("Given a controller with a short dwell", t, func() {
		p := &fakePredictor{result: homeWin()}
		var mu sync.Mutex
		var transitions []string
		c := controller.New(p,
			controller.WithDwell(20*time.Millisecond),
			controller.WithTransitionHook(func(from, to controller.State) {
				mu.Lock()
				defer mu.Unlock()
				transitions = append(transitions, from.String()+">"+to.String())
			}),
		)
		defer c.Close()
		ctx := context.Background()

		Convey("It should start in Input with an empty form", func() {
			s := c.Snapshot()
			So(s.State, ShouldEqual, controller.StateInput)
			So(s.Form, ShouldResemble, model.Form{})
			So(s.Result, ShouldBeNil)
			So(s.ErrorMessage(), ShouldEqual, "")
		})

		Convey("When a valid form is submitted", func() {
			err := c.Submit(ctx, arsenalChelsea())

			Convey("Then it should enter Loading and issue exactly one call", func() {
				So(err, ShouldBeNil)
				So(c.Snapshot().State, ShouldEqual, controller.StateLoading)
				c.Wait()
				So(p.calls.Load(), ShouldEqual, 1)
			})

			Convey("And it should reach Result with the service response", func() {
				c.Wait()
				s := c.Snapshot()
				So(s.State, ShouldEqual, controller.StateResult)
				So(s.Result, ShouldNotBeNil)
				So(s.Result.Outcome, ShouldEqual, model.OutcomeHome)
				So(s.Result.Probabilities, ShouldResemble, model.Probabilities{Home: 55, Draw: 25, Away: 20})
				So(s.Request, ShouldResemble, model.MatchRequest{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: 1, AwayRank: 5})

				mu.Lock()
				defer mu.Unlock()
				So(transitions, ShouldResemble, []string{"input>loading", "loading>result"})
			})

			Convey("And a second submit while loading should be ignored", func() {
				err := c.Submit(ctx, arsenalChelsea())
				So(errors.Is(err, controller.ErrBusy), ShouldBeTrue)
				c.Wait()
				So(p.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a field is missing", func() {
			form := arsenalChelsea()
			form.AwayRank = "  "
			err := c.Submit(ctx, form)

			Convey("Then it should stay in Input with an incomplete form error", func() {
				So(errors.Is(err, validation.ErrIncompleteForm), ShouldBeTrue)
				s := c.Snapshot()
				So(s.State, ShouldEqual, controller.StateInput)
				So(s.ErrorMessage(), ShouldEqual, "Please complete all fields.")
				So(s.Form, ShouldResemble, form)
				So(p.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When both teams are the same", func() {
			form := arsenalChelsea()
			form.AwayTeam = "Arsenal"
			err := c.Submit(ctx, form)

			Convey("Then it should report a duplicate team and issue no call", func() {
				So(errors.Is(err, validation.ErrDuplicateTeam), ShouldBeTrue)
				So(c.Snapshot().ErrorMessage(), ShouldEqual, "Teams must be different.")
				So(p.calls.Load(), ShouldEqual, 0)
			})

			Convey("And a corrected submit should clear the error", func() {
				So(c.Submit(ctx, arsenalChelsea()), ShouldBeNil)
				So(c.Snapshot().Err, ShouldBeNil)
				c.Wait()
			})
		})
	})
}

func TestController_Dwell(t *testing.T) {
	Convey("Given a controller with a 100ms dwell", t, func() {
		ctx := context.Background()

		Convey("When the service answers immediately", func() {
			p := &fakePredictor{result: homeWin()}
			c := controller.New(p, controller.WithDwell(100*time.Millisecond))
			defer c.Close()

			start := time.Now()
			So(c.Submit(ctx, arsenalChelsea()), ShouldBeNil)

			Convey("Then Result should not appear before the dwell elapses", func() {
				time.Sleep(30 * time.Millisecond)
				So(c.Snapshot().State, ShouldEqual, controller.StateLoading)
				c.Wait()
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 100*time.Millisecond)
				So(c.Snapshot().State, ShouldEqual, controller.StateResult)
			})
		})

		Convey("When the service is slower than the dwell", func() {
			p := &fakePredictor{result: homeWin(), delay: 150 * time.Millisecond}
			c := controller.New(p, controller.WithDwell(100*time.Millisecond))
			defer c.Close()

			start := time.Now()
			So(c.Submit(ctx, arsenalChelsea()), ShouldBeNil)
			c.Wait()

			Convey("Then Result should follow the response, not dwell plus response", func() {
				elapsed := time.Since(start)
				So(elapsed, ShouldBeGreaterThanOrEqualTo, 150*time.Millisecond)
				So(elapsed, ShouldBeLessThan, 250*time.Millisecond)
				So(c.Snapshot().State, ShouldEqual, controller.StateResult)
			})
		})
	})
}

func TestController_Failure(t *testing.T) {
	Convey("Given a controller whose service fails", t, func() {
		p := &fakePredictor{err: errBoom}
		c := controller.New(p, controller.WithDwell(5*time.Second))
		defer c.Close()

		form := model.Form{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeRank: " 1", AwayRank: "5 "}
		start := time.Now()
		So(c.Submit(context.Background(), form), ShouldBeNil)
		c.Wait()

		Convey("Then it should return to Input without waiting for the dwell", func() {
			So(time.Since(start), ShouldBeLessThan, time.Second)
			s := c.Snapshot()
			So(s.State, ShouldEqual, controller.StateInput)
			So(s.ErrorMessage(), ShouldEqual, "Prediction Service Unavailable.")
		})

		Convey("And the form should be kept exactly as entered", func() {
			So(c.Snapshot().Form, ShouldResemble, form)
		})

		Convey("And the error should wrap the service failure", func() {
			err := c.Snapshot().Err
			So(errors.Is(err, controller.ErrServiceUnavailable), ShouldBeTrue)
			So(errors.Is(err, errBoom), ShouldBeTrue)
			var sue *controller.ServiceUnavailableError
			So(errors.As(err, &sue), ShouldBeTrue)
		})

		Convey("And a new submit should be accepted", func() {
			p.err = nil
			p.result = homeWin()
			So(c.Submit(context.Background(), form), ShouldBeNil)
		})
	})

	Convey("Given a service that ignores the request timeout", t, func() {
		p := controller.PredictorFunc(func(ctx context.Context, _ model.MatchRequest) (model.PredictionResult, error) {
			<-ctx.Done()
			return model.PredictionResult{}, ctx.Err()
		})
		c := controller.New(p, controller.WithDwell(0), controller.WithRequestTimeout(30*time.Millisecond))
		defer c.Close()

		So(c.Submit(context.Background(), arsenalChelsea()), ShouldBeNil)
		c.Wait()

		Convey("Then the timeout should surface as unavailable", func() {
			err := c.Snapshot().Err
			So(errors.Is(err, controller.ErrServiceUnavailable), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}

func TestController_Back(t *testing.T) {
	Convey("Given a controller", t, func() {
		p := &fakePredictor{result: homeWin()}
		c := controller.New(p, controller.WithDwell(0))
		defer c.Close()
		ctx := context.Background()

		Convey("When Back is called in Input", func() {
			err := c.Back(ctx)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, controller.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When Back is called in Result", func() {
			So(c.Submit(ctx, arsenalChelsea()), ShouldBeNil)
			c.Wait()
			So(c.Snapshot().State, ShouldEqual, controller.StateResult)
			err := c.Back(ctx)

			Convey("Then it should return to a fresh Input view", func() {
				So(err, ShouldBeNil)
				s := c.Snapshot()
				So(s.State, ShouldEqual, controller.StateInput)
				So(s.Form, ShouldResemble, model.Form{})
				So(s.Result, ShouldBeNil)
				So(s.Err, ShouldBeNil)
			})
		})
	})
}

func TestController_Close(t *testing.T) {
	Convey("Given a controller with a request in flight", t, func() {
		p := &fakePredictor{result: homeWin(), release: make(chan struct{})}
		var recorded atomic.Int32
		c := controller.New(p,
			controller.WithDwell(0),
			controller.WithRecorder(func(context.Context, model.MatchRequest, model.PredictionResult) {
				recorded.Add(1)
			}),
		)
		So(c.Submit(context.Background(), arsenalChelsea()), ShouldBeNil)

		Convey("When the controller is closed before the response arrives", func() {
			c.Close()
			close(p.release)
			c.Wait()

			Convey("Then the late response should be discarded", func() {
				s := c.Snapshot()
				So(s.State, ShouldEqual, controller.StateLoading)
				So(s.Result, ShouldBeNil)
				So(recorded.Load(), ShouldEqual, 0)
			})

			Convey("And later operations should report closed", func() {
				So(errors.Is(c.Submit(context.Background(), arsenalChelsea()), controller.ErrClosed), ShouldBeTrue)
				So(errors.Is(c.Back(context.Background()), controller.ErrClosed), ShouldBeTrue)
			})

			Convey("And closing twice should be harmless", func() {
				So(func() { c.Close() }, ShouldNotPanic)
			})
		})
	})
}

func TestController_Recorder(t *testing.T) {
	Convey("Given a controller with a recorder", t, func() {
		p := &fakePredictor{result: homeWin()}
		var (
			mu   sync.Mutex
			reqs []model.MatchRequest
			ress []model.PredictionResult
		)
		c := controller.New(p,
			controller.WithDwell(0),
			controller.WithRecorder(func(_ context.Context, req model.MatchRequest, res model.PredictionResult) {
				mu.Lock()
				defer mu.Unlock()
				reqs = append(reqs, req)
				ress = append(ress, res)
			}),
		)
		defer c.Close()

		Convey("When a prediction succeeds", func() {
			So(c.Submit(context.Background(), arsenalChelsea()), ShouldBeNil)
			c.Wait()

			Convey("Then it should be recorded once", func() {
				mu.Lock()
				defer mu.Unlock()
				So(len(reqs), ShouldEqual, 1)
				So(reqs[0].HomeTeam, ShouldEqual, "Arsenal")
				So(ress[0], ShouldResemble, homeWin())
			})
		})

		Convey("When a prediction fails", func() {
			p.err = errBoom
			So(c.Submit(context.Background(), arsenalChelsea()), ShouldBeNil)
			c.Wait()

			Convey("Then nothing should be recorded", func() {
				mu.Lock()
				defer mu.Unlock()
				So(len(reqs), ShouldEqual, 0)
			})
		})
	})
}

func TestSnapshot_Isolation(t *testing.T) {
	Convey("Given a controller in Result", t, func() {
		c := controller.New(&fakePredictor{result: homeWin()}, controller.WithDwell(0))
		defer c.Close()
		So(c.Submit(context.Background(), arsenalChelsea()), ShouldBeNil)
		c.Wait()

		Convey("Mutating a snapshot should not affect the controller", func() {
			s := c.Snapshot()
			s.Result.Probabilities.Home = 99
			s.Form.HomeTeam = "Mutated"
			again := c.Snapshot()
			So(again.Result.Probabilities.Home, ShouldEqual, 55)
			So(again.Form.HomeTeam, ShouldEqual, "Arsenal")
		})
	})
}
