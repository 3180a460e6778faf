package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/matchwinner/internal/app"
	"github.com/okian/matchwinner/internal/controller"
	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/internal/domain/validation"
	"github.com/okian/matchwinner/internal/domain/view"
)

const maxPredictBody = 1 << 16

// PredictDependencies defines the interface for one-shot predictions.
type PredictDependencies interface {
	Predict(ctx context.Context, form model.Form) (model.MatchRequest, model.PredictionResult, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// rankField holds a rank as the text the form would carry. JSON strings are
// unquoted, any other value keeps its literal text and null is empty, so
// rank parsing is left to validation.
type rankField string

func (r *rankField) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")):
		*r = ""
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*r = rankField(s)
	default:
		*r = rankField(raw)
	}
	return nil
}

// predictRequest mirrors the OpenAPI schema for POST /api/predict. Ranks
// accept both JSON numbers and numeric strings.
type predictRequest struct {
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	HomeRank rankField `json:"home_rank"`
	AwayRank rankField `json:"away_rank"`
}

func (p predictRequest) form() model.Form {
	return model.Form{
		HomeTeam: p.HomeTeam,
		AwayTeam: p.AwayTeam,
		HomeRank: string(p.HomeRank),
		AwayRank: string(p.AwayRank),
	}
}

type arcResponse struct {
	Segment string  `json:"segment"`
	Color   string  `json:"color"`
	Length  float64 `json:"length"`
	Offset  float64 `json:"offset"`
}

type labelsResponse struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

type predictResponse struct {
	Request        model.MatchRequest  `json:"request"`
	Prediction     model.Outcome       `json:"prediction"`
	Outcome        string              `json:"outcome"`
	Probabilities  model.Probabilities `json:"probabilities"`
	Headline       string              `json:"headline"`
	ProbableWinner bool                `json:"probable_winner"`
	Labels         labelsResponse      `json:"labels"`
	Arcs           []arcResponse       `json:"arcs"`
	Circumference  float64             `json:"circumference"`
}

func newPredictResponse(req model.MatchRequest, res model.PredictionResult) predictResponse {
	rv := view.RenderResult(req, res, nil)
	out := predictResponse{
		Request:        req,
		Prediction:     res.Outcome,
		Outcome:        res.Outcome.String(),
		Probabilities:  res.Probabilities,
		Headline:       rv.Headline,
		ProbableWinner: rv.ProbableWinner,
		Labels:         labelsResponse{Home: rv.HomePct, Draw: rv.DrawPct, Away: rv.AwayPct},
		Arcs:           make([]arcResponse, 0, len(rv.Arcs)),
		Circumference:  rv.Circumference,
	}
	for _, a := range rv.Arcs {
		out.Arcs = append(out.Arcs, arcResponse{Segment: a.Label, Color: a.Color, Length: a.Length, Offset: a.Offset})
	}
	return out
}

// HandlePostPredict handles POST /api/predict requests.
func (h *PredictHandler) HandlePostPredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	req, res, err := h.deps.Predict(r.Context(), body.form())
	switch {
	case errors.Is(err, validation.ErrIncompleteForm):
		writeError(w, http.StatusBadRequest, "incomplete_form", err)
		return
	case errors.Is(err, validation.ErrDuplicateTeam):
		writeError(w, http.StatusBadRequest, "duplicate_team", err)
		return
	case errors.Is(err, controller.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", err)
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", wrapKind(op, ErrUnavailable, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, newPredictResponse(req, res))
}
