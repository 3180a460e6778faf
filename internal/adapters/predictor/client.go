// Package predictor is the HTTP client for the external prediction service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/matchwinner/internal/domain/model"
	"github.com/okian/matchwinner/pkg/logger"
	"github.com/okian/matchwinner/pkg/metrics"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "github.com/okian/matchwinner/internal/adapters/predictor"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Outcome labels used for metrics.
const (
	statusOK        = "ok"
	statusTransport = "transport"
	statusHTTP      = "status"
	statusDecode    = "decode"
	statusSchema    = "schema"
)

// responseSchema describes the only body we accept from the service.
const responseSchema = `{
  "type": "object",
  "required": ["prediction", "probabilities"],
  "properties": {
    "prediction": {"type": "string"},
    "probabilities": {
      "type": "object",
      "required": ["Home", "Draw", "Away"],
      "properties": {
        "Home": {"type": "number"},
        "Draw": {"type": "number"},
        "Away": {"type": "number"}
      }
    }
  }
}`

type wireResponse struct {
	Prediction    string              `json:"prediction"`
	Probabilities model.Probabilities `json:"probabilities"`
}

// Client calls the prediction service over HTTP.
type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
	tracer  trace.Tracer
	schema  *gojsonschema.Schema
}

// New creates a client for the service at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, endpoint)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}

	c := &Client{
		url:     u.String(),
		timeout: defaultTimeout,
		logger:  logger.Nop(),
		tracer:  otel.Tracer(tracerName),
		schema:  schema,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// URL returns the service endpoint.
func (c *Client) URL() string { return c.url }

// Predict posts req to the service. Every failure, whatever its cause,
// wraps ErrUnavailable.
func (c *Client) Predict(ctx context.Context, req model.MatchRequest) (model.PredictionResult, error) {
	ctx, span := c.tracer.Start(ctx, "predictor.Predict",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("match.home_team", req.HomeTeam),
			attribute.String("match.away_team", req.AwayTeam),
			attribute.Int("match.home_rank", req.HomeRank),
			attribute.Int("match.away_rank", req.AwayRank),
		),
	)
	defer span.End()
	start := time.Now()

	res, status, err := c.do(ctx, req)
	metrics.RecordPredictorRequest(status, float64(time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		c.logger.Warn(ctx, "prediction service call failed",
			logger.String("status", status),
			logger.Error(err),
		)
		return model.PredictionResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	span.SetAttributes(attribute.String("match.outcome", res.Outcome.String()))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (c *Client) do(ctx context.Context, req model.MatchRequest) (model.PredictionResult, string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.PredictionResult{}, statusTransport, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.PredictionResult{}, statusTransport, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return model.PredictionResult{}, statusTransport, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.PredictionResult{}, statusHTTP, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.PredictionResult{}, statusTransport, fmt.Errorf("read response: %w", err)
	}

	return c.decode(raw)
}

func (c *Client) decode(raw []byte) (model.PredictionResult, string, error) {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return model.PredictionResult{}, statusDecode, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return model.PredictionResult{}, statusSchema, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(errs, "; "))
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return model.PredictionResult{}, statusDecode, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return model.PredictionResult{
		Outcome:       model.ParseOutcome(wire.Prediction),
		Probabilities: wire.Probabilities,
	}, statusOK, nil
}
