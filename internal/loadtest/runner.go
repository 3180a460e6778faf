package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/okian/matchwinner/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	historyPollInterval = 100 * time.Millisecond
	directoryPermission = 0o750
	filePermission      = 0o600
	percentMultiplier   = 100
)

// ErrInconsistent is returned when any answer failed verification.
var ErrInconsistent = errors.New("inconsistent predictions")

type apiError struct {
	Code string `json:"code"`
}

type serviceStats struct {
	HistoryCount int `json:"historyCount"`
}

// Run executes a complete load test against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting match winner load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("checkRanks", cfg.CheckRanks))

	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var teams struct {
		Teams []string `json:"teams"`
	}
	if err := client.getJSON(ctx, "/api/teams", &teams); err != nil {
		return nil, fmt.Errorf("team retrieval failed: %w", err)
	}
	if len(teams.Teams) < 2 {
		return nil, fmt.Errorf("need at least two teams, got %d", len(teams.Teams))
	}

	before, err := historyCount(ctx, client)
	if err != nil {
		return nil, err
	}
	stats.HistoryBefore = before

	matches := generateMatches(teams.Teams, cfg.Requests, cfg.InvalidEvery, cfg.Seed)
	stats.Generated = len(matches)

	submitMatches(ctx, cfg, client, matches, stats, log)

	stats.HistoryAfter = waitForHistory(ctx, client, before+stats.Successful, cfg.HistoryWait)
	if recorded := stats.HistoryAfter - stats.HistoryBefore; recorded < stats.Successful {
		log.Warn(ctx, "history did not record every prediction",
			logger.Int("recorded", recorded), logger.Int("successful", stats.Successful))
	}

	if cfg.OutputFile != "" {
		if err := saveMatches(cfg.OutputFile, matches); err != nil {
			log.Warn(ctx, "failed to save matches to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if stats.Inconsistent > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrInconsistent, stats.Inconsistent, stats.Successful+stats.Inconsistent)
	}
	return stats, nil
}

// submitMatches posts every match with at most cfg.Workers in flight.
func submitMatches(ctx context.Context, cfg *Config, client *httpClient, matches []Match, stats *Stats, log logger.Logger) {
	var submitted, successful, rejected, unavailable, failed, inconsistent atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, m := range matches {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			submitted.Add(1)
			status, body, err := client.postJSON(gctx, "/api/predict", m)
			if err != nil {
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "request failed", logger.Int("index", i), logger.Error(err))
				}
				return nil
			}

			switch status {
			case http.StatusOK:
				var resp predictResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					inconsistent.Add(1)
					log.Warn(gctx, "unparseable prediction", logger.Int("index", i), logger.Error(err))
					return nil
				}
				if err := verifyPrediction(m, resp, cfg.CheckRanks); err != nil {
					inconsistent.Add(1)
					log.Warn(gctx, "inconsistent prediction", logger.Int("index", i), logger.Error(err))
					return nil
				}
				successful.Add(1)
			case http.StatusBadRequest:
				var e apiError
				_ = json.Unmarshal(body, &e)
				if m.HomeTeam == m.AwayTeam && e.Code == "duplicate_team" {
					rejected.Add(1)
					return nil
				}
				inconsistent.Add(1)
				log.Warn(gctx, "unexpected rejection", logger.Int("index", i), logger.String("code", e.Code))
			case http.StatusServiceUnavailable:
				unavailable.Add(1)
			default:
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "unexpected status", logger.Int("index", i), logger.Int("status", status))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Successful = int(successful.Load())
	stats.Rejected = int(rejected.Load())
	stats.Unavailable = int(unavailable.Load())
	stats.Failed = int(failed.Load())
	stats.Inconsistent = int(inconsistent.Load())
}

func historyCount(ctx context.Context, client *httpClient) (int, error) {
	var st serviceStats
	if err := client.getJSON(ctx, "/stats", &st); err != nil {
		return 0, fmt.Errorf("stats retrieval failed: %w", err)
	}
	return st.HistoryCount, nil
}

// waitForHistory polls /stats until the history count reaches want or wait
// elapses, and returns the last count seen.
func waitForHistory(ctx context.Context, client *httpClient, want int, wait time.Duration) int {
	deadline := time.Now().Add(wait)
	last := 0
	for {
		if n, err := historyCount(ctx, client); err == nil {
			last = n
			if n >= want {
				return n
			}
		}
		if time.Now().After(deadline) {
			return last
		}
		select {
		case <-ctx.Done():
			return last
		case <-time.After(historyPollInterval):
		}
	}
}

// saveMatches writes the generated matches as a JSON array.
func saveMatches(filename string, matches []Match) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("rejected", stats.Rejected),
		logger.Int("unavailable", stats.Unavailable),
		logger.Int("failed", stats.Failed),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Int("historyRecorded", stats.HistoryAfter-stats.HistoryBefore),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
