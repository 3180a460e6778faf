package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/matchwinner/internal/loadtest"
	"github.com/okian/matchwinner/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests     = 1000
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 15 * time.Second
	defaultHistoryWait  = 10 * time.Second
	defaultInvalidEvery = 10
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "Base URL of the service")
		requests     = flag.Int("requests", defaultRequests, "Number of predictions to submit")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		invalidEvery = flag.Int("invalid-every", defaultInvalidEvery, "Send a duplicate-team request every N requests (0 disables)")
		checkRanks   = flag.Bool("check-ranks", true, "Require outcomes to follow the ranks (built-in predictor)")
		historyWait  = flag.Duration("history-wait", defaultHistoryWait, "How long to wait for history to record predictions")
		seed         = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for match generation")
		outputFile   = flag.String("output", "", "Optional output file for generated matches")
		logFormat    = flag.String("log-format", "text", "Log format: text or json")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:      *baseURL,
		Requests:     *requests,
		Workers:      *workers,
		Timeout:      *timeout,
		InvalidEvery: *invalidEvery,
		CheckRanks:   *checkRanks,
		HistoryWait:  *historyWait,
		Seed:         *seed,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg, logger.Get().Named("loadtest")); err != nil {
		os.Stderr.WriteString("load test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
