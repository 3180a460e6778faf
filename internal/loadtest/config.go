// Package loadtest drives a running match winner service over its JSON API
// and checks every answer it gets back.
package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Requests     int           // Number of predictions to submit
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	InvalidEvery int           // Every Nth request repeats the home team; 0 disables
	CheckRanks   bool          // Require outcomes to follow the ranks
	HistoryWait  time.Duration // How long to wait for history to catch up
	Seed         uint64        // Seed for match generation
	OutputFile   string        // Optional JSON dump of generated matches
	Verbose      bool          // Log every failed request
}

// Match is one generated prediction request.
type Match struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	HomeRank int    `json:"home_rank"`
	AwayRank int    `json:"away_rank"`
}

// Stats holds run statistics.
type Stats struct {
	Generated    int
	Submitted    int
	Successful   int
	Rejected     int
	Unavailable  int
	Failed       int
	Inconsistent int

	HistoryBefore int
	HistoryAfter  int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
