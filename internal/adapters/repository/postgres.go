package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/matchwinner/internal/domain/model"
)

const createHistoryTable = `CREATE TABLE IF NOT EXISTS prediction_history (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	home_team   TEXT NOT NULL,
	away_team   TEXT NOT NULL,
	home_rank   INTEGER NOT NULL,
	away_rank   INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	prob_home   DOUBLE PRECISION NOT NULL,
	prob_draw   DOUBLE PRECISION NOT NULL,
	prob_away   DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertHistory = `INSERT INTO prediction_history
	(id, session_id, home_team, away_team, home_rank, away_rank, outcome, prob_home, prob_draw, prob_away, created_at)
	VALUES (:id, :session_id, :home_team, :away_team, :home_rank, :away_rank, :outcome, :prob_home, :prob_draw, :prob_away, :created_at)`

const selectRecent = `SELECT id, session_id, home_team, away_team, home_rank, away_rank, outcome, prob_home, prob_draw, prob_away, created_at
	FROM prediction_history ORDER BY created_at DESC, id DESC LIMIT $1`

const countHistory = `SELECT COUNT(*) FROM prediction_history`

// historyRow is the flattened table layout of a HistoryEntry.
type historyRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	HomeTeam  string    `db:"home_team"`
	AwayTeam  string    `db:"away_team"`
	HomeRank  int       `db:"home_rank"`
	AwayRank  int       `db:"away_rank"`
	Outcome   string    `db:"outcome"`
	ProbHome  float64   `db:"prob_home"`
	ProbDraw  float64   `db:"prob_draw"`
	ProbAway  float64   `db:"prob_away"`
	CreatedAt time.Time `db:"created_at"`
}

func toRow(e model.HistoryEntry) historyRow {
	return historyRow{
		ID:        e.ID,
		SessionID: e.SessionID,
		HomeTeam:  e.Request.HomeTeam,
		AwayTeam:  e.Request.AwayTeam,
		HomeRank:  e.Request.HomeRank,
		AwayRank:  e.Request.AwayRank,
		Outcome:   string(e.Result.Outcome),
		ProbHome:  e.Result.Probabilities.Home,
		ProbDraw:  e.Result.Probabilities.Draw,
		ProbAway:  e.Result.Probabilities.Away,
		CreatedAt: e.CreatedAt,
	}
}

func (r historyRow) entry() model.HistoryEntry {
	return model.HistoryEntry{
		ID:        r.ID,
		SessionID: r.SessionID,
		Request: model.MatchRequest{
			HomeTeam: r.HomeTeam,
			AwayTeam: r.AwayTeam,
			HomeRank: r.HomeRank,
			AwayRank: r.AwayRank,
		},
		Result: model.PredictionResult{
			Outcome:       model.ParseOutcome(r.Outcome),
			Probabilities: model.Probabilities{Home: r.ProbHome, Draw: r.ProbDraw, Away: r.ProbAway},
		},
		CreatedAt: r.CreatedAt,
	}
}

// PostgresConfig holds connection settings for the postgres backend.
type PostgresConfig struct {
	DSN            string
	MaxConnections int
	MaxIdle        int
}

// PostgresStore keeps history in the prediction_history table.
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects to postgres and creates the table if needed.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database. The store owns db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the history table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// Record inserts e.
func (s *PostgresStore) Record(ctx context.Context, e model.HistoryEntry) error {
	if _, err := s.db.NamedExecContext(ctx, insertHistory, toRow(e)); err != nil {
		return fmt.Errorf("postgres record: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]model.HistoryEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, selectRecent, n); err != nil {
		return nil, fmt.Errorf("postgres recent: %w", err)
	}
	out := make([]model.HistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// Count returns the number of rows.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, countHistory); err != nil {
		return 0, fmt.Errorf("postgres count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
