// Package storage provides SQLite-based persistence for finished simulation
// runs. Only per-run summaries are kept, never individual games.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for run results.
type Store struct {
	db *sql.DB
}

// RunRecord summarizes one simulation run.
type RunRecord struct {
	ID             int64
	RunID          string   // UUID, assigned by SaveRun when empty
	Width          int      // board width
	Height         int      // board height
	Players        []string // strategy ID per seat
	GamesRequested int
	GamesPlayed    int
	Tally          []int // wins per seat
	Cancelled      bool
	Duration       time.Duration
	CreatedAt      time.Time
}

// Winner returns the seat with the most wins, or -1 if no game finished.
// Ties go to the lower seat.
func (r RunRecord) Winner() int {
	best := -1
	for seat, wins := range r.Tally {
		if wins > 0 && (best < 0 || wins > r.Tally[best]) {
			best = seat
		}
	}
	return best
}

// StrategyStats aggregates the results of one strategy across all runs.
type StrategyStats struct {
	StrategyID string
	Seats      int // seats occupied across runs
	Games      int // games played in those seats
	Wins       int
}

// WinRate returns wins per game played, 0 when no games were played.
func (s StrategyStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			players TEXT NOT NULL,
			games_requested INTEGER NOT NULL,
			games_played INTEGER NOT NULL,
			tally TEXT NOT NULL,
			cancelled BOOLEAN NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run and returns its row ID. A missing RunID is
// filled with a new UUID.
func (s *Store) SaveRun(run *RunRecord) (int64, error) {
	if len(run.Players) != len(run.Tally) {
		return 0, fmt.Errorf("storage: %d players but %d tally entries", len(run.Players), len(run.Tally))
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}

	result, err := s.db.Exec(
		`INSERT INTO runs
		 (run_id, width, height, players, games_requested, games_played, tally, cancelled, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Width,
		run.Height,
		strings.Join(run.Players, ","),
		run.GamesRequested,
		run.GamesPlayed,
		joinInts(run.Tally),
		run.Cancelled,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	run.ID = id

	return id, nil
}

const runColumns = `id, run_id, width, height, players, games_requested, games_played,
		        tally, cancelled, duration_ms, created_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		r          RunRecord
		players    string
		tally      string
		durationMS int64
		createdAt  any
	)

	if err := row.Scan(
		&r.ID,
		&r.RunID,
		&r.Width,
		&r.Height,
		&players,
		&r.GamesRequested,
		&r.GamesPlayed,
		&tally,
		&r.Cancelled,
		&durationMS,
		&createdAt,
	); err != nil {
		return r, err
	}

	if players != "" {
		r.Players = strings.Split(players, ",")
	}
	t, err := splitInts(tally)
	if err != nil {
		return r, fmt.Errorf("bad tally %q: %w", tally, err)
	}
	r.Tally = t
	r.Duration = time.Duration(durationMS) * time.Millisecond

	// Parse the datetime - handle both time.Time and string
	switch v := createdAt.(type) {
	case time.Time:
		r.CreatedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			r.CreatedAt = parsed
		}
	}

	return r, nil
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

func collectRuns(rows *sql.Rows) ([]RunRecord, error) {
	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run by its UUID. Returns nil, nil if it does not exist.
func (s *Store) RunByID(runID string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE run_id = ?`,
		runID,
	)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}

	return &r, nil
}

// StrategyWins returns the total number of games won by strategyID across
// every stored run.
func (s *Store) StrategyWins(strategyID string) (int, error) {
	stats, err := s.StrategyStats()
	if err != nil {
		return 0, err
	}
	for _, st := range stats {
		if st.StrategyID == strategyID {
			return st.Wins, nil
		}
	}
	return 0, nil
}

// StrategyStats aggregates every stored run per strategy, sorted by wins
// descending then ID.
func (s *Store) StrategyStats() ([]StrategyStats, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM runs`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*StrategyStats)
	for _, r := range runs {
		for seat, id := range r.Players {
			st, ok := byID[id]
			if !ok {
				st = &StrategyStats{StrategyID: id}
				byID[id] = st
			}
			st.Seats++
			st.Games += r.GamesPlayed
			if seat < len(r.Tally) {
				st.Wins += r.Tally[seat]
			}
		}
	}

	stats := make([]StrategyStats, 0, len(byID))
	for _, st := range byID {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Wins != stats[j].Wins {
			return stats[i].Wins > stats[j].Wins
		}
		return stats[i].StrategyID < stats[j].StrategyID
	})

	return stats, nil
}

// ClearRuns deletes every stored run.
func (s *Store) ClearRuns() error {
	if _, err := s.db.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	xs := make([]int, len(parts))
	for i, p := range parts {
		x, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	return xs, nil
}
