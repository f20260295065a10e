package trackers

import (
	"database/sql"
	"fmt"
	"math"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samuelfneumann/selftrigger/agent/nonlinear/continuous/selfddpg"
	ts "github.com/samuelfneumann/selftrigger/timestep"
)

// flushEvery is the number of buffered rows after which an SQLite
// Tracker writes its rows to the database
const flushEvery = 1000

type episodeRow struct {
	episode int
	steps   int
	elapsed float64
	ret     float64
}

type metricRow struct {
	step  int
	name  string
	value float64
}

type gradientRow struct {
	step                     int
	critic, action, interval float64
}

// SQLite is a Tracker which stores experiment data in an SQLite
// database. Finished episodes are stored in the episodes table, the
// metrics an agent returns after each decision in the metrics table,
// and the gradient norms of each training step in the gradients table.
// SQLite is a selfddpg.Hook so that it can be attached to an agent to
// receive gradient norms.
//
// Rows are buffered and written in a single transaction every
// flushEvery rows and on Save. The first error encountered while
// writing is returned by Save, and once an error occurs nothing more
// is written.
type SQLite struct {
	mutex sync.Mutex
	db    *sql.DB
	err   error

	episode       int
	currentReturn float64
	episodes      []episodeRow
	metrics       []metricRow
	gradients     []gradientRow
}

// NewSQLite opens or creates the database at path and returns an
// SQLite Tracker writing to it
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("newsqlite: %v", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("newsqlite: %v", err)
	}
	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS episodes (
			episode INTEGER PRIMARY KEY,
			steps INTEGER NOT NULL,
			elapsed REAL NOT NULL,
			episode_return REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			step INTEGER NOT NULL,
			name TEXT NOT NULL,
			value REAL,
			PRIMARY KEY(step, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name ON metrics(name);`,
		`CREATE TABLE IF NOT EXISTS gradients (
			step INTEGER PRIMARY KEY,
			critic_norm REAL,
			action_norm REAL,
			interval_norm REAL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// nullable maps NaN, which SQLite cannot store, to NULL
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// Track caches the return, number of decisions and simulated time of
// each finished episode
func (s *SQLite) Track(step ts.TimeStep) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if step.First() {
		s.currentReturn = 0
		return
	}
	s.currentReturn += step.Reward

	if step.Last() {
		s.episodes = append(s.episodes, episodeRow{
			episode: s.episode,
			steps:   step.Number,
			elapsed: step.Elapsed,
			ret:     s.currentReturn,
		})
		s.episode++
		s.currentReturn = 0
		s.flushIfFull()
	}
}

// TrackMetrics caches the metrics returned by an agent on a decision
// step. Steps on which the agent did not learn are skipped.
func (s *SQLite) TrackMetrics(step int, names []string, metrics []float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	learned := false
	for _, m := range metrics {
		if !math.IsNaN(m) {
			learned = true
			break
		}
	}
	if !learned {
		return
	}

	for i := range metrics {
		if i >= len(names) {
			break
		}
		s.metrics = append(s.metrics, metricRow{step, names[i], metrics[i]})
	}
	s.flushIfFull()
}

// Record implements the selfddpg.Hook interface, caching the gradient
// norms of a training step
func (s *SQLite) Record(info selfddpg.TrainInfo) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.gradients = append(s.gradients, gradientRow{
		step:     info.Step,
		critic:   info.CriticGradNorm,
		action:   info.ActionGradNorm,
		interval: info.IntervalGradNorm,
	})
	s.flushIfFull()
}

func (s *SQLite) flushIfFull() {
	if len(s.episodes)+len(s.metrics)+len(s.gradients) >= flushEvery {
		s.flush()
	}
}

// flush writes all buffered rows in a single transaction. The caller
// must hold the mutex.
func (s *SQLite) flush() {
	if s.err != nil {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		s.err = err
		return
	}

	if err := s.write(tx); err != nil {
		_ = tx.Rollback()
		s.err = err
		return
	}
	if err := tx.Commit(); err != nil {
		s.err = err
		return
	}

	s.episodes = s.episodes[:0]
	s.metrics = s.metrics[:0]
	s.gradients = s.gradients[:0]
}

func (s *SQLite) write(tx *sql.Tx) error {
	for _, e := range s.episodes {
		_, err := tx.Exec(`INSERT OR REPLACE INTO episodes(episode, steps,
			elapsed, episode_return) VALUES(?, ?, ?, ?)`, e.episode, e.steps,
			e.elapsed, e.ret)
		if err != nil {
			return err
		}
	}

	for _, m := range s.metrics {
		_, err := tx.Exec(`INSERT OR REPLACE INTO metrics(step, name, value)
			VALUES(?, ?, ?)`, m.step, m.name, nullable(m.value))
		if err != nil {
			return err
		}
	}

	for _, g := range s.gradients {
		_, err := tx.Exec(`INSERT OR REPLACE INTO gradients(step,
			critic_norm, action_norm, interval_norm) VALUES(?, ?, ?, ?)`,
			g.step, nullable(g.critic), nullable(g.action),
			nullable(g.interval))
		if err != nil {
			return err
		}
	}
	return nil
}

// Save writes all buffered rows to the database
func (s *SQLite) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.flush()
	if s.err != nil {
		return fmt.Errorf("save: %v", s.err)
	}
	return nil
}

// DB returns the underlying database so that tracked data can be
// queried
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close saves all buffered rows and closes the database
func (s *SQLite) Close() error {
	saveErr := s.Save()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return saveErr
}
