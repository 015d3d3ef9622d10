// ════════════════════════════════════════════════════════════════════════════════════════════════
// ATTEMPT LOG
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: SQLite record of attempts and found cycles
//
// Description:
//   Every reported attempt becomes one row tagged with the run that produced it; solved
//   attempts also store their proof as a comma-separated index list. Writes go through
//   prepared statements created once at Open.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package store

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"cuckminer/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS attempts(
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT NOT NULL REFERENCES runs(id),
	height  INTEGER NOT NULL,
	job_id  INTEGER NOT NULL,
	nonce   INTEGER NOT NULL,
	solved  INTEGER NOT NULL,
	proof   TEXT,
	at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_solved ON attempts(solved, height);
`

// Store logs attempts of one run. Safe for concurrent Report calls.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	insert *sql.Stmt
	run    uuid.UUID
}

// Solution is one stored solved attempt.
type Solution struct {
	RunID string
	report.Result
}

// Open creates or opens the database at path and starts a new run.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "store: open "+path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: schema")
	}

	run := uuid.New()
	if _, err := db.Exec(`INSERT INTO runs(id, started_at) VALUES(?, ?)`, run.String(), time.Now().Unix()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: register run")
	}
	insert, err := db.Prepare(`INSERT INTO attempts(run_id, height, job_id, nonce, solved, proof, at) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: prepare insert")
	}
	return &Store{db: db, insert: insert, run: run}, nil
}

// RunID identifies the run this store writes under.
func (s *Store) RunID() string { return s.run.String() }

// Report implements report.Reporter.
func (s *Store) Report(r report.Result) error {
	var proof sql.NullString
	solved := 0
	if r.Solved() {
		proof = sql.NullString{String: formatProof(r.Proof), Valid: true}
		solved = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.insert.Exec(s.run.String(), int64(r.Height), int64(r.JobID), int64(r.Nonce), solved, proof, time.Now().Unix())
	return errors.Wrap(err, "store: insert attempt")
}

// Attempts returns how many attempts this run has logged.
func (s *Store) Attempts() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM attempts WHERE run_id = ?`, s.run.String()).Scan(&n)
	return n, errors.Wrap(err, "store: count attempts")
}

// Solutions returns every solved attempt across runs, oldest first.
func (s *Store) Solutions() ([]Solution, error) {
	rows, err := s.db.Query(`SELECT run_id, height, job_id, nonce, proof FROM attempts WHERE solved = 1 ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "store: query solutions")
	}
	defer rows.Close()

	var out []Solution
	for rows.Next() {
		var (
			sol                Solution
			height, job, nonce int64
			proof              string
		)
		if err := rows.Scan(&sol.RunID, &height, &job, &nonce, &proof); err != nil {
			return nil, errors.Wrap(err, "store: scan solution")
		}
		sol.Height, sol.JobID, sol.Nonce = uint64(height), uint64(job), uint64(nonce)
		if sol.Proof, err = parseProof(proof); err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, errors.Wrap(rows.Err(), "store: iterate solutions")
}

// Close releases the database.
func (s *Store) Close() error {
	s.insert.Close()
	return s.db.Close()
}

func formatProof(p []uint32) string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}

func parseProof(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	out := make([]uint32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "store: parse proof")
		}
		out[i] = uint32(v)
	}
	return out, nil
}
