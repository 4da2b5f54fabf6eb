// Package journal records sequence updates in an append-only SQLite table
// for post-hoc inspection. It is an audit sink only: nothing here restores
// or resumes a run.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davidroman0O/gosequence"
)

const schema = `
CREATE TABLE IF NOT EXISTS sequence_updates (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence_id   TEXT NOT NULL,
	sequence_name TEXT NOT NULL,
	type          TEXT NOT NULL,
	stage         TEXT NOT NULL DEFAULT '',
	success       INTEGER,
	extra         TEXT,
	recorded_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sequence_updates_id ON sequence_updates (sequence_id, seq);
`

// Entry is one recorded update.
type Entry struct {
	Seq          int64
	SequenceID   string
	SequenceName string
	Type         string
	Stage        string
	Success      sql.NullBool
	Extra        sql.NullString
	RecordedAt   time.Time
}

// Recorder appends sequence updates to a SQLite database.
type Recorder struct {
	db *sql.DB

	mu  sync.Mutex
	err error
}

// Open creates or opens the journal database at path and ensures the
// schema exists.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// modernc sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Record subscribes to the sequence's update stream and appends every
// update it emits. Call it before Start so nothing is missed. The returned
// channel closes once the run has ended and every update is written.
func (r *Recorder) Record(s *gosequence.Sequence) <-chan struct{} {
	ch, _ := s.Updates()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			if err := r.insert(s, u); err != nil {
				r.setErr(err)
			}
		}
	}()
	return done
}

func (r *Recorder) insert(s *gosequence.Sequence, u gosequence.SequenceUpdate) error {
	var success any
	if u.Success != nil {
		success = *u.Success
	}
	var extra any
	if u.Extra != nil {
		if data, err := json.Marshal(u.Extra); err == nil {
			extra = string(data)
		} else {
			extra = fmt.Sprintf("%v", u.Extra)
		}
	}

	_, err := r.db.Exec(
		`INSERT INTO sequence_updates (sequence_id, sequence_name, type, stage, success, extra, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID(), s.Name(), u.Type.String(), string(u.Stage), success, extra, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record update: %w", err)
	}
	return nil
}

// Updates returns every recorded entry for the given sequence ID, oldest
// first.
func (r *Recorder) Updates(sequenceID string) ([]Entry, error) {
	rows, err := r.db.Query(
		`SELECT seq, sequence_id, sequence_name, type, stage, success, extra, recorded_at
		 FROM sequence_updates WHERE sequence_id = ? ORDER BY seq`,
		sequenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.SequenceID, &e.SequenceName, &e.Type, &e.Stage, &e.Success, &e.Extra, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Err returns the first write error encountered while recording, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
