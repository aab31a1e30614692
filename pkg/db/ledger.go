// Run ledger: a small sqlite table recording every pipeline run, so
// operators can see what was produced for which input without digging
// through output directories.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
)

var ErrNoSuchRun = errors.New("no such run")

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type Run struct {
	ID         string
	Input      string
	Chains     int
	Status     string
	OutputPath string
	ErrMsg     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

type RunLedger struct {
	DB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
    run_id      TEXT PRIMARY KEY,
    input_name  TEXT NOT NULL,
    num_chains  INTEGER NOT NULL,
    status      TEXT NOT NULL,
    output_path TEXT NOT NULL DEFAULT '',
    err_msg     TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);`

// OpenLedger opens (creating if needed) the ledger database.
func OpenLedger(fpath string) (*RunLedger, error) {

	if err := os.MkdirAll(path.Dir(fpath), 0755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	sqldb, err := sql.Open("sqlite", fpath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if _, err := sqldb.Exec(schema); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &RunLedger{DB: sqldb}, nil
}

func (l *RunLedger) Close() error {
	return l.DB.Close()
}

// Begin records a new run and returns its id.
func (l *RunLedger) Begin(ctx context.Context, input string, chains int) (string, error) {

	run_id := uuid.NewString()

	qstring := `insert into pipeline_runs
	            (run_id, input_name, num_chains, status, started_at)
	            values (?, ?, ?, ?, ?);`

	_, err := l.DB.ExecContext(ctx, qstring, run_id, input, chains, StatusRunning, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}

	return run_id, nil
}

// Finish closes out a run with its final status.
func (l *RunLedger) Finish(ctx context.Context, run_id, status, output_path, err_msg string) error {

	qstring := `update pipeline_runs
	            set status = ?, output_path = ?, err_msg = ?, finished_at = ?
	            where run_id = ?;`

	res, err := l.DB.ExecContext(ctx, qstring, status, output_path, err_msg, time.Now().UTC(), run_id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchRun, run_id)
	}

	return nil
}

// Recent returns the latest runs, newest first.
func (l *RunLedger) Recent(ctx context.Context, limit int) ([]Run, error) {

	qstring := `select run_id, input_name, num_chains, status, output_path, err_msg, started_at, finished_at
	            from pipeline_runs order by started_at desc limit ?;`

	stm, err := l.DB.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run

	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Input, &r.Chains, &r.Status, &r.OutputPath,
			&r.ErrMsg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}
