package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded pipeline execution.
type Run struct {
	ID         string    `json:"id"`
	Request    string    `json:"request"`
	Success    bool      `json:"success"`
	SkillName  string    `json:"skill_name"`
	OutputPath string    `json:"output_path"`
	Confidence float64   `json:"confidence"`
	Candidates []string  `json:"candidates"`
	Components []string  `json:"components"`
	Warnings   []string  `json:"warnings"`
	Errors     []string  `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun inserts or replaces a run.
func (db *DB) RecordRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		return errors.New("run id cannot be empty")
	}
	lists := make([]string, 0, 4)
	for _, l := range [][]string{r.Candidates, r.Components, r.Warnings, r.Errors} {
		s, err := encodeList(l)
		if err != nil {
			return err
		}
		lists = append(lists, s)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, request, success, skill_name, output_path, confidence,
			candidates, components, warnings, errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Request, boolToInt(r.Success), r.SkillName, r.OutputPath, r.Confidence,
		lists[0], lists[1], lists[2], lists[3], formatTime(r.StartedAt), formatTime(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// PurgeRuns deletes runs started before cutoff and returns how many were deleted.
func (db *DB) PurgeRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = `id, request, success, skill_name, output_path, confidence,
	candidates, components, warnings, errors, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r                                      Run
		success                                int
		skill, output                          sql.NullString
		candidates, components, warnings, errs sql.NullString
		started, finished                      string
	)
	if err := row.Scan(&r.ID, &r.Request, &success, &skill, &output, &r.Confidence,
		&candidates, &components, &warnings, &errs, &started, &finished); err != nil {
		return nil, err
	}
	r.Success = success != 0
	r.SkillName = skill.String
	r.OutputPath = output.String

	var err error
	for _, f := range []struct {
		src sql.NullString
		dst *[]string
	}{
		{candidates, &r.Candidates},
		{components, &r.Components},
		{warnings, &r.Warnings},
		{errs, &r.Errors},
	} {
		if *f.dst, err = decodeList(f.src); err != nil {
			return nil, err
		}
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &r, nil
}

func encodeList(l []string) (string, error) {
	if l == nil {
		l = []string{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(s sql.NullString) ([]string, error) {
	out := []string{}
	if !s.Valid || s.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
