package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/docksort/internal/organizer"
)

// timeLayout is fixed width so stored timestamps sort as text. Columns are
// declared TEXT so the driver hands them back unparsed.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Pass operations

// RecordReport stores an applied pass and one row per move in a single
// transaction. Reports of empty plans are not recorded.
func (s *Store) RecordReport(report *organizer.Report) error {
	if report == nil || report.Plan.Empty() {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	moved, dups, failed := report.Counts()
	_, err = tx.Exec(`
		INSERT INTO passes
		(id, mode, started_at, finished_at, planned, moved, duplicates, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Plan.ID,
		string(report.Plan.Mode),
		formatTime(report.Started),
		formatTime(report.Finished),
		len(report.Plan.Entries),
		moved,
		dups,
		failed,
	)
	if err != nil {
		return wrapErr(err, "failed to insert pass %s", report.Plan.ID)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO moves
		(pass_id, source, target, category, from_category, is_dir, size_bytes, outcome, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return wrapErr(err, "failed to prepare move insert")
	}
	defer stmt.Close()

	recordedAt := formatTime(report.Finished)
	for _, res := range report.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		_, err := stmt.Exec(
			report.Plan.ID,
			res.Entry.Item.Path,
			res.Entry.Target.Path,
			res.Entry.Category.String(),
			res.Entry.From,
			res.Entry.Item.IsDir,
			res.Entry.Item.Size,
			string(res.Outcome),
			errText,
			recordedAt,
		)
		if err != nil {
			return wrapErr(err, "failed to insert move %s", res.Entry.Item.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pass %s: %w", report.Plan.ID, err)
	}
	return nil
}

// ListPasses returns the most recent passes, newest first. A limit of zero
// or less returns every pass.
func (s *Store) ListPasses(limit int) ([]*Pass, error) {
	query := `
		SELECT id, mode, started_at, finished_at, planned, moved, duplicates, failed
		FROM passes
		ORDER BY started_at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr(err, "failed to list passes")
	}
	defer rows.Close()

	var passes []*Pass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating passes: %w", err)
	}

	return passes, nil
}

// LastPass returns the most recent pass, or nil if none was recorded.
func (s *Store) LastPass() (*Pass, error) {
	passes, err := s.ListPasses(1)
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, nil
	}
	return passes[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (*Pass, error) {
	var p Pass
	var startedAt, finishedAt string
	err := row.Scan(
		&p.ID,
		&p.Mode,
		&startedAt,
		&finishedAt,
		&p.Planned,
		&p.Moved,
		&p.Duplicates,
		&p.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pass row: %w", err)
	}

	if p.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at for %s: %w", p.ID, err)
	}
	if p.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at for %s: %w", p.ID, err)
	}
	return &p, nil
}

// Move operations

// ListMoves returns the most recent moves, newest first. With failedOnly
// set only failed moves are returned. A limit of zero or less returns
// every matching move.
func (s *Store) ListMoves(limit int, failedOnly bool) ([]*Move, error) {
	query := `
		SELECT id, pass_id, source, target, category, from_category, is_dir, size_bytes, outcome, error, recorded_at
		FROM moves
	`
	var args []any
	if failedOnly {
		query += " WHERE outcome = ?"
		args = append(args, string(organizer.OutcomeFailed))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryMoves(query, args...)
}

// GetPassMoves returns the moves of one pass in the order they were
// applied.
func (s *Store) GetPassMoves(passID string) ([]*Move, error) {
	query := `
		SELECT id, pass_id, source, target, category, from_category, is_dir, size_bytes, outcome, error, recorded_at
		FROM moves
		WHERE pass_id = ?
		ORDER BY id
	`
	return s.queryMoves(query, passID)
}

func (s *Store) queryMoves(query string, args ...any) ([]*Move, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr(err, "failed to list moves")
	}
	defer rows.Close()

	var moves []*Move
	for rows.Next() {
		var m Move
		var from, errText sql.NullString
		var recordedAt string

		err := rows.Scan(
			&m.ID,
			&m.PassID,
			&m.Source,
			&m.Target,
			&m.Category,
			&from,
			&m.IsDir,
			&m.SizeBytes,
			&m.Outcome,
			&errText,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move row: %w", err)
		}
		m.FromCategory = from.String
		m.Error = errText.String

		if m.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at for move %d: %w", m.ID, err)
		}

		moves = append(moves, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moves: %w", err)
	}

	return moves, nil
}

// GetTotals aggregates every recorded pass.
func (s *Store) GetTotals() (*Totals, error) {
	var t Totals
	var last sql.NullString
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(moved), 0),
		       COALESCE(SUM(duplicates), 0),
		       COALESCE(SUM(failed), 0),
		       MAX(finished_at)
		FROM passes
	`).Scan(&t.Passes, &t.Moved, &t.Duplicates, &t.Failed, &last)
	if err != nil {
		return nil, wrapErr(err, "failed to get totals")
	}

	if last.Valid && last.String != "" {
		if t.LastPassAt, err = parseTime(last.String); err != nil {
			return nil, fmt.Errorf("failed to parse last pass time: %w", err)
		}
	}
	return &t, nil
}
