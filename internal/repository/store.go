package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"podboard/internal/domain"
)

// ErrUnknownSubmission is returned when finishing a submission that does
// not exist or has already finished.
var ErrUnknownSubmission = errors.New("unknown or finished submission")

// Store records calls to the processing function.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Begin records a running submission for feedURL and returns its ID.
func (s *Store) Begin(ctx context.Context, feedURL string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO submissions (feed_url, status, started_at)
VALUES (?, ?, ?)`, feedURL, domain.SubmissionRunning, s.timestamp())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Succeed marks a running submission as finished with a record titled title.
func (s *Store) Succeed(ctx context.Context, id int64, title string) error {
	return s.finish(ctx, id, domain.SubmissionSucceeded, title, "")
}

// Fail marks a running submission as failed.
func (s *Store) Fail(ctx context.Context, id int64, reason string) error {
	return s.finish(ctx, id, domain.SubmissionFailed, "", reason)
}

func (s *Store) finish(ctx context.Context, id int64, status, title, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions
SET status = ?, result_title = NULLIF(?, ''), error = NULLIF(?, ''), finished_at = ?
WHERE id = ? AND status = ?`, status, title, reason, s.timestamp(), id, domain.SubmissionRunning)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUnknownSubmission
	}
	return nil
}

// Running reports whether a submission for feedURL is still in flight.
func (s *Store) Running(ctx context.Context, feedURL string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE feed_url = ? AND status = ?`,
		feedURL, domain.SubmissionRunning).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AbandonRunning fails every submission left running by a previous session
// and returns how many were changed.
func (s *Store) AbandonRunning(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions
SET status = ?, error = 'interrupted before completion', finished_at = ?
WHERE status = ?`, domain.SubmissionFailed, s.timestamp(), domain.SubmissionRunning)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// Recent returns up to limit submissions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, feed_url, status, COALESCE(result_title, ''), COALESCE(error, ''), started_at, finished_at
FROM submissions
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Submission, 0, limit)
	for rows.Next() {
		var sub domain.Submission
		var started string
		var finished sql.NullString
		if err := rows.Scan(&sub.ID, &sub.FeedURL, &sub.Status, &sub.ResultTitle, &sub.Error, &started, &finished); err != nil {
			return nil, err
		}
		sub.StartedAt, _ = parseTimestamp(started)
		if finished.Valid {
			if parsed, err := parseTimestamp(finished.String); err == nil {
				sub.FinishedAt = parsed
				sub.HasFinished = true
			}
		}
		results = append(results, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
