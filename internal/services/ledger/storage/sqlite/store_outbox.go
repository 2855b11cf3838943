package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
)

const (
	outboxDeadLetterThreshold = 8
	outboxProcessingLease     = 2 * time.Minute
)

func (t *txStore) enqueueNotification(ctx context.Context, evt event.Event) error {
	enqueuedAt := toMillis(t.store.now())
	if _, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO notification_outbox (seq, event_type, status, attempt_count, next_attempt_at, last_error, updated_at)
		 VALUES (?, ?, 'pending', 0, ?, '', ?)
		 ON CONFLICT(seq) DO NOTHING`,
		int64(evt.Seq),
		string(evt.Type),
		enqueuedAt,
		enqueuedAt,
	); err != nil {
		return fmt.Errorf("enqueue notification outbox: %w", err)
	}
	return nil
}

type outboxRow struct {
	Seq          uint64
	EventType    string
	AttemptCount int
}

// OutboxSummary reports notification queue depth by status.
type OutboxSummary struct {
	PendingCount    int
	ProcessingCount int
	FailedCount     int
	DeadCount       int
	OldestPendingAt time.Time
}

// NotificationOutboxSummary returns queue depth and the oldest retry-eligible row.
func (s *Store) NotificationOutboxSummary(ctx context.Context) (OutboxSummary, error) {
	if err := ctx.Err(); err != nil {
		return OutboxSummary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return OutboxSummary{}, fmt.Errorf("storage is not configured")
	}

	summary := OutboxSummary{}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT status, COUNT(*) FROM notification_outbox GROUP BY status`)
	if err != nil {
		return OutboxSummary{}, fmt.Errorf("query outbox summary counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return OutboxSummary{}, fmt.Errorf("scan outbox summary count: %w", err)
		}
		switch status {
		case "pending":
			summary.PendingCount = count
		case "processing":
			summary.ProcessingCount = count
		case "failed":
			summary.FailedCount = count
		case "dead":
			summary.DeadCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return OutboxSummary{}, fmt.Errorf("iterate outbox summary counts: %w", err)
	}

	var nextAttempt int64
	err = s.sqlDB.QueryRowContext(
		ctx,
		`SELECT next_attempt_at
		   FROM notification_outbox
		  WHERE status IN ('pending', 'failed')
		  ORDER BY next_attempt_at ASC, seq ASC
		  LIMIT 1`,
	).Scan(&nextAttempt)
	if err == nil {
		summary.OldestPendingAt = fromMillis(nextAttempt)
		return summary, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return summary, nil
	}
	return OutboxSummary{}, fmt.Errorf("query oldest pending outbox row: %w", err)
}

// ProcessNotificationOutbox claims due outbox rows and hands each stored
// event to deliver. Delivered rows are removed; failures are retried with
// exponential backoff and dead-lettered after repeated failures.
func (s *Store) ProcessNotificationOutbox(
	ctx context.Context,
	now time.Time,
	limit int,
	deliver func(context.Context, event.Event) error,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if deliver == nil {
		return 0, fmt.Errorf("notification deliver callback is required")
	}
	if limit <= 0 {
		return 0, nil
	}
	if now.IsZero() {
		now = s.now().UTC()
	}

	rows, err := s.claimOutboxDue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, row := range rows {
		storedEvent, loadErr := s.GetEventBySeq(ctx, row.Seq)
		if loadErr != nil {
			if err := s.markOutboxRetry(ctx, row, now, fmt.Sprintf("load event: %v", loadErr)); err != nil {
				return processed, err
			}
			processed++
			continue
		}
		if deliverErr := deliver(ctx, storedEvent); deliverErr != nil {
			if err := s.markOutboxRetry(ctx, row, now, fmt.Sprintf("deliver: %v", deliverErr)); err != nil {
				return processed, err
			}
			processed++
			continue
		}
		if err := s.completeOutboxRow(ctx, row); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (s *Store) claimOutboxDue(ctx context.Context, now time.Time, limit int) ([]outboxRow, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin outbox claim tx: %w", err)
	}
	defer tx.Rollback()

	staleBefore := now.Add(-outboxProcessingLease)
	rows, err := tx.QueryContext(
		ctx,
		`SELECT seq, event_type, attempt_count
		   FROM notification_outbox
		  WHERE (status IN ('pending', 'failed') AND next_attempt_at <= ?)
		     OR (status = 'processing' AND updated_at <= ?)
		  ORDER BY next_attempt_at, seq
		  LIMIT ?`,
		toMillis(now),
		toMillis(staleBefore),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due outbox rows: %w", err)
	}
	candidates := make([]outboxRow, 0, limit)
	for rows.Next() {
		var (
			row outboxRow
			seq int64
		)
		if err := rows.Scan(&seq, &row.EventType, &row.AttemptCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan due outbox row: %w", err)
		}
		row.Seq = uint64(seq)
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate due outbox rows: %w", err)
	}
	rows.Close()

	claimed := make([]outboxRow, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE notification_outbox
			    SET status = 'processing', updated_at = ?
			  WHERE seq = ?
			    AND ((status IN ('pending', 'failed') AND next_attempt_at <= ?)
			         OR (status = 'processing' AND updated_at <= ?))`,
			toMillis(now),
			int64(candidate.Seq),
			toMillis(now),
			toMillis(staleBefore),
		)
		if err != nil {
			return nil, fmt.Errorf("claim outbox row %d: %w", candidate.Seq, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim outbox row rows affected %d: %w", candidate.Seq, err)
		}
		if affected == 1 {
			claimed = append(claimed, candidate)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit outbox claim tx: %w", err)
	}
	return claimed, nil
}

func (s *Store) markOutboxRetry(ctx context.Context, row outboxRow, now time.Time, lastError string) error {
	attempt := row.AttemptCount + 1
	status := "failed"
	if attempt >= outboxDeadLetterThreshold {
		status = "dead"
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE notification_outbox
		    SET status = ?, attempt_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
		  WHERE seq = ? AND status = 'processing'`,
		status,
		attempt,
		toMillis(now.Add(outboxRetryBackoff(attempt))),
		lastError,
		toMillis(now),
		int64(row.Seq),
	)
	if err != nil {
		return fmt.Errorf("mark outbox retry for row %d: %w", row.Seq, err)
	}
	return ensureOutboxSingleRow(result, row, "mark outbox retry for row")
}

func (s *Store) completeOutboxRow(ctx context.Context, row outboxRow) error {
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM notification_outbox WHERE seq = ? AND status = 'processing'`,
		int64(row.Seq),
	)
	if err != nil {
		return fmt.Errorf("complete outbox row %d: %w", row.Seq, err)
	}
	return ensureOutboxSingleRow(result, row, "complete outbox row")
}

func ensureOutboxSingleRow(result sql.Result, row outboxRow, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected %d: %w", operation, row.Seq, err)
	}
	if affected != 1 {
		return fmt.Errorf("%s %d: expected 1 row, got %d", operation, row.Seq, affected)
	}
	return nil
}

// RequeueDeadNotifications moves up to limit dead rows back to pending.
func (s *Store) RequeueDeadNotifications(ctx context.Context, limit int, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return 0, fmt.Errorf("outbox requeue limit must be greater than zero")
	}
	if now.IsZero() {
		now = s.now().UTC()
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE notification_outbox
		    SET status = 'pending', attempt_count = 0, next_attempt_at = ?, last_error = '', updated_at = ?
		  WHERE seq IN (
		        SELECT seq FROM notification_outbox
		         WHERE status = 'dead'
		         ORDER BY next_attempt_at ASC, seq ASC
		         LIMIT ?
		  )`,
		toMillis(now),
		toMillis(now),
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows affected: %w", err)
	}
	return int(affected), nil
}

// OutboxEntry describes one outbox row for inspection tooling.
type OutboxEntry struct {
	Seq           uint64
	EventType     event.Type
	Status        string
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
}

// ListNotificationOutbox lists outbox rows, optionally filtered by status.
func (s *Store) ListNotificationOutbox(ctx context.Context, status string, limit int) ([]OutboxEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return []OutboxEntry{}, nil
	}
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", "pending", "processing", "failed", "dead":
	default:
		return nil, fmt.Errorf("invalid outbox status %q", status)
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, event_type, status, attempt_count, next_attempt_at, last_error
		   FROM notification_outbox
		  WHERE ? = '' OR status = ?
		  ORDER BY next_attempt_at ASC, seq ASC
		  LIMIT ?`,
		status,
		status,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list outbox rows: %w", err)
	}
	defer rows.Close()

	entries := make([]OutboxEntry, 0, limit)
	for rows.Next() {
		var (
			entry       OutboxEntry
			seq         int64
			eventType   string
			nextAttempt int64
		)
		if err := rows.Scan(&seq, &eventType, &entry.Status, &entry.AttemptCount, &nextAttempt, &entry.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		entry.Seq = uint64(seq)
		entry.EventType = event.Type(eventType)
		entry.NextAttemptAt = fromMillis(nextAttempt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return entries, nil
}

func outboxRetryBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Second << (attempt - 1)
	if backoff > 5*time.Minute {
		return 5 * time.Minute
	}
	return backoff
}
