package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const operationColumns = "id, operation_id, kind, status, source, output_dir, total_files, completed_files, error_message, result_json, created_at, updated_at, started_at, finished_at"

// ErrUnknownOperation is returned by mutations targeting an operation id
// with no journal row.
var ErrUnknownOperation = errors.New("unknown operation")

// NewOperation inserts a pending row for an operation about to start.
func (s *Store) NewOperation(ctx context.Context, operationID string, kind Kind, source, outputDir string) (*Operation, error) {
	if operationID == "" {
		return nil, errors.New("operation id required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO operations (
            operation_id, kind, status, source, output_dir,
            total_files, completed_files, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		operationID,
		string(kind),
		string(StatusPending),
		nullableString(source),
		nullableString(outputDir),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert operation: %w", err)
	}

	return s.GetByOperationID(ctx, operationID)
}

// MarkRunning records that the worker process has started.
func (s *Store) MarkRunning(ctx context.Context, operationID string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE operations SET status = ?, started_at = ?, updated_at = ? WHERE operation_id = ?`,
		string(StatusRunning),
		timestamp,
		timestamp,
		operationID,
	)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return requireRow(res, operationID)
}

// UpdateProgress persists batch counters for a running operation.
func (s *Store) UpdateProgress(ctx context.Context, operationID string, completed, total int) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE operations SET completed_files = ?, total_files = ?, updated_at = ? WHERE operation_id = ?`,
		completed,
		total,
		timestamp,
		operationID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireRow(res, operationID)
}

// MarkFinished records the terminal status and result of an operation.
func (s *Store) MarkFinished(ctx context.Context, operationID string, status Status, errorMessage, resultJSON string) error {
	if status != StatusSucceeded && status != StatusFailed {
		return fmt.Errorf("status %q is not terminal", status)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE operations SET status = ?, error_message = ?, result_json = ?, finished_at = ?, updated_at = ? WHERE operation_id = ?`,
		string(status),
		nullableString(errorMessage),
		nullableString(resultJSON),
		timestamp,
		timestamp,
		operationID,
	)
	if err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	return requireRow(res, operationID)
}

// GetByOperationID fetches a journal row; nil when the id is unknown.
func (s *Store) GetByOperationID(ctx context.Context, operationID string) (*Operation, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE operation_id = ?`, operationID)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

// List returns the most recent operations, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Operation, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+operationColumns+` FROM operations ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// Stats counts journal rows per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM operations GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch Status(status) {
		case StatusPending:
			stats.Pending = count
		case StatusRunning:
			stats.Running = count
		case StatusSucceeded:
			stats.Succeeded = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func requireRow(res sql.Result, operationID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, operationID)
	}
	return nil
}

func scanOperation(scanner interface{ Scan(dest ...any) error }) (*Operation, error) {
	var (
		id             int64
		operationID    string
		kind           string
		status         string
		source         sql.NullString
		outputDir      sql.NullString
		totalFiles     int
		completedFiles int
		errorMessage   sql.NullString
		resultJSON     sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		startedRaw     sql.NullString
		finishedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&operationID,
		&kind,
		&status,
		&source,
		&outputDir,
		&totalFiles,
		&completedFiles,
		&errorMessage,
		&resultJSON,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	op := &Operation{
		ID:             id,
		OperationID:    operationID,
		Kind:           Kind(kind),
		Status:         Status(status),
		Source:         source.String,
		OutputDir:      outputDir.String,
		TotalFiles:     totalFiles,
		CompletedFiles: completedFiles,
		ErrorMessage:   errorMessage.String,
		ResultJSON:     resultJSON.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		op.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		op.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			op.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			op.FinishedAt = &finished
		}
	}
	return op, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
