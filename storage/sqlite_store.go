package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rosterload/adminapi"
)

// Fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrRunNotFound = errors.New("run not found")

// Run is one completed submit as recorded in the history database.
type Run struct {
	ID            string
	CreatedAt     time.Time
	SourceFile    string
	Mode          string
	PrimaryKey    string
	TotalReceived int
	CreatedCount  *int
	UpdatedCount  *int
	RowCount      int
}

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source_file TEXT NOT NULL,
	mode TEXT NOT NULL,
	primary_key TEXT NOT NULL DEFAULT '',
	total_received INTEGER NOT NULL CHECK(total_received >= 0),
	created_count INTEGER,
	updated_count INTEGER
);
CREATE TABLE IF NOT EXISTS run_results (
	run_id TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	student_id TEXT NOT NULL DEFAULT '',
	provided TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	PRIMARY KEY(run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun stores run and every row of result in one transaction. A missing
// ID or CreatedAt is filled in; the stored run is returned.
func (s *SQLiteStore) SaveRun(run Run, result *adminapi.UploadResult) (Run, error) {
	if result == nil {
		return Run{}, fmt.Errorf("upload result is required")
	}
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.TotalReceived = result.TotalReceived
	run.CreatedCount = result.CreatedCount
	run.UpdatedCount = result.UpdatedCount
	run.RowCount = len(result.Results)

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin transaction: %w", err)
	}

	const insertRun = `
INSERT INTO runs (
	id,
	created_at,
	source_file,
	mode,
	primary_key,
	total_received,
	created_count,
	updated_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	if _, err := tx.Exec(
		insertRun,
		run.ID,
		run.CreatedAt.Format(timeLayout),
		run.SourceFile,
		run.Mode,
		run.PrimaryKey,
		run.TotalReceived,
		nullableInt(run.CreatedCount),
		nullableInt(run.UpdatedCount),
	); err != nil {
		_ = tx.Rollback()
		return Run{}, fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	const insertResult = `
INSERT INTO run_results (
	run_id,
	row_index,
	status,
	message,
	email,
	student_id,
	provided,
	position
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertResult)
	if err != nil {
		_ = tx.Rollback()
		return Run{}, fmt.Errorf("prepare result statement: %w", err)
	}
	defer stmt.Close()

	for position, row := range result.Results {
		if _, err := stmt.Exec(
			run.ID,
			row.Index,
			row.Status,
			row.Message,
			row.Email,
			string(row.StudentID),
			row.ProvidedText(),
			position,
		); err != nil {
			_ = tx.Rollback()
			return Run{}, fmt.Errorf("insert result row %d: %w", row.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit transaction: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	query := `
SELECT
	r.id,
	r.created_at,
	r.source_file,
	r.mode,
	r.primary_key,
	r.total_received,
	r.created_count,
	r.updated_count,
	(SELECT COUNT(*) FROM run_results rr WHERE rr.run_id = r.id)
FROM runs r
ORDER BY r.created_at DESC, r.id`
	args := []any{}
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, 16)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the stored run and its result set rebuilt in submit order.
func (s *SQLiteStore) GetRun(id string) (Run, *adminapi.UploadResult, error) {
	const query = `
SELECT
	r.id,
	r.created_at,
	r.source_file,
	r.mode,
	r.primary_key,
	r.total_received,
	r.created_count,
	r.updated_count,
	(SELECT COUNT(*) FROM run_results rr WHERE rr.run_id = r.id)
FROM runs r
WHERE r.id = ?;`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return Run{}, nil, err
	}

	rows, err := s.db.Query(`
SELECT row_index, status, message, email, student_id, provided
FROM run_results
WHERE run_id = ?
ORDER BY position;`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query results for run %s: %w", id, err)
	}
	defer rows.Close()

	result := &adminapi.UploadResult{
		TotalReceived: run.TotalReceived,
		CreatedCount:  run.CreatedCount,
		UpdatedCount:  run.UpdatedCount,
		Results:       make([]adminapi.RowResult, 0, run.RowCount),
	}
	for rows.Next() {
		var (
			row       adminapi.RowResult
			studentID string
			provided  string
		)
		if err := rows.Scan(&row.Index, &row.Status, &row.Message, &row.Email, &studentID, &provided); err != nil {
			return Run{}, nil, fmt.Errorf("scan result row: %w", err)
		}
		row.StudentID = adminapi.FlexibleString(studentID)
		if provided != "" {
			row.Provided = []byte(provided)
		}
		result.Results = append(result.Results, row)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return run, result, nil
}

// DeleteRun removes a run and its rows. It reports false when nothing matched.
func (s *SQLiteStore) DeleteRun(id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM run_results WHERE run_id = ?;`, id); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("delete results for run %s: %w", id, err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?;`, id)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("delete run %s: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("read deleted row count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete transaction: %w", err)
	}
	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (Run, error) {
	var (
		run          Run
		createdRaw   string
		createdCount sql.NullInt64
		updatedCount sql.NullInt64
	)
	if err := scanner.Scan(
		&run.ID,
		&createdRaw,
		&run.SourceFile,
		&run.Mode,
		&run.PrimaryKey,
		&run.TotalReceived,
		&createdCount,
		&updatedCount,
		&run.RowCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	createdAt, err := time.Parse(timeLayout, createdRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	run.CreatedAt = createdAt
	run.CreatedCount = intPointer(createdCount)
	run.UpdatedCount = intPointer(updatedCount)
	return run, nil
}

func nullableInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func intPointer(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
