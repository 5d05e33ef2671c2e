package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/daisuketominaga/shinsei/internal/domain"
)

// DefaultListLimit caps how many history records a listing returns.
const DefaultListLimit = 100

// timestampLayout is RFC 3339 with fixed-width milliseconds, so stored
// timestamps sort lexicographically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SQLiteStore implements HistoryStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID mints a ULID. ulid.Make uses the package-level locked entropy
// source, so ids can be minted from concurrent request goroutines.
func newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_history (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL DEFAULT 'anonymous',
		timestamp           TEXT NOT NULL,
		business_type       TEXT NOT NULL,
		prefecture          TEXT NOT NULL,
		city                TEXT NOT NULL,
		jurisdiction        TEXT NOT NULL,
		jurisdiction_detail TEXT,
		summary             TEXT NOT NULL DEFAULT '',
		reference_url       TEXT,
		reference_name      TEXT,
		guideline_url       TEXT,
		guideline_name      TEXT,
		flow                TEXT NOT NULL DEFAULT '[]',
		checked_steps       TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_search_history_timestamp ON search_history(timestamp DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// List returns the latest records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, business_type, prefecture, city,
		       jurisdiction, COALESCE(jurisdiction_detail, ''), summary,
		       COALESCE(reference_url, ''), COALESCE(reference_name, ''),
		       COALESCE(guideline_url, ''), COALESCE(guideline_name, ''),
		       flow, checked_steps
		FROM search_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Upsert inserts or fully replaces a record by id. Records without an id get
// a server-minted ULID; the timestamp is refreshed on every write.
func (s *SQLiteStore) Upsert(ctx context.Context, rec *domain.HistoryRecord) (*domain.HistoryRecord, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.UserID == "" {
		rec.UserID = "anonymous"
	}
	rec.Timestamp = time.Now().UTC().Format(timestampLayout)

	flowJSON, err := json.Marshal(rec.Flow)
	if err != nil {
		return nil, fmt.Errorf("encode flow: %w", err)
	}
	checkedJSON, err := json.Marshal(rec.CheckedSteps)
	if err != nil {
		return nil, fmt.Errorf("encode checked steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO search_history (
			id, user_id, timestamp, business_type, prefecture, city,
			jurisdiction, jurisdiction_detail, summary,
			reference_url, reference_name, guideline_url, guideline_name,
			flow, checked_steps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			timestamp = excluded.timestamp,
			business_type = excluded.business_type,
			prefecture = excluded.prefecture,
			city = excluded.city,
			jurisdiction = excluded.jurisdiction,
			jurisdiction_detail = excluded.jurisdiction_detail,
			summary = excluded.summary,
			reference_url = excluded.reference_url,
			reference_name = excluded.reference_name,
			guideline_url = excluded.guideline_url,
			guideline_name = excluded.guideline_name,
			flow = excluded.flow,
			checked_steps = excluded.checked_steps`,
		rec.ID, rec.UserID, rec.Timestamp, rec.BusinessType, rec.Prefecture, rec.City,
		rec.Jurisdiction, rec.JurisdictionDetail, rec.Summary,
		rec.ReferenceURL, rec.ReferenceName, rec.GuidelineURL, rec.GuidelineName,
		string(flowJSON), string(checkedJSON))
	if err != nil {
		return nil, fmt.Errorf("upsert history: %w", err)
	}
	return rec, nil
}

// UpdateCheckedSteps replaces only the checklist state of a record.
func (s *SQLiteStore) UpdateCheckedSteps(ctx context.Context, id string, steps []int) (*domain.HistoryRecord, error) {
	if steps == nil {
		steps = []int{}
	}
	checkedJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode checked steps: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE search_history SET checked_steps = ? WHERE id = ?`,
		string(checkedJSON), id)
	if err != nil {
		return nil, fmt.Errorf("update checked steps: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.NewNotFoundError("指定された履歴が見つかりません")
	}
	return s.get(ctx, id)
}

// Delete removes one record by id. Deleting a missing id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// DeleteAll clears the entire history.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM search_history`)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, id string) (*domain.HistoryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, timestamp, business_type, prefecture, city,
		       jurisdiction, COALESCE(jurisdiction_detail, ''), summary,
		       COALESCE(reference_url, ''), COALESCE(reference_name, ''),
		       COALESCE(guideline_url, ''), COALESCE(guideline_name, ''),
		       flow, checked_steps
		FROM search_history WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("指定された履歴が見つかりません")
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.HistoryRecord, error) {
	var rec domain.HistoryRecord
	var flowJSON, checkedJSON string
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Timestamp, &rec.BusinessType, &rec.Prefecture, &rec.City,
		&rec.Jurisdiction, &rec.JurisdictionDetail, &rec.Summary,
		&rec.ReferenceURL, &rec.ReferenceName, &rec.GuidelineURL, &rec.GuidelineName,
		&flowJSON, &checkedJSON)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(flowJSON), &rec.Flow); err != nil {
		rec.Flow = []domain.FlowStep{}
	}
	if err := json.Unmarshal([]byte(checkedJSON), &rec.CheckedSteps); err != nil {
		rec.CheckedSteps = []int{}
	}
	if rec.Flow == nil {
		rec.Flow = []domain.FlowStep{}
	}
	if rec.CheckedSteps == nil {
		rec.CheckedSteps = []int{}
	}
	return &rec, nil
}
