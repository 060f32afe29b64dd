package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS ticks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at   TEXT    NOT NULL,
	duration_ms  INTEGER NOT NULL,
	label        TEXT,
	previous     TEXT,
	changed      INTEGER NOT NULL DEFAULT 0,
	notified     INTEGER NOT NULL DEFAULT 0,
	failure_kind TEXT,
	error        TEXT
);
CREATE INDEX IF NOT EXISTS idx_ticks_started_at ON ticks(started_at);
`

// HistoryEntry запись журнала тиков
type HistoryEntry struct {
	ID       int64
	Started  time.Time
	Duration time.Duration
	Label    entity.Label
	Previous entity.Label
	Changed  bool
	Notified bool
	Kind     entity.FailureKind
	Error    string
}

// HistoryStore журнал тиков в SQLite
type HistoryStore struct {
	db *sql.DB
}

// OpenHistory открывает (или создаёт) базу журнала по пути path
func OpenHistory(path string) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// Один писатель: планировщик выполняет тики последовательно
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Close закрывает базу
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// RecordTick добавляет тик в журнал
func (h *HistoryStore) RecordTick(ctx context.Context, result entity.TickResult) error {
	var errText string
	if result.Err != nil {
		errText = result.Err.Error()
	}

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO ticks (started_at, duration_ms, label, previous, changed, notified, failure_kind, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Started.UTC().Format(time.RFC3339Nano),
		result.Duration.Milliseconds(),
		nullIfEmpty(string(result.Label)),
		nullIfEmpty(string(result.Previous)),
		boolToInt(result.Changed),
		boolToInt(result.Notified),
		nullIfEmpty(string(result.Kind)),
		nullIfEmpty(errText),
	)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	return nil
}

// Recent возвращает до limit последних тиков, новые первыми
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, label, previous, changed, notified, failure_kind, error
		 FROM ticks ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var started string
		var durationMS int64
		var label, previous, kind, errText sql.NullString
		var changed, notified int
		if err := rows.Scan(&e.ID, &started, &durationMS, &label, &previous, &changed, &notified, &kind, &errText); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		e.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Label = entity.Label(label.String)
		e.Previous = entity.Label(previous.String)
		e.Changed = changed != 0
		e.Notified = notified != 0
		e.Kind = entity.FailureKind(kind.String)
		e.Error = errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Totals считает успешные и неудачные тики за всю историю
func (h *HistoryStore) Totals(ctx context.Context) (entity.RunStats, error) {
	var stats entity.RunStats
	err := h.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN error IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error IS NULL THEN 0 ELSE 1 END), 0)
		 FROM ticks`).Scan(&stats.Successful, &stats.Failed)
	if err != nil {
		return entity.RunStats{}, fmt.Errorf("count history: %w", err)
	}
	return stats, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Проверка реализации интерфейса
var _ port.TickRecorder = (*HistoryStore)(nil)
