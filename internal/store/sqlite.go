package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, dbErr(err, "open database")
	}

	// Crawls read concurrently through the pool.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbErr(err, "initialize schema")
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Watched instruments and their quote pages
	CREATE TABLE IF NOT EXISTS instruments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code INTEGER NOT NULL UNIQUE,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Price threshold alerts keyed by instrument code
	CREATE TABLE IF NOT EXISTS amount_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instrument_code INTEGER NOT NULL,
		mode TEXT NOT NULL,
		amount INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (instrument_code) REFERENCES instruments(code) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_amount_alerts_code ON amount_alerts(instrument_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbErr(err, "ping database")
	}
	return nil
}

// dbErr marks a driver failure as ErrDatabaseError while keeping the cause.
func dbErr(err error, action string) error {
	return apperrors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrDatabaseError, err), "failed to "+action)
}

// ============================================================================
// Instrument Methods
// ============================================================================

// CreateInstrument registers a new instrument. Codes are unique.
func (s *SQLiteStore) CreateInstrument(ctx context.Context, code int64, name, url string) (*models.Instrument, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO instruments (code, name, url, created_at)
		VALUES (?, ?, ?, ?)
	`, code, name, url, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("code %d: %w", code, apperrors.ErrDuplicateInstrument)
		}
		return nil, dbErr(err, "create instrument")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, dbErr(err, "read instrument id")
	}

	return &models.Instrument{
		ID:        id,
		Code:      code,
		Name:      name,
		URL:       url,
		CreatedAt: now,
	}, nil
}

// GetInstrumentByID returns the instrument or ErrInstrumentNotFound.
func (s *SQLiteStore) GetInstrumentByID(ctx context.Context, id int64) (*models.Instrument, error) {
	var inst models.Instrument
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, url, created_at FROM instruments WHERE id = ?
	`, id).Scan(&inst.ID, &inst.Code, &inst.Name, &inst.URL, &inst.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("instrument %d: %w", id, apperrors.ErrInstrumentNotFound)
	}
	if err != nil {
		return nil, dbErr(err, "get instrument")
	}
	return &inst, nil
}

// ListInstruments returns all instruments ordered by id.
func (s *SQLiteStore) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, url, created_at FROM instruments ORDER BY id ASC
	`)
	if err != nil {
		return nil, dbErr(err, "query instruments")
	}
	defer rows.Close()

	var instruments []models.Instrument
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.ID, &inst.Code, &inst.Name, &inst.URL, &inst.CreatedAt); err != nil {
			return nil, dbErr(err, "scan instrument")
		}
		instruments = append(instruments, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterate instruments")
	}

	return instruments, nil
}

// DeleteInstrument removes an instrument together with its alerts.
func (s *SQLiteStore) DeleteInstrument(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr(err, "begin transaction")
	}
	defer tx.Rollback()

	var code int64
	err = tx.QueryRowContext(ctx, `SELECT code FROM instruments WHERE id = ?`, id).Scan(&code)
	if err == sql.ErrNoRows {
		return fmt.Errorf("instrument %d: %w", id, apperrors.ErrInstrumentNotFound)
	}
	if err != nil {
		return dbErr(err, "get instrument")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM amount_alerts WHERE instrument_code = ?`, code); err != nil {
		return dbErr(err, "delete alerts")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM instruments WHERE id = ?`, id); err != nil {
		return dbErr(err, "delete instrument")
	}

	if err := tx.Commit(); err != nil {
		return dbErr(err, "commit transaction")
	}

	return nil
}

// ============================================================================
// Alert Methods
// ============================================================================

// CreateAlert registers an alert against the instrument with the given id.
func (s *SQLiteStore) CreateAlert(ctx context.Context, instrumentID int64, direction models.Direction, amount int64) (*models.AlertRule, error) {
	dir, err := validDirection(direction)
	if err != nil {
		return nil, err
	}

	inst, err := s.GetInstrumentByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO amount_alerts (instrument_code, mode, amount, created_at)
		VALUES (?, ?, ?, ?)
	`, inst.Code, string(dir), amount, now)
	if err != nil {
		return nil, dbErr(err, "create alert")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, dbErr(err, "read alert id")
	}

	return &models.AlertRule{
		ID:             id,
		InstrumentCode: inst.Code,
		Direction:      dir,
		Amount:         amount,
		CreatedAt:      now,
	}, nil
}

// GetAlertByID returns the alert or ErrAlertNotFound.
func (s *SQLiteStore) GetAlertByID(ctx context.Context, id int64) (*models.AlertRule, error) {
	var a models.AlertRule
	var mode string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, instrument_code, mode, amount, created_at FROM amount_alerts WHERE id = ?
	`, id).Scan(&a.ID, &a.InstrumentCode, &mode, &a.Amount, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert %d: %w", id, apperrors.ErrAlertNotFound)
	}
	if err != nil {
		return nil, dbErr(err, "get alert")
	}
	a.Direction = models.Direction(mode)
	return &a, nil
}

// ListAlerts returns every alert ordered by id.
func (s *SQLiteStore) ListAlerts(ctx context.Context) ([]models.AlertRule, error) {
	return s.queryAlerts(ctx, `
		SELECT id, instrument_code, mode, amount, created_at
		FROM amount_alerts ORDER BY id ASC
	`)
}

// GetAlertsByInstrumentCode returns the alerts of one instrument ordered by id.
func (s *SQLiteStore) GetAlertsByInstrumentCode(ctx context.Context, code int64) ([]models.AlertRule, error) {
	return s.queryAlerts(ctx, `
		SELECT id, instrument_code, mode, amount, created_at
		FROM amount_alerts WHERE instrument_code = ? ORDER BY id ASC
	`, code)
}

func (s *SQLiteStore) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err, "query alerts")
	}
	defer rows.Close()

	var alerts []models.AlertRule
	for rows.Next() {
		var a models.AlertRule
		var mode string
		if err := rows.Scan(&a.ID, &a.InstrumentCode, &mode, &a.Amount, &a.CreatedAt); err != nil {
			return nil, dbErr(err, "scan alert")
		}
		a.Direction = models.Direction(mode)
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterate alerts")
	}
	return alerts, nil
}

// UpdateAlert changes the direction and amount of an alert.
func (s *SQLiteStore) UpdateAlert(ctx context.Context, id int64, direction models.Direction, amount int64) (*models.AlertRule, error) {
	dir, err := validDirection(direction)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE amount_alerts SET mode = ?, amount = ? WHERE id = ?
	`, string(dir), amount, id)
	if err != nil {
		return nil, dbErr(err, "update alert")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("alert %d: %w", id, apperrors.ErrAlertNotFound)
	}

	return s.GetAlertByID(ctx, id)
}

// DeleteAlert removes an alert.
func (s *SQLiteStore) DeleteAlert(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM amount_alerts WHERE id = ?`, id)
	if err != nil {
		return dbErr(err, "delete alert")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert %d: %w", id, apperrors.ErrAlertNotFound)
	}

	return nil
}

func validDirection(direction models.Direction) (models.Direction, error) {
	dir, ok := models.ParseDirection(string(direction))
	if !ok {
		verr := apperrors.NewValidationError("direction", direction, "must be \"up\" or \"down\"")
		verr.Err = apperrors.ErrInvalidDirection
		return "", verr
	}
	return dir, nil
}
