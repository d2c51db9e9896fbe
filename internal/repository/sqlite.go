package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/annwhocodes/ResQMap/internal/models"
)

type SQLiteDB struct {
	db *sqlx.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// sqlite serialises writers anyway, and an in-memory database only
	// exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			description TEXT NOT NULL,
			reporter TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(type);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) AddReport(ctx context.Context, r *models.Report) error {
	row := *r
	row.CreatedAt = row.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reports (id, type, severity, latitude, longitude, description, reporter, created_at)
		VALUES (:id, :type, :severity, :latitude, :longitude, :description, :reporter, :created_at)`, &row)
	if err != nil {
		return fmt.Errorf("error inserting report %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	err := s.db.GetContext(ctx, &r, `SELECT * FROM reports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting report %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteDB) ListReports(ctx context.Context, opts Filter) ([]models.Report, error) {
	query := `SELECT * FROM reports WHERE 1=1`
	var args []any

	if opts.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, opts.Since.UTC())
	}
	if opts.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*opts.Type))
	}

	query += ` ORDER BY created_at DESC, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	reports := []models.Report{}
	if err := s.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	return reports, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
