package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/syedismail7230/Authai/internal/models"
)

// SQLiteStore is the primary durable certificate store.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the certificate database at dbPath.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Certificate store initialized", zap.String("db_path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS certificates (
		id TEXT PRIMARY KEY,
		issue_date DATETIME NOT NULL,
		content_hash TEXT NOT NULL,
		owner TEXT NOT NULL,
		verdict TEXT NOT NULL,
		content_preview TEXT,
		content_type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_content_hash ON certificates(content_hash);
	CREATE INDEX IF NOT EXISTS idx_issue_date ON certificates(issue_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Put is append-only: a duplicate id is a hard error, never an overwrite.
func (s *SQLiteStore) Put(ctx context.Context, cert models.Certificate) error {
	query := `
		INSERT INTO certificates (id, issue_date, content_hash, owner, verdict, content_preview, content_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		cert.ID,
		cert.IssueDate,
		cert.ContentHash,
		cert.Owner,
		cert.Verdict,
		cert.ContentPreview,
		cert.ContentType,
	)
	if err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Certificate, error) {
	query := `
		SELECT id, issue_date, content_hash, owner, verdict, content_preview, content_type
		FROM certificates
		WHERE id = ?
	`

	var cert models.Certificate
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cert.ID,
		&cert.IssueDate,
		&cert.ContentHash,
		&cert.Owner,
		&cert.Verdict,
		&cert.ContentPreview,
		&cert.ContentType,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Certificate{}, fmt.Errorf("certificate %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to get certificate: %w", err)
	}
	return cert, nil
}

// Count returns the number of issued certificates on record.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM certificates").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
