package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

var _ Storage = (*PostgreSQLStorage)(nil)

// PostgreSQLStorage implements Storage interface using PostgreSQL
type PostgreSQLStorage struct {
	db *sql.DB
}

// NewPostgreSQLStorage opens the database and creates the schema
func NewPostgreSQLStorage(cfg config.StorageConfig) (*PostgreSQLStorage, error) {
	if cfg.PostgresURI == "" {
		return nil, errors.New("postgres uri is required")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	storage := &PostgreSQLStorage{db: db}
	if err := storage.initDB(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// initDB initializes the database schema
func (p *PostgreSQLStorage) initDB(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS archived_posts (
		id BIGINT PRIMARY KEY,
		user_id INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS archive_status (
		id TEXT PRIMARY KEY,
		last_successful_run TIMESTAMPTZ,
		last_attempt TIMESTAMPTZ,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		records_archived INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// StorePosts upserts posts by id in one transaction
func (p *PostgreSQLStorage) StorePosts(ctx context.Context, posts []models.ArchivedPost) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO archived_posts (id, user_id, title, body, archived_at, source)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		user_id = excluded.user_id,
		title = excluded.title,
		body = excluded.body,
		archived_at = excluded.archived_at,
		source = excluded.source
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, post := range posts {
		if _, err := stmt.ExecContext(ctx, post.ID, post.UserID, post.Title, post.Body, post.ArchivedAt, post.Source); err != nil {
			return fmt.Errorf("failed to store post %d: %w", post.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posts: %w", err)
	}
	return nil
}

// GetPosts returns posts ordered by id
func (p *PostgreSQLStorage) GetPosts(ctx context.Context, limit int, offset int) ([]models.ArchivedPost, error) {
	posts := []models.ArchivedPost{}
	if limit <= 0 || offset < 0 {
		return posts, nil
	}

	rows, err := p.db.QueryContext(ctx, `
	SELECT id, user_id, title, body, archived_at, source
	FROM archived_posts ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var post models.ArchivedPost
		if err := rows.Scan(&post.ID, &post.UserID, &post.Title, &post.Body, &post.ArchivedAt, &post.Source); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

// GetPostByID retrieves a specific post by ID
func (p *PostgreSQLStorage) GetPostByID(ctx context.Context, id int64) (*models.ArchivedPost, error) {
	var post models.ArchivedPost
	err := p.db.QueryRowContext(ctx, `
	SELECT id, user_id, title, body, archived_at, source
	FROM archived_posts WHERE id = $1`, id).
		Scan(&post.ID, &post.UserID, &post.Title, &post.Body, &post.ArchivedAt, &post.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

// UpdateArchiveStatus upserts the single status row
func (p *PostgreSQLStorage) UpdateArchiveStatus(ctx context.Context, status models.ArchiveStatus) error {
	_, err := p.db.ExecContext(ctx, `
	INSERT INTO archive_status (id, last_successful_run, last_attempt, status, error_message, records_archived)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		last_successful_run = excluded.last_successful_run,
		last_attempt = excluded.last_attempt,
		status = excluded.status,
		error_message = excluded.error_message,
		records_archived = excluded.records_archived
	`, archiveStatusKey, nullTime(status.LastSuccessfulRun), nullTime(status.LastAttempt),
		status.Status, status.ErrorMessage, status.RecordsArchived)
	if err != nil {
		return fmt.Errorf("failed to store archive status: %w", err)
	}
	return nil
}

// GetArchiveStatus retrieves the current archive status
func (p *PostgreSQLStorage) GetArchiveStatus(ctx context.Context) (*models.ArchiveStatus, error) {
	var (
		status               models.ArchiveStatus
		lastSuccess, lastTry sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
	SELECT last_successful_run, last_attempt, status, error_message, records_archived
	FROM archive_status WHERE id = $1`, archiveStatusKey).
		Scan(&lastSuccess, &lastTry, &status.Status, &status.ErrorMessage, &status.RecordsArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return neverRun(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive status: %w", err)
	}
	status.LastSuccessfulRun = lastSuccess.Time
	status.LastAttempt = lastTry.Time
	return &status, nil
}

// Close closes the database connection
func (p *PostgreSQLStorage) Close() error {
	return p.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
