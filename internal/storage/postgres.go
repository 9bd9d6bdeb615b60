package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joe-antognini/zoia/internal/metadata"
)

// PostgresStore is a Store backed by a PostgreSQL table, for libraries shared
// between machines.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			citekey TEXT PRIMARY KEY,
			entry_type TEXT NOT NULL,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			arxiv_id TEXT,
			doi TEXT,
			isbn TEXT,
			pdf_md5 TEXT,
			authors_json TEXT NOT NULL,
			tags_json TEXT,
			other_metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_arxiv_id ON metadata (lower(arxiv_id))`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_doi ON metadata (lower(doi))`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_isbn ON metadata (isbn)`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_pdf_md5 ON metadata (lower(pdf_md5))`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Contains(ctx context.Context, key string) (bool, error) {
	return pgExists(ctx, s.pool, `SELECT 1 FROM metadata WHERE citekey = $1`, key)
}

func (s *PostgresStore) Get(ctx context.Context, key string) (metadata.Metadatum, error) {
	var r row
	err := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM metadata WHERE citekey = $1`, key).Scan(
		&r.Citekey, &r.EntryType, &r.Title, &r.Year,
		&r.ArxivID, &r.DOI, &r.ISBN, &r.PDFMD5,
		&r.AuthorsJSON, &r.TagsJSON, &r.OtherMetadata,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return metadata.Metadatum{}, notFound(key)
	}
	if err != nil {
		return metadata.Metadatum{}, fmt.Errorf("querying %s: %w", key, err)
	}
	return r.metadatum()
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT citekey FROM metadata ORDER BY citekey`)
	if err != nil {
		return nil, fmt.Errorf("querying citekeys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning citekeys: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) Append(ctx context.Context, key string, m metadata.Metadatum) error {
	r, err := toRow(key, m)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `INSERT INTO metadata (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (citekey) DO NOTHING`, r.args()...)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return keyExists(key)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, key string, m metadata.Metadatum) error {
	r, err := toRow(key, m)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE metadata SET
			entry_type = $2, title = $3, year = $4,
			arxiv_id = $5, doi = $6, isbn = $7, pdf_md5 = $8,
			authors_json = $9, tags_json = $10, other_metadata = $11
		WHERE citekey = $1`, r.args()...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(key)
	}
	return nil
}

func (s *PostgresStore) RenameKey(ctx context.Context, oldKey, newKey string) error {
	if oldKey == newKey {
		ok, err := s.Contains(ctx, oldKey)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(oldKey)
		}
		return keyExists(newKey)
	}

	tag, err := s.pool.Exec(ctx, `UPDATE metadata SET citekey = $2 WHERE citekey = $1`, oldKey, newKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return keyExists(newKey)
		}
		return fmt.Errorf("renaming %s to %s: %w", oldKey, newKey, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(oldKey)
	}
	return nil
}

func (s *PostgresStore) ArxivIDExists(ctx context.Context, arxivID string) (bool, error) {
	if arxivID == "" {
		return false, nil
	}
	return pgExists(ctx, s.pool, `SELECT 1 FROM metadata WHERE lower(arxiv_id) = lower($1)`, arxivID)
}

func (s *PostgresStore) DOIExists(ctx context.Context, doi string) (bool, error) {
	if doi == "" {
		return false, nil
	}
	return pgExists(ctx, s.pool, `SELECT 1 FROM metadata WHERE lower(doi) = lower($1)`, doi)
}

func (s *PostgresStore) ISBNExists(ctx context.Context, isbn string) (bool, error) {
	if isbn == "" {
		return false, nil
	}
	return pgExists(ctx, s.pool, `SELECT 1 FROM metadata WHERE isbn = $1`, isbn)
}

func (s *PostgresStore) PDFHashExists(ctx context.Context, md5 string) (bool, error) {
	if md5 == "" {
		return false, nil
	}
	return pgExists(ctx, s.pool, `SELECT 1 FROM metadata WHERE lower(pdf_md5) = lower($1)`, md5)
}

func pgExists(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) (bool, error) {
	var one int
	err := pool.QueryRow(ctx, query+` LIMIT 1`, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying metadata: %w", err)
	}
	return true, nil
}
