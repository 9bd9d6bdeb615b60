package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joe-antognini/zoia/internal/metadata"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a SQLite database. Each mutation runs in
// its own transaction.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
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
		);

		CREATE INDEX IF NOT EXISTS idx_metadata_arxiv_id ON metadata(lower(arxiv_id)) WHERE arxiv_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_metadata_doi ON metadata(lower(doi)) WHERE doi IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_metadata_isbn ON metadata(isbn) WHERE isbn IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_metadata_pdf_md5 ON metadata(lower(pdf_md5)) WHERE pdf_md5 IS NOT NULL;
	`

	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Contains(ctx context.Context, key string) (bool, error) {
	return sqliteExists(ctx, s.db, `SELECT 1 FROM metadata WHERE citekey = ?`, key)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (metadata.Metadatum, error) {
	var r row
	err := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM metadata WHERE citekey = ?`, key).Scan(
		&r.Citekey, &r.EntryType, &r.Title, &r.Year,
		&r.ArxivID, &r.DOI, &r.ISBN, &r.PDFMD5,
		&r.AuthorsJSON, &r.TagsJSON, &r.OtherMetadata,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.Metadatum{}, notFound(key)
	}
	if err != nil {
		return metadata.Metadatum{}, fmt.Errorf("querying %s: %w", key, err)
	}
	return r.metadatum()
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT citekey FROM metadata ORDER BY citekey`)
	if err != nil {
		return nil, fmt.Errorf("querying citekeys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning citekey: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, key string, m metadata.Metadatum) error {
	r, err := toRow(key, m)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := sqliteExists(ctx, tx, `SELECT 1 FROM metadata WHERE citekey = ?`, key)
		if err != nil {
			return err
		}
		if exists {
			return keyExists(key)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO metadata (`+columns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.args()...)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Replace(ctx context.Context, key string, m metadata.Metadatum) error {
	r, err := toRow(key, m)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE metadata SET
				entry_type = ?, title = ?, year = ?,
				arxiv_id = ?, doi = ?, isbn = ?, pdf_md5 = ?,
				authors_json = ?, tags_json = ?, other_metadata = ?
			WHERE citekey = ?`,
			r.EntryType, r.Title, r.Year,
			r.ArxivID, r.DOI, r.ISBN, r.PDFMD5,
			r.AuthorsJSON, r.TagsJSON, r.OtherMetadata,
			key,
		)
		if err != nil {
			return fmt.Errorf("updating %s: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating %s: %w", key, err)
		}
		if n == 0 {
			return notFound(key)
		}
		return nil
	})
}

func (s *SQLiteStore) RenameKey(ctx context.Context, oldKey, newKey string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := sqliteExists(ctx, tx, `SELECT 1 FROM metadata WHERE citekey = ?`, oldKey)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(oldKey)
		}
		taken, err := sqliteExists(ctx, tx, `SELECT 1 FROM metadata WHERE citekey = ?`, newKey)
		if err != nil {
			return err
		}
		if taken {
			return keyExists(newKey)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE metadata SET citekey = ? WHERE citekey = ?`, newKey, oldKey); err != nil {
			return fmt.Errorf("renaming %s to %s: %w", oldKey, newKey, err)
		}
		return nil
	})
}

func (s *SQLiteStore) ArxivIDExists(ctx context.Context, arxivID string) (bool, error) {
	if arxivID == "" {
		return false, nil
	}
	return sqliteExists(ctx, s.db, `SELECT 1 FROM metadata WHERE lower(arxiv_id) = lower(?)`, arxivID)
}

func (s *SQLiteStore) DOIExists(ctx context.Context, doi string) (bool, error) {
	if doi == "" {
		return false, nil
	}
	return sqliteExists(ctx, s.db, `SELECT 1 FROM metadata WHERE lower(doi) = lower(?)`, doi)
}

func (s *SQLiteStore) ISBNExists(ctx context.Context, isbn string) (bool, error) {
	if isbn == "" {
		return false, nil
	}
	return sqliteExists(ctx, s.db, `SELECT 1 FROM metadata WHERE isbn = ?`, isbn)
}

func (s *SQLiteStore) PDFHashExists(ctx context.Context, md5 string) (bool, error) {
	if md5 == "" {
		return false, nil
	}
	return sqliteExists(ctx, s.db, `SELECT 1 FROM metadata WHERE lower(pdf_md5) = lower(?)`, md5)
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteExists(ctx context.Context, q queryRower, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying metadata: %w", err)
	}
	return true, nil
}
