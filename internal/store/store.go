package store

import (
	"database/sql"
	"fmt"

	"github.com/pavelanni/mcqxai/internal/model"

	_ "modernc.org/sqlite"
)

// Store is the lecture paragraph store. It never holds explanation results.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lecture_paragraphs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		UNIQUE (source, position)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ImportParagraphs appends paragraphs for source in one transaction,
// numbering them after any already stored for that source.
func (s *Store) ImportParagraphs(source string, paras []string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(position) + 1, 0) FROM lecture_paragraphs WHERE source = ?`, source,
	).Scan(&next); err != nil {
		return 0, err
	}

	for i, text := range paras {
		if _, err := tx.Exec(
			`INSERT INTO lecture_paragraphs (source, position, text) VALUES (?, ?, ?)`,
			source, next+i, text,
		); err != nil {
			return 0, fmt.Errorf("insert paragraph %d: %w", i, err)
		}
	}
	return len(paras), tx.Commit()
}

// ListParagraphs returns paragraphs ordered by source and position. An
// empty source lists every source.
func (s *Store) ListParagraphs(source string) ([]model.Paragraph, error) {
	query := `SELECT id, source, position, text FROM lecture_paragraphs`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY source, position`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paras []model.Paragraph
	for rows.Next() {
		var p model.Paragraph
		if err := rows.Scan(&p.ID, &p.Source, &p.Position, &p.Text); err != nil {
			return nil, err
		}
		paras = append(paras, p)
	}
	return paras, rows.Err()
}

// ListSources returns the distinct paragraph sources in order.
func (s *Store) ListSources() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT source FROM lecture_paragraphs ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DeleteSource removes all paragraphs of source and its import record.
func (s *Store) DeleteSource(source string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM lecture_paragraphs WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM imported_files WHERE path = ?`, source); err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// ParagraphCount returns the number of stored paragraphs.
func (s *Store) ParagraphCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM lecture_paragraphs`).Scan(&count)
	return count, err
}
