package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/lexnav/lexnav/internal/chunk"
	"github.com/lexnav/lexnav/internal/corpus"
)

// MetadataStore persists articles and chunks in SQLite. The serving path
// hydrates fused result ids back into full chunks through it, so the
// lexical and vector indexes only have to carry ids.
type MetadataStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

const metadataSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id             TEXT PRIMARY KEY,
	regulation     TEXT NOT NULL,
	article_number TEXT NOT NULL,
	title          TEXT,
	full_text      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id                  TEXT PRIMARY KEY,
	parent_article_id   TEXT NOT NULL,
	chunk_index         INTEGER NOT NULL,
	text                TEXT NOT NULL,
	legal_force         TEXT NOT NULL,
	contains_obligation INTEGER NOT NULL,
	referenced_articles TEXT,
	parent_text         TEXT NOT NULL,
	article_number      TEXT NOT NULL,
	regulation          TEXT NOT NULL,
	title               TEXT
);

CREATE INDEX IF NOT EXISTS idx_chunks_parent ON chunks(parent_article_id);
CREATE INDEX IF NOT EXISTS idx_chunks_regulation ON chunks(regulation);
`

// NewMetadataStore opens (or creates) the metadata database at path.
// An empty path opens an in-memory database.
func NewMetadataStore(path string) (*MetadataStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// modernc.org/sqlite ignores some DSN params, so pragmas go through
	// explicit statements.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(metadataSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &MetadataStore{db: db, path: path}, nil
}

// SaveArticles upserts articles.
func (s *MetadataStore) SaveArticles(ctx context.Context, articles []corpus.Article) error {
	if len(articles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, regulation, article_number, title, full_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			regulation = excluded.regulation,
			article_number = excluded.article_number,
			title = excluded.title,
			full_text = excluded.full_text`)
	if err != nil {
		return fmt.Errorf("prepare article upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range articles {
		if _, err := stmt.ExecContext(ctx, a.ID, a.Regulation, a.ArticleNumber, a.Title, a.FullText); err != nil {
			return fmt.Errorf("upsert article %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// SaveChunks upserts chunks.
func (s *MetadataStore) SaveChunks(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, parent_article_id, chunk_index, text, legal_force,
			contains_obligation, referenced_articles, parent_text, article_number, regulation, title)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_article_id = excluded.parent_article_id,
			chunk_index = excluded.chunk_index,
			text = excluded.text,
			legal_force = excluded.legal_force,
			contains_obligation = excluded.contains_obligation,
			referenced_articles = excluded.referenced_articles,
			parent_text = excluded.parent_text,
			article_number = excluded.article_number,
			regulation = excluded.regulation,
			title = excluded.title`)
	if err != nil {
		return fmt.Errorf("prepare chunk upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		refs, err := json.Marshal(c.ReferencedArticles)
		if err != nil {
			return fmt.Errorf("marshal references for %s: %w", c.ID, err)
		}
		obligation := 0
		if c.ContainsObligation {
			obligation = 1
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.ParentArticleID, c.Index, c.Text,
			string(c.LegalForce), obligation, string(refs), c.ParentText,
			c.ArticleNumber, c.Regulation, c.Title); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunk returns a single chunk by id.
func (s *MetadataStore) GetChunk(ctx context.Context, id string) (*chunk.Chunk, error) {
	chunks, err := s.GetChunks(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunk %s not found", id)
	}
	return &chunks[0], nil
}

// GetChunks returns the chunks for the given ids, in the order requested.
// Missing ids are silently omitted.
func (s *MetadataStore) GetChunks(ctx context.Context, ids []string) ([]chunk.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, parent_article_id, chunk_index, text, legal_force,
			contains_obligation, referenced_articles, parent_text, article_number, regulation, title
		FROM chunks WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]chunk.Chunk, len(ids))
	for rows.Next() {
		var c chunk.Chunk
		var force string
		var obligation int
		var refs sql.NullString
		if err := rows.Scan(&c.ID, &c.ParentArticleID, &c.Index, &c.Text, &force,
			&obligation, &refs, &c.ParentText, &c.ArticleNumber, &c.Regulation, &c.Title); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.LegalForce = chunk.LegalForce(force)
		c.ContainsObligation = obligation != 0
		if refs.Valid && refs.String != "" {
			if err := json.Unmarshal([]byte(refs.String), &c.ReferencedArticles); err != nil {
				return nil, fmt.Errorf("unmarshal references for %s: %w", c.ID, err)
			}
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	out := make([]chunk.Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetArticle returns a single article by id.
func (s *MetadataStore) GetArticle(ctx context.Context, id string) (*corpus.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	var a corpus.Article
	err := s.db.QueryRowContext(ctx, `
		SELECT id, regulation, article_number, title, full_text
		FROM articles WHERE id = ?`, id).
		Scan(&a.ID, &a.Regulation, &a.ArticleNumber, &a.Title, &a.FullText)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}
	return &a, nil
}

// CountChunks returns the number of stored chunks.
func (s *MetadataStore) CountChunks(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("metadata store is closed")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *MetadataStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// Fold the WAL back into the main file so the store is a single
	// artifact on disk.
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
