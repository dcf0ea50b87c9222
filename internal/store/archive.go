package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// PublishedPost is one archived publish outcome. The session only keeps the
// current artifact; the archive keeps everything that ever went out.
type PublishedPost struct {
	PostID      string
	Title       string
	URL         string
	Tone        string
	PublishedAt time.Time
	Meta        map[string]string
}

// Archive is the SQLite-backed side store for configuration values and the
// published-post log.
type Archive struct {
	db *sql.DB
}

func NewArchive(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS published_posts (
			post_id TEXT PRIMARY KEY,
			title TEXT,
			url TEXT,
			tone TEXT,
			published_at DATETIME,
			metadata TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := a.db.Exec(q); err != nil {
			return fmt.Errorf("failed to init archive schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// SetConfig stores a configuration value, replacing any prior one.
func (a *Archive) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := a.db.Exec(query, key, value)
	return err
}

// GetConfig returns the stored value, or "" when the key is unset.
func (a *Archive) GetConfig(key string) (string, error) {
	row := a.db.QueryRow(`SELECT value FROM configuration WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// RecordPost appends a publish outcome to the archive.
func (a *Archive) RecordPost(p *PublishedPost) error {
	metaJSON, err := json.Marshal(p.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal post metadata: %w", err)
	}
	query := `INSERT INTO published_posts (post_id, title, url, tone, published_at, metadata) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = a.db.Exec(query, p.PostID, p.Title, p.URL, p.Tone, p.PublishedAt, string(metaJSON))
	return err
}

// ListPosts returns archived posts, newest first.
func (a *Archive) ListPosts() ([]*PublishedPost, error) {
	rows, err := a.db.Query(`SELECT post_id, title, url, tone, published_at, metadata FROM published_posts ORDER BY published_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*PublishedPost
	for rows.Next() {
		var p PublishedPost
		var metaJSON string
		if err := rows.Scan(&p.PostID, &p.Title, &p.URL, &p.Tone, &p.PublishedAt, &metaJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metaJSON), &p.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal post metadata: %w", err)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}
