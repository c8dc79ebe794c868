package draft

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/modvault/wikidraft/internal/db"
	"github.com/modvault/wikidraft/internal/util/compression"
)

// SQLiteStore persists drafts in the wiki_drafts table so they survive
// server restarts. Bodies are compressed like page content.
type SQLiteStore struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLiteStore(db db.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,

		compressor: compression.ZstdCompressor{},
	}
}

func (s *SQLiteStore) Get(key string) (string, error) {
	var compressed []byte
	row := s.db.Get().QueryRow(`SELECT body FROM wiki_drafts WHERE key = ?`, key)
	if err := row.Scan(&compressed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNoDraft, key)
		}
		return "", fmt.Errorf("error reading draft: %w", err)
	}

	body, err := s.compressor.Decompress(compressed)
	if err != nil {
		return "", fmt.Errorf("error decompressing draft: %w", err)
	}
	return string(body), nil
}

func (s *SQLiteStore) Set(key, value string) error {
	compressed, err := s.compressor.Compress([]byte(value))
	if err != nil {
		return fmt.Errorf("error compressing draft: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO wiki_drafts (key, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, compressed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving draft: %w", err)
	}

	storeLogger.Debug().Str("key", key).Int("compressed_bytes", len(compressed)).Msg("Draft persisted")
	return nil
}

func (s *SQLiteStore) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM wiki_drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("error removing draft: %w", err)
	}
	return nil
}
