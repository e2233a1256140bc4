package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/debemdeboas/inkpad/internal/db"
	"github.com/debemdeboas/inkpad/internal/util"
	"github.com/debemdeboas/inkpad/internal/util/compression"
)

// SQLiteKV persists values in the kv table, compressed at rest.
type SQLiteKV struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLiteKV(database db.DB, c compression.Compressor) *SQLiteKV {
	if c == nil {
		c = compression.None{}
	}
	return &SQLiteKV{db: database, compressor: c}
}

// OpenSQLite creates (if needed) and opens the database at path.
func OpenSQLite(path string, compress bool) (*SQLiteKV, error) {
	database := db.NewSQLite(path)
	if err := database.InitDB(); err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	var c compression.Compressor = compression.None{}
	if compress {
		c = compression.ZstdCompressor{}
	}
	return NewSQLiteKV(database, c), nil
}

func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	if s.db.Get() == nil {
		return nil, false, ErrClosed
	}

	var raw []byte
	var hash string
	err := s.db.QueryRow(`SELECT value, content_hash FROM kv WHERE key = ?`, key).Scan(&raw, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}

	value, err := s.compressor.Decompress(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decompress %s: %w", key, err)
	}
	if util.ContentHash(value) != hash {
		storageLogger.Warn().Str("key", key).Msg("Stored value does not match its content hash")
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(key string, value []byte) error {
	if s.db.Get() == nil {
		return ErrClosed
	}

	packed, err := s.compressor.Compress(value)
	if err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO kv (key, value, content_hash, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`,
		key, packed, util.ContentHash(value))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	storageLogger.Debug().Str("key", key).Int("bytes", len(value)).Int("stored_bytes", len(packed)).Msg("Value persisted")
	return nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
