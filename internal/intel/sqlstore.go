package intel

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docuvault/docintel/internal/common"
)

// SQLiteStore persists the result cache across process restarts. Read-side
// semantics are identical to MemoryStore: retention and fingerprint are
// validated on every Get and stale rows are deleted lazily.
type SQLiteStore struct {
	db        *sql.DB
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS intel_cache (
	path        TEXT PRIMARY KEY,
	result      TEXT NOT NULL,
	computed_at INTEGER NOT NULL,
	file_size   INTEGER NOT NULL,
	file_mtime  INTEGER NOT NULL
);`

func NewSQLiteStore(path string, retention time.Duration, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open cache db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "init cache schema")
	}
	return &SQLiteStore{db: db, retention: retention, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(path string) (*IntelligenceResult, bool) {
	var resultJSON string
	var computedAt, fileSize, fileMtime int64
	row := s.db.QueryRow(
		`SELECT result, computed_at, file_size, file_mtime FROM intel_cache WHERE path = ?`, path)
	if err := row.Scan(&resultJSON, &computedAt, &fileSize, &fileMtime); err != nil {
		return nil, false
	}
	entry := &CacheEntry{
		ComputedAt:   time.Unix(0, computedAt),
		FileSize:     fileSize,
		FileModified: time.Unix(0, fileMtime),
	}
	if !entryValid(entry, path, s.retention, s.now()) {
		s.Clear(path)
		return nil, false
	}
	var result IntelligenceResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		s.logger.Warn("intel.cache.decode_error", "path", path, "error", err)
		s.Clear(path)
		return nil, false
	}
	return &result, true
}

func (s *SQLiteStore) Set(path string, result *IntelligenceResult) {
	st, err := os.Stat(path)
	if err != nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("intel.cache.encode_error", "path", path, "error", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO intel_cache (path, result, computed_at, file_size, file_mtime)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   result = excluded.result,
		   computed_at = excluded.computed_at,
		   file_size = excluded.file_size,
		   file_mtime = excluded.file_mtime`,
		path, string(data), s.now().UnixNano(), st.Size(), st.ModTime().UnixNano())
	if err != nil {
		s.logger.Warn("intel.cache.write_error", "path", path, "error", err)
	}
}

func (s *SQLiteStore) Clear(path string) {
	if _, err := s.db.Exec(`DELETE FROM intel_cache WHERE path = ?`, path); err != nil {
		s.logger.Warn("intel.cache.clear_error", "path", path, "error", err)
	}
}

func (s *SQLiteStore) ClearAll() {
	if _, err := s.db.Exec(`DELETE FROM intel_cache`); err != nil {
		s.logger.Warn("intel.cache.clear_error", "error", err)
	}
}

func (s *SQLiteStore) Stats() StoreStats {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM intel_cache`).Scan(&n); err != nil {
		return StoreStats{}
	}
	return StoreStats{Entries: n}
}
