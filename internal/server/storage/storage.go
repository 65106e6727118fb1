package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// Storage persists world metadata as JSON and edited chunks in SQLite.
type Storage struct {
	dir string
	log *slog.Logger
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates a Storage rooted at dir, creating the directory and the
// chunk database as needed.
func Open(dir string, log *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "chunks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (cx, cz)
		);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init chunk db: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	log = log.With("component", "storage")
	log.Info("storage opened", "dir", dir)
	return &Storage{dir: dir, log: log, db: db, enc: enc, dec: dec}, nil
}

// Close releases the database and codecs.
func (s *Storage) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// LoadChunk returns the stored block payload for pos, if any.
func (s *Storage) LoadChunk(ctx context.Context, pos gen.ChunkPos) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM chunks WHERE cx = ? AND cz = ?", pos.X, pos.Z).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query chunk: %w", err)
	}
	data, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompress chunk: %w", err)
	}
	return data, true, nil
}

// SaveChunk stores the block payload for pos, replacing any previous one.
func (s *Storage) SaveChunk(ctx context.Context, pos gen.ChunkPos, data []byte) error {
	blob := s.enc.EncodeAll(data, nil)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (cx, cz, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (cx, cz) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		pos.X, pos.Z, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store chunk: %w", err)
	}
	s.log.Debug("chunk saved", "x", pos.X, "z", pos.Z, "bytes", len(blob))
	return nil
}

// ChunkCount returns the number of stored chunks.
func (s *Storage) ChunkCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// LoadLevel reads level.json. It returns nil if the world is new.
func (s *Storage) LoadLevel() (*Level, error) {
	path := filepath.Join(s.dir, "level.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read level: %w", err)
	}

	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	return &lvl, nil
}

// SaveLevel writes level.json atomically.
func (s *Storage) SaveLevel(lvl *Level) error {
	return s.atomicWriteJSON(filepath.Join(s.dir, "level.json"), lvl)
}

// atomicWriteJSON marshals v to JSON and writes it atomically using a temp file + rename.
func (s *Storage) atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
