package datasource

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLite is a Source backed by a single-table SQLite archive.
type SQLite struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Put stores a under name, replacing any previous array with that name.
func (s *SQLite) Put(ctx context.Context, name string, a Array) error {
	if err := a.validate(name); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	shape, err := json.Marshal(a.Shape)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO arrays (name, shape, data)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			shape = excluded.shape,
			data = excluded.data
	`, name, string(shape), encodeFloats(a.Data))
	return err
}

// Import copies every array of m into the archive in one transaction.
func (s *SQLite) Import(ctx context.Context, m *Memory) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO arrays (name, shape, data)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			shape = excluded.shape,
			data = excluded.data
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range m.Names() {
		a, err := m.Array(ctx, name)
		if err != nil {
			return err
		}
		shape, err := json.Marshal(a.Shape)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, name, string(shape), encodeFloats(a.Data)); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Array(ctx context.Context, name string) (Array, error) {
	db, err := s.getDB()
	if err != nil {
		return Array{}, err
	}

	var shape string
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT shape, data FROM arrays WHERE name = ?`, name).Scan(&shape, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Array{}, missing(name)
		}
		return Array{}, err
	}

	var a Array
	if err := json.Unmarshal([]byte(shape), &a.Shape); err != nil {
		return Array{}, fmt.Errorf("decode shape of %s: %w", name, err)
	}
	a.Data, err = decodeFloats(payload)
	if err != nil {
		return Array{}, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := a.validate(name); err != nil {
		return Array{}, err
	}
	return a, nil
}

func (s *SQLite) Has(ctx context.Context, name string) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM arrays WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Names lists the stored array names in sorted order.
func (s *SQLite) Names(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT name FROM arrays ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("archive is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS arrays (
			name TEXT PRIMARY KEY,
			shape TEXT NOT NULL,
			data BLOB NOT NULL
		);
	`)
	return err
}

func encodeFloats(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 8", len(buf))
	}
	data := make([]float64, len(buf)/8)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return data, nil
}
