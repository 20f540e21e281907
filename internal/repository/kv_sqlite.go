package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/cleanup"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteKV is the single-file driver used for local and single-node setups.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(path string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv_store table: %w", err)
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing sqlite",
		F:    db.Close,
	})
	return &SQLiteKV{db: db}, nil
}

func (kv *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	row := kv.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?;`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorvalues.ErrKeyNotFound
		}
		return nil, errors.New("getting value error: " + err.Error())
	}
	return []byte(value), nil
}

func (kv *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := kv.db.ExecContext(
		ctx,
		`INSERT INTO kv_store (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
		key,
		string(value),
	)
	if err != nil {
		return errors.New("setting value error: " + err.Error())
	}
	return nil
}

func (kv *SQLiteKV) GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error) {
	// LIKE is case-insensitive in sqlite, compare the prefix bytes instead
	rows, err := kv.db.QueryContext(
		ctx,
		`SELECT key, value FROM kv_store WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key;`,
		prefix,
	)
	if err != nil {
		return nil, errors.New("getting values by prefix error: " + err.Error())
	}
	defer rows.Close()
	result := make([]KVEntry, 0, 8)
	for rows.Next() {
		var key, value string
		if err = rows.Scan(&key, &value); err != nil {
			return nil, errors.New("kv row parsing error: " + err.Error())
		}
		result = append(result, KVEntry{Key: key, Value: []byte(value)})
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected kv rows error: " + err.Error())
	}
	return result, nil
}

func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}
