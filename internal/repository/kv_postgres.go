package repository

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/cleanup"
)

// PostgresKV keeps every entry in the kv_store table (key text, value jsonb).
type PostgresKV struct {
	conn PgConnection
}

func NewPostgresKV(cfg DBConfig) *PostgresKV {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for kv store error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for kv store: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &PostgresKV{
		conn: pool,
	}
}

func NewPostgresKVWithConn(conn PgConnection) *PostgresKV {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for kv store: " + err.Error())
	}
	return &PostgresKV{
		conn: conn,
	}
}

func (kv *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	row := kv.conn.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1;`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrKeyNotFound
		}
		return nil, errors.New("getting value error: " + err.Error())
	}
	return value, nil
}

func (kv *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := kv.conn.Exec(
		ctx,
		`INSERT INTO kv_store (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;`,
		key,
		string(value),
	)
	if err != nil {
		return errors.New("setting value error: " + err.Error())
	}
	return nil
}

func (kv *PostgresKV) GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error) {
	rows, err := kv.conn.Query(
		ctx,
		`SELECT key, value FROM kv_store WHERE starts_with(key, $1) ORDER BY key;`,
		prefix,
	)
	if err != nil {
		return nil, errors.New("getting values by prefix error: " + err.Error())
	}
	defer rows.Close()
	result := make([]KVEntry, 0, 8)
	for rows.Next() {
		var entry KVEntry
		if err = rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, errors.New("kv row parsing error: " + err.Error())
		}
		result = append(result, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected kv rows error: " + err.Error())
	}
	return result, nil
}
