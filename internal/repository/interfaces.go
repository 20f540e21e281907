package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/lumi/pkg/entity"
)

// KVEntry is one key with its raw JSON value.
type KVEntry struct {
	Key   string
	Value []byte
}

// KVStore is the flat key-value namespace every record lives in.
// Keys follow kind:owner[:suffix], e.g. daily:{uid}:2025-01-31.
type KVStore interface {
	// Returns the value under key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Inserts or overwrites the value under key
	Set(ctx context.Context, key string, value []byte) error
	// Lists all entries whose key starts with prefix, ordered by key ascending
	GetByPrefix(ctx context.Context, prefix string) ([]KVEntry, error)
}

type UsersRepositoryI interface {
	// Creates new user. Fails with ErrUserExists when the id or the email is taken
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by id. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Looks up user by email. Used for login
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// Overwrites user's record
	Update(ctx context.Context, user *entity.User) error
}

type DailyRecordsRepositoryI interface {
	// Returns the record for (uid, date) or ErrRecordNotFound
	Get(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error)
	// Inserts or overwrites the record for (uid, record.Date)
	Save(ctx context.Context, uid uuid.UUID, record *entity.DailyRecord) error
	// Lists every stored record of uid, most recent date first
	ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.DailyRecord, error)
}

type StreaksRepositoryI interface {
	// Returns user's streak or ErrStreakNotFound
	Get(ctx context.Context, uid uuid.UUID) (*entity.StreakState, error)
	Save(ctx context.Context, uid uuid.UUID, state *entity.StreakState) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}

func userKey(uid uuid.UUID) string {
	return "user:" + uid.String()
}

func emailKey(email string) string {
	return "email:" + email
}

func streakKey(uid uuid.UUID) string {
	return "streak:" + uid.String()
}

func dailyPrefix(uid uuid.UUID) string {
	return "daily:" + uid.String() + ":"
}

func dailyKey(uid uuid.UUID, date string) string {
	return dailyPrefix(uid) + date
}
