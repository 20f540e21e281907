package repository_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/pkg/entity"
	_ "github.com/lib/pq"
	"github.com/pressly/goose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testPGConfig struct {
	connStr string
}

func (c *testPGConfig) ConnString() string {
	return c.connStr
}

func TestPostgresKVIntegration(t *testing.T) {
	if os.Getenv("LUMI_INTEGRATION") != "1" {
		t.Skip("set LUMI_INTEGRATION=1 to run against a postgres container")
	}
	cfg := setupKVTestDB(t)
	kv := repository.NewPostgresKV(cfg)
	ctx := context.Background()
	uid := uuid.New()

	records := repository.NewDailyRecordsRepo(kv)
	streaks := repository.NewStreaksRepo(kv)

	_, err := records.Get(ctx, uid, "2025-03-01")
	assert.ErrorIs(t, err, errorvalues.ErrRecordNotFound)

	for _, date := range []string{"2025-03-01", "2025-03-03", "2025-03-02"} {
		rec := entity.NewDailyRecord(date)
		rec.WaterGlasses = 4
		require.NoError(t, records.Save(ctx, uid, &rec))
	}
	list, err := records.ListByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-03-03", list[0].Date)
	assert.Equal(t, "2025-03-01", list[2].Date)

	last := "2025-03-03"
	state := entity.StreakState{CurrentStreak: 3, LongestStreak: 3, LastBalancedDate: &last}
	require.NoError(t, streaks.Save(ctx, uid, &state))
	got, err := streaks.Get(ctx, uid)
	require.NoError(t, err)
	assert.True(t, state.Equal(*got))
}

func setupKVTestDB(t *testing.T) *testPGConfig {
	container, err := postgres.Run(context.Background(), "postgres:17",
		postgres.WithUsername("test_user"),
		postgres.WithDatabase("lumi"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatal("error running test container: " + err.Error())
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})
	connStr, err := container.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err = goose.Up(conn, "../../migrations"); err != nil {
		t.Fatal(err)
	}
	return &testPGConfig{
		connStr: connStr,
	}
}
