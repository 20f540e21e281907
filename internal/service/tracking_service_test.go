package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/internal/repository/mocks"
	"github.com/limbo/lumi/internal/service"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWater(t *testing.T) {
	env := newTestEnv(at(2025, 3, 10, 8))
	uid := env.register(t, "ann@example.com", false)
	ctx := context.Background()

	var total int
	var err error
	for range 4 {
		total, err = env.tracking.AddWater(ctx, uid, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, total)

	rec, err := env.tracking.GetRecord(ctx, uid, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.WaterGlasses)
	require.NotNil(t, rec.LastUpdated)

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := env.tracking.AddWater(ctx, uid, 0)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWaterAmount)
		_, err = env.tracking.AddWater(ctx, uid, -2)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWaterAmount)
	})
	t.Run("no upper bound", func(t *testing.T) {
		total, err := env.tracking.AddWater(ctx, uid, 40)
		require.NoError(t, err)
		assert.Equal(t, 44, total)
	})
	t.Run("single add is bounded", func(t *testing.T) {
		_, err := env.tracking.AddWater(ctx, uid, service.MaxGlassesPerAdd+1)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWaterAmount)
		_, err = env.tracking.AddWater(ctx, uid, math.MaxInt)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWaterAmount)

		rec, err := env.tracking.GetRecord(ctx, uid, "2025-03-10")
		require.NoError(t, err)
		assert.Equal(t, 44, rec.WaterGlasses)
	})
	t.Run("day total never wraps", func(t *testing.T) {
		full := entity.NewDailyRecord("2025-03-09")
		full.WaterGlasses = math.MaxInt - 1
		require.NoError(t, repository.NewDailyRecordsRepo(env.kv).Save(ctx, uid, &full))

		_, err := env.tracking.AddWaterOn(ctx, uid, "2025-03-09", 2)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWaterAmount)
		rec, err := env.tracking.AddWaterOn(ctx, uid, "2025-03-09", 1)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, rec.WaterGlasses)

		stored, err := env.tracking.GetRecord(ctx, uid, "2025-03-09")
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt, stored.WaterGlasses)
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := env.tracking.AddWater(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
}

func TestAddWaterIsOrderIndependent(t *testing.T) {
	env := newTestEnv(at(2025, 3, 10, 8))
	uid := env.register(t, "ann@example.com", false)
	ctx := context.Background()
	for _, n := range []int{3, 1, 2} {
		_, err := env.tracking.AddWaterOn(ctx, uid, "2025-01-01", n)
		require.NoError(t, err)
	}
	for _, n := range []int{2, 3, 1} {
		_, err := env.tracking.AddWaterOn(ctx, uid, "2025-01-02", n)
		require.NoError(t, err)
	}
	a, err := env.tracking.GetRecord(ctx, uid, "2025-01-01")
	require.NoError(t, err)
	b, err := env.tracking.GetRecord(ctx, uid, "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, a.WaterGlasses, b.WaterGlasses)
}

func TestLogicalDayFollowsDayStart(t *testing.T) {
	clock := at(2025, 3, 10, 5)
	env := newTestEnv(clock)
	uid := env.register(t, "ann@example.com", false)
	ctx := context.Background()

	_, err := env.tracking.AddWater(ctx, uid, 1)
	require.NoError(t, err)
	rec, err := env.tracking.GetRecord(ctx, uid, "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.WaterGlasses)

	clock.now = clock.now.Add(2 * time.Hour)
	_, err = env.tracking.AddWater(ctx, uid, 1)
	require.NoError(t, err)
	rec, err = env.tracking.GetRecord(ctx, uid, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.WaterGlasses)
}

func TestRecordMeal(t *testing.T) {
	env := newTestEnv(at(2025, 3, 10, 8))
	uid := env.register(t, "ann@example.com", false)
	ctx := context.Background()

	t.Run("same slot replaces", func(t *testing.T) {
		_, err := env.tracking.RecordMeal(ctx, uid, &service.MealRequest{Type: entity.MealLunch, Protein: 30, Fiber: 10})
		require.NoError(t, err)
		rec, err := env.tracking.RecordMeal(ctx, uid, &service.MealRequest{Type: entity.MealLunch, Protein: 25, Fiber: 6})
		require.NoError(t, err)
		assert.Len(t, rec.Meals, 1)
		assert.Equal(t, 25.0, rec.TotalProtein)
		assert.Equal(t, 6.0, rec.TotalFiber)
	})
	t.Run("slots add up", func(t *testing.T) {
		rec, err := env.tracking.RecordMeal(ctx, uid, &service.MealRequest{Type: entity.MealBreakfast, Protein: 12.5, Fiber: 4})
		require.NoError(t, err)
		assert.Len(t, rec.Meals, 2)
		assert.Equal(t, 37.5, rec.TotalProtein)
		assert.Equal(t, 10.0, rec.TotalFiber)
		assert.False(t, rec.Meals[1].Timestamp.IsZero())
	})
	t.Run("unknown slot", func(t *testing.T) {
		_, err := env.tracking.RecordMeal(ctx, uid, &service.MealRequest{Type: "brunch", Protein: 1, Fiber: 1})
		assert.ErrorIs(t, err, errorvalues.ErrInvalidMeal)
	})
	t.Run("negative values", func(t *testing.T) {
		_, err := env.tracking.RecordMeal(ctx, uid, &service.MealRequest{Type: entity.MealDinner, Protein: -1, Fiber: 1})
		assert.ErrorIs(t, err, errorvalues.ErrInvalidMeal)
	})
	t.Run("legacy duplicates collapse on write", func(t *testing.T) {
		legacy := `{"date":"2025-03-01","waterGlasses":0,"meals":[` +
			`{"type":"dinner","protein":10,"fiber":1},` +
			`{"type":"dinner","protein":20,"fiber":2}],"totalProtein":30,"totalFiber":3}`
		require.NoError(t, env.kv.Set(ctx, "daily:"+uid.String()+":2025-03-01", []byte(legacy)))
		rec, err := env.tracking.GetRecord(ctx, uid, "2025-03-01")
		require.NoError(t, err)
		assert.Equal(t, 20.0, rec.TotalProtein)
		rec, err = env.tracking.RecordMealOn(ctx, uid, "2025-03-01", entity.MealEntry{Type: entity.MealLunch, Protein: 5, Fiber: 5})
		require.NoError(t, err)
		assert.Len(t, rec.Meals, 2)
		assert.Equal(t, 25.0, rec.TotalProtein)
	})
}

func TestGetRecord(t *testing.T) {
	env := newTestEnv(at(2025, 3, 10, 8))
	uid := env.register(t, "ann@example.com", false)
	ctx := context.Background()

	rec, err := env.tracking.GetRecord(ctx, uid, "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, entity.NewDailyRecord("2024-02-29"), *rec)

	_, err = env.tracking.GetRecord(ctx, uid, "2024-02-30")
	assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
	_, err = env.tracking.GetRecord(ctx, uid, "../streak")
	assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(at(2025, 3, 10, 8))
	uid := env.register(t, "ann@example.com", false)
	other := env.register(t, "bob@example.com", false)
	ctx := context.Background()
	for _, date := range []string{"2025-03-08", "2025-03-10", "2025-02-28", "2025-03-09"} {
		_, err := env.tracking.AddWaterOn(ctx, uid, date, 1)
		require.NoError(t, err)
	}
	_, err := env.tracking.AddWaterOn(ctx, other, "2025-03-11", 1)
	require.NoError(t, err)

	t.Run("most recent first within limit", func(t *testing.T) {
		records, err := env.tracking.GetHistory(ctx, uid, 3)
		require.NoError(t, err)
		dates := make([]string, 0, len(records))
		for _, r := range records {
			dates = append(dates, r.Date)
		}
		assert.Equal(t, []string{"2025-03-10", "2025-03-09", "2025-03-08"}, dates)
	})
	t.Run("limit above size", func(t *testing.T) {
		records, err := env.tracking.GetHistory(ctx, uid, 30)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})
	t.Run("restartable and stoppable", func(t *testing.T) {
		seq := env.tracking.History(ctx, uid, 10)
		count := 0
		for _, err := range seq {
			require.NoError(t, err)
			count++
			if count == 2 {
				break
			}
		}
		assert.Equal(t, 2, count)
		count = 0
		for range seq {
			count++
		}
		assert.Equal(t, 4, count)
	})
	t.Run("non-positive limit is empty", func(t *testing.T) {
		records, err := env.tracking.GetHistory(ctx, uid, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestTrackingServiceRepositoryErrors(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	usersRepo := mocks.NewMockUsersRepositoryI(ctrl)
	recordsRepo := mocks.NewMockDailyRecordsRepositoryI(ctrl)
	serv := service.NewTrackingService(usersRepo, recordsRepo, at(2025, 3, 10, 8), "UTC")
	uid := uuid.New()
	user := &entity.User{ID: uid, DayStartTime: "06:00"}
	testCases := []struct {
		Desc         string
		Error        error
		Call         func() error
		MockPrepFunc func()
	}{
		{
			Desc:  "user lookup fails",
			Error: errors.New("repository error: db error"),
			Call: func() error {
				_, err := serv.AddWater(context.Background(), uid, 1)
				return err
			},
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(nil, errors.New("db error"))
			},
		},
		{
			Desc:  "record read fails",
			Error: errors.New("repository error: db error"),
			Call: func() error {
				_, err := serv.AddWater(context.Background(), uid, 1)
				return err
			},
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(user, nil)
				recordsRepo.EXPECT().Get(gomock.Any(), uid, "2025-03-10").Return(nil, errors.New("db error"))
			},
		},
		{
			Desc:  "record write fails",
			Error: errors.New("repository error: db error"),
			Call: func() error {
				_, err := serv.RecordMeal(context.Background(), uid, &service.MealRequest{Type: entity.MealDinner, Protein: 1})
				return err
			},
			MockPrepFunc: func() {
				usersRepo.EXPECT().FindByID(gomock.Any(), uid).Return(user, nil)
				recordsRepo.EXPECT().Get(gomock.Any(), uid, "2025-03-10").Return(nil, errorvalues.ErrRecordNotFound)
				recordsRepo.EXPECT().Save(gomock.Any(), uid, gomock.Any()).Return(errors.New("db error"))
			},
		},
		{
			Desc:  "history scan fails",
			Error: errors.New("repository error: db error"),
			Call: func() error {
				_, err := serv.GetHistory(context.Background(), uid, 7)
				return err
			},
			MockPrepFunc: func() {
				recordsRepo.EXPECT().ListByUser(gomock.Any(), uid).Return(nil, errors.New("db error"))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := tc.Call()
			assert.EqualError(t, err, tc.Error.Error())
		})
	}
}
