package service

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/limbo/lumi/pkg/entity"
)

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 90

	MaxGlassesPerAdd = 100
)

type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Name         string `json:"name" validate:"required,max=100"`
	DayStartTime string `json:"dayStartTime,omitempty" validate:"omitempty,hhmm"`
	DayEndTime   string `json:"dayEndTime,omitempty" validate:"omitempty,hhmm"`
	Timezone     string `json:"timezone,omitempty" validate:"omitempty,iana_tz"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MealRequest struct {
	Type    entity.MealSlot `json:"type" validate:"required,oneof=breakfast lunch dinner"`
	Protein float64         `json:"protein" validate:"gte=0"`
	Fiber   float64         `json:"fiber" validate:"gte=0"`
}

type UserServiceI interface {
	// Validates the request, stores the user with default day window and a zero streak
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	// Compares given credentials. Fails with ErrWrongCredentials
	Login(ctx context.Context, req *LoginRequest) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// Replaces user's profile, seeds today's record and returns recomputed needs
	UpsertProfile(ctx context.Context, id uuid.UUID, profile entity.Profile) (*entity.NutritionalNeeds, error)
}

type TrackingServiceI interface {
	// Adds glasses to today's record and returns the new total
	AddWater(ctx context.Context, uid uuid.UUID, glasses int) (int, error)
	// Upserts the slot's meal in today's record and returns the updated record
	RecordMeal(ctx context.Context, uid uuid.UUID, req *MealRequest) (*entity.DailyRecord, error)
	// Returns the record for date, zero-valued when absent
	GetRecord(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error)
	// Lazy most-recent-first sequence of at most limit records
	History(ctx context.Context, uid uuid.UUID, limit int) iter.Seq2[entity.DailyRecord, error]
}

type SummaryServiceI interface {
	// Evaluates today, advances the streak and returns the whole picture
	GetSummary(ctx context.Context, uid uuid.UUID) (*entity.Summary, error)
	// Most-recent-first history with balance annotation
	GetHistory(ctx context.Context, uid uuid.UUID, days int) ([]entity.DailyProgress, error)
	// Stored streak without evaluating today
	GetStreak(ctx context.Context, uid uuid.UUID) (*entity.StreakState, error)
}

// ClampHistoryDays maps a requested window onto [1, MaxHistoryDays],
// non-positive values meaning the default.
func ClampHistoryDays(days int) int {
	switch {
	case days <= 0:
		return DefaultHistoryDays
	case days > MaxHistoryDays:
		return MaxHistoryDays
	default:
		return days
	}
}
