package service

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/pkg/dayclock"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/logging"
	"github.com/limbo/lumi/pkg/nutrition"
	"github.com/limbo/lumi/pkg/streak"
)

// SummaryService evaluates days against the user's needs and keeps the
// streak. It is the only writer of streak state after registration.
type SummaryService struct {
	users   repository.UsersRepositoryI
	records repository.DailyRecordsRepositoryI
	streaks repository.StreaksRepositoryI
	days    dayResolver
}

func NewSummaryService(usersRepo repository.UsersRepositoryI, recordsRepo repository.DailyRecordsRepositoryI,
	streaksRepo repository.StreaksRepositoryI, clock dayclock.Clock, defaultTimezone string) *SummaryService {
	if usersRepo == nil || recordsRepo == nil || streaksRepo == nil {
		log.Fatal("on summary service provided nil repos")
	}
	return &SummaryService{
		users:   usersRepo,
		records: recordsRepo,
		streaks: streaksRepo,
		days:    newDayResolver(clock, defaultTimezone),
	}
}

func (ss *SummaryService) GetSummary(ctx context.Context, uid uuid.UUID) (*entity.Summary, error) {
	user, err := ss.findUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	today, err := ss.days.today(user)
	if err != nil {
		return nil, errors.New("resolving today error: " + err.Error())
	}
	rec, err := loadRecord(ctx, ss.records, uid, today)
	if err != nil {
		return nil, err
	}
	state, err := ss.GetStreak(ctx, uid)
	if err != nil {
		return nil, err
	}
	summary := &entity.Summary{
		User:   user.Public(),
		Daily:  *rec,
		Streak: *state,
	}
	needs := needsOf(ctx, user)
	if needs == nil {
		return summary, nil
	}
	summary.Needs = needs
	summary.IsBalanced = nutrition.IsBalanced(*rec, *needs)

	next, err := streak.Advance(*state, today, summary.IsBalanced)
	if err != nil {
		if errors.Is(err, errorvalues.ErrOutOfOrderDate) {
			logging.FromContext(ctx).Warn("streak not advanced", slog.String("date", today), slog.String("error", err.Error()))
			return summary, nil
		}
		return nil, err
	}
	if !next.Equal(*state) {
		if err = ss.streaks.Save(ctx, uid, &next); err != nil {
			return nil, errors.New("repository error: " + err.Error())
		}
		logging.FromContext(ctx).Debug("streak advanced",
			slog.Int("current", next.CurrentStreak),
			slog.Int("longest", next.LongestStreak),
		)
	}
	summary.Streak = next
	return summary, nil
}

func (ss *SummaryService) GetHistory(ctx context.Context, uid uuid.UUID, days int) ([]entity.DailyProgress, error) {
	user, err := ss.findUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	records, err := collectHistory(history(ctx, ss.records, uid, ClampHistoryDays(days)))
	if err != nil {
		return nil, err
	}
	return nutrition.Annotate(records, needsOf(ctx, user)), nil
}

func (ss *SummaryService) GetStreak(ctx context.Context, uid uuid.UUID) (*entity.StreakState, error) {
	state, err := ss.streaks.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrStreakNotFound) {
			return &entity.StreakState{}, nil
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	return state, nil
}

func (ss *SummaryService) findUser(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	user, err := ss.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	return user, nil
}

// needsOf is nil for users without a usable profile; their days are never balanced.
func needsOf(ctx context.Context, user *entity.User) *entity.NutritionalNeeds {
	if user.Profile == nil {
		return nil
	}
	needs, err := nutrition.CalculateNeeds(*user.Profile)
	if err != nil {
		logging.FromContext(ctx).Warn("stored profile rejected", slog.String("error", err.Error()))
		return nil
	}
	return &needs
}
