package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"math"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/pkg/dayclock"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/nutrition"
	"github.com/limbo/lumi/pkg/streak"
)

// TrackingService owns the per-day aggregate: water additions, meal slots
// and their totals.
type TrackingService struct {
	users   repository.UsersRepositoryI
	records repository.DailyRecordsRepositoryI
	days    dayResolver
}

func NewTrackingService(usersRepo repository.UsersRepositoryI, recordsRepo repository.DailyRecordsRepositoryI,
	clock dayclock.Clock, defaultTimezone string) *TrackingService {
	if usersRepo == nil || recordsRepo == nil {
		log.Fatal("on tracking service provided nil repos")
	}
	return &TrackingService{
		users:   usersRepo,
		records: recordsRepo,
		days:    newDayResolver(clock, defaultTimezone),
	}
}

func (ts *TrackingService) AddWater(ctx context.Context, uid uuid.UUID, glasses int) (int, error) {
	today, err := ts.todayOf(ctx, uid)
	if err != nil {
		return 0, err
	}
	rec, err := ts.AddWaterOn(ctx, uid, today, glasses)
	if err != nil {
		return 0, err
	}
	return rec.WaterGlasses, nil
}

// AddWaterOn adds glasses to the record of date, creating it when absent.
// A single call adds at most MaxGlassesPerAdd; the day total is unbounded
// as long as it fits in an int.
func (ts *TrackingService) AddWaterOn(ctx context.Context, uid uuid.UUID, date string, glasses int) (*entity.DailyRecord, error) {
	if glasses <= 0 || glasses > MaxGlassesPerAdd {
		return nil, errorvalues.ErrInvalidWaterAmount
	}
	rec, err := ts.load(ctx, uid, date)
	if err != nil {
		return nil, err
	}
	if glasses > math.MaxInt-rec.WaterGlasses {
		return nil, fmt.Errorf("%w: day total would overflow", errorvalues.ErrInvalidWaterAmount)
	}
	rec.WaterGlasses += glasses
	if err = ts.save(ctx, uid, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (ts *TrackingService) RecordMeal(ctx context.Context, uid uuid.UUID, req *MealRequest) (*entity.DailyRecord, error) {
	if err := validateStruct(req, errorvalues.ErrInvalidMeal); err != nil {
		return nil, err
	}
	today, err := ts.todayOf(ctx, uid)
	if err != nil {
		return nil, err
	}
	return ts.RecordMealOn(ctx, uid, today, entity.MealEntry{
		Type:    req.Type,
		Protein: req.Protein,
		Fiber:   req.Fiber,
	})
}

// RecordMealOn upserts meal into its slot of date. The timestamp is set to
// the current instant.
func (ts *TrackingService) RecordMealOn(ctx context.Context, uid uuid.UUID, date string, meal entity.MealEntry) (*entity.DailyRecord, error) {
	if err := nutrition.CheckMeal(meal); err != nil {
		return nil, err
	}
	rec, err := ts.load(ctx, uid, date)
	if err != nil {
		return nil, err
	}
	meal.Timestamp = ts.days.clock.Now().UTC()
	nutrition.UpsertMeal(rec, meal)
	if err = ts.save(ctx, uid, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (ts *TrackingService) GetRecord(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error) {
	return ts.load(ctx, uid, date)
}

func (ts *TrackingService) History(ctx context.Context, uid uuid.UUID, limit int) iter.Seq2[entity.DailyRecord, error] {
	return history(ctx, ts.records, uid, limit)
}

// GetHistory collects History into a slice.
func (ts *TrackingService) GetHistory(ctx context.Context, uid uuid.UUID, limit int) ([]entity.DailyRecord, error) {
	return collectHistory(ts.History(ctx, uid, limit))
}

// history scans the user's records on every iteration, so the sequence can
// be ranged over more than once and always reflects the store.
func history(ctx context.Context, records repository.DailyRecordsRepositoryI, uid uuid.UUID, limit int) iter.Seq2[entity.DailyRecord, error] {
	return func(yield func(entity.DailyRecord, error) bool) {
		if limit <= 0 {
			return
		}
		all, err := records.ListByUser(ctx, uid)
		if err != nil {
			yield(entity.DailyRecord{}, errors.New("repository error: "+err.Error()))
			return
		}
		for i, rec := range all {
			if i >= limit {
				return
			}
			nutrition.Normalize(&rec)
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func collectHistory(seq iter.Seq2[entity.DailyRecord, error]) ([]entity.DailyRecord, error) {
	result := make([]entity.DailyRecord, 0, DefaultHistoryDays)
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

func (ts *TrackingService) todayOf(ctx context.Context, uid uuid.UUID) (string, error) {
	user, err := ts.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return "", err
		}
		return "", errors.New("repository error: " + err.Error())
	}
	today, err := ts.days.today(user)
	if err != nil {
		return "", errors.New("resolving today error: " + err.Error())
	}
	return today, nil
}

// load returns the stored record of date or a fresh zero record.
func (ts *TrackingService) load(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error) {
	return loadRecord(ctx, ts.records, uid, date)
}

func loadRecord(ctx context.Context, records repository.DailyRecordsRepositoryI, uid uuid.UUID, date string) (*entity.DailyRecord, error) {
	if _, err := streak.ParseDate(date); err != nil {
		return nil, err
	}
	rec, err := records.Get(ctx, uid, date)
	if err != nil {
		if errors.Is(err, errorvalues.ErrRecordNotFound) {
			zero := entity.NewDailyRecord(date)
			return &zero, nil
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	nutrition.Normalize(rec)
	return rec, nil
}

func (ts *TrackingService) save(ctx context.Context, uid uuid.UUID, rec *entity.DailyRecord) error {
	now := ts.days.clock.Now().UTC()
	rec.LastUpdated = &now
	if err := ts.records.Save(ctx, uid, rec); err != nil {
		return errors.New("repository error: " + err.Error())
	}
	return nil
}
