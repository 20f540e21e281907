package repository

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

type DailyRecordsRepository struct {
	kv KVStore
}

func NewDailyRecordsRepo(kv KVStore) *DailyRecordsRepository {
	return &DailyRecordsRepository{
		kv: kv,
	}
}

func (dr *DailyRecordsRepository) Get(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error) {
	raw, err := dr.kv.Get(ctx, dailyKey(uid, date))
	if err != nil {
		if errors.Is(err, errorvalues.ErrKeyNotFound) {
			return nil, errorvalues.ErrRecordNotFound
		}
		return nil, errors.New("getting daily record error: " + err.Error())
	}
	var rec entity.DailyRecord
	if err = sonic.Unmarshal(raw, &rec); err != nil {
		return nil, errors.New("decoding daily record error: " + err.Error())
	}
	if rec.Date == "" {
		rec.Date = date
	}
	return &rec, nil
}

func (dr *DailyRecordsRepository) Save(ctx context.Context, uid uuid.UUID, record *entity.DailyRecord) error {
	if record == nil || record.Date == "" {
		return errors.New("daily record without date")
	}
	raw, err := sonic.Marshal(record)
	if err != nil {
		return errors.New("encoding daily record error: " + err.Error())
	}
	if err = dr.kv.Set(ctx, dailyKey(uid, record.Date), raw); err != nil {
		return errors.New("saving daily record error: " + err.Error())
	}
	return nil
}

func (dr *DailyRecordsRepository) ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.DailyRecord, error) {
	prefix := dailyPrefix(uid)
	entries, err := dr.kv.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, errors.New("listing daily records error: " + err.Error())
	}
	result := make([]entity.DailyRecord, 0, len(entries))
	for _, e := range entries {
		var rec entity.DailyRecord
		if err = sonic.Unmarshal(e.Value, &rec); err != nil {
			return nil, errors.New("decoding daily record error: " + err.Error())
		}
		if rec.Date == "" {
			rec.Date = strings.TrimPrefix(e.Key, prefix)
		}
		result = append(result, rec)
	}
	// ISO dates sort chronologically as strings
	slices.SortFunc(result, func(a, b entity.DailyRecord) int { return strings.Compare(b.Date, a.Date) })
	return result, nil
}
