package repository

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

type StreaksRepository struct {
	kv KVStore
}

func NewStreaksRepo(kv KVStore) *StreaksRepository {
	return &StreaksRepository{
		kv: kv,
	}
}

func (sr *StreaksRepository) Get(ctx context.Context, uid uuid.UUID) (*entity.StreakState, error) {
	raw, err := sr.kv.Get(ctx, streakKey(uid))
	if err != nil {
		if errors.Is(err, errorvalues.ErrKeyNotFound) {
			return nil, errorvalues.ErrStreakNotFound
		}
		return nil, errors.New("getting streak error: " + err.Error())
	}
	var state entity.StreakState
	if err = sonic.Unmarshal(raw, &state); err != nil {
		return nil, errors.New("decoding streak error: " + err.Error())
	}
	return &state, nil
}

func (sr *StreaksRepository) Save(ctx context.Context, uid uuid.UUID, state *entity.StreakState) error {
	raw, err := sonic.Marshal(state)
	if err != nil {
		return errors.New("encoding streak error: " + err.Error())
	}
	if err = sr.kv.Set(ctx, streakKey(uid), raw); err != nil {
		return errors.New("saving streak error: " + err.Error())
	}
	return nil
}
