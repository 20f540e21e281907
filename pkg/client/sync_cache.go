package client

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/nutrition"
)

// HistoryDays is the window the mirror keeps.
const HistoryDays = 14

// API is the part of Client the mirror needs.
type API interface {
	UpsertProfile(ctx context.Context, uid uuid.UUID, profile entity.Profile) (*entity.NutritionalNeeds, error)
	AddWater(ctx context.Context, uid uuid.UUID, glasses int) (int, error)
	RecordMeal(ctx context.Context, uid uuid.UUID, slot entity.MealSlot, protein, fiber float64) (*MealTotals, error)
	GetSummary(ctx context.Context, uid uuid.UUID) (*entity.Summary, error)
	GetHistory(ctx context.Context, uid uuid.UUID, days int) ([]entity.DailyProgress, error)
}

// State is what the mirror last saw from the server, plus any optimistic
// writes still in flight. IsBalanced and Streak are only ever copied from
// server answers.
type State struct {
	Loaded     bool
	Profile    *entity.Profile
	Needs      *entity.NutritionalNeeds
	Today      entity.DailyRecord
	Meals      map[entity.MealSlot]entity.MealIntake
	IsBalanced bool
	History    []entity.DailyProgress
	Streak     entity.StreakState
	FetchedAt  time.Time
}

func (s State) clone() State {
	out := s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	if s.Needs != nil {
		n := *s.Needs
		out.Needs = &n
	}
	out.Today.Meals = slices.Clone(s.Today.Meals)
	out.Meals = maps.Clone(s.Meals)
	out.History = slices.Clone(s.History)
	if s.Streak.LastBalancedDate != nil {
		d := *s.Streak.LastBalancedDate
		out.Streak.LastBalancedDate = &d
	}
	return out
}

// SyncCache mirrors one user's server state. Writes are applied
// optimistically, sent, and followed by a refetch of summary and history.
// A failed write restores the state from before it.
type SyncCache struct {
	api API
	uid uuid.UUID
	now func() time.Time

	mu    sync.Mutex
	state State
	// issued counts refreshes started, applied is the newest one whose
	// answer made it into state.
	issued  uint64
	applied uint64
}

func NewSyncCache(api API, uid uuid.UUID) *SyncCache {
	return &SyncCache{
		api: api,
		uid: uid,
		now: time.Now,
		state: State{
			Meals: nutrition.SlotIntakes(entity.DailyRecord{}),
		},
	}
}

// State returns a copy of the mirror.
func (sc *SyncCache) State() State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state.clone()
}

// Refresh fetches summary and history. An answer that arrives after a newer
// refresh was already applied is dropped.
func (sc *SyncCache) Refresh(ctx context.Context) error {
	sc.mu.Lock()
	sc.issued++
	epoch := sc.issued
	sc.mu.Unlock()

	summary, err := sc.api.GetSummary(ctx, sc.uid)
	if err != nil {
		return err
	}
	history, err := sc.api.GetHistory(ctx, sc.uid, HistoryDays)
	if err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if epoch <= sc.applied {
		return nil
	}
	sc.applied = epoch
	sc.state = State{
		Loaded:     true,
		Profile:    summary.User.Profile,
		Needs:      summary.Needs,
		Today:      summary.Daily,
		Meals:      nutrition.SlotIntakes(summary.Daily),
		IsBalanced: summary.IsBalanced,
		History:    history,
		Streak:     summary.Streak,
		FetchedAt:  sc.now(),
	}
	return nil
}

func (sc *SyncCache) AddWater(ctx context.Context, glasses int) error {
	return sc.write(ctx,
		func(s *State) {
			s.Today.WaterGlasses += glasses
		},
		func() error {
			_, err := sc.api.AddWater(ctx, sc.uid, glasses)
			return err
		},
	)
}

// RecordMeal replaces the slot's intake, the same way the server does.
func (sc *SyncCache) RecordMeal(ctx context.Context, slot entity.MealSlot, protein, fiber float64) error {
	meal := entity.MealEntry{Type: slot, Protein: protein, Fiber: fiber, Timestamp: sc.now()}
	if err := nutrition.CheckMeal(meal); err != nil {
		return err
	}
	return sc.write(ctx,
		func(s *State) {
			nutrition.UpsertMeal(&s.Today, meal)
			s.Meals = nutrition.SlotIntakes(s.Today)
		},
		func() error {
			_, err := sc.api.RecordMeal(ctx, sc.uid, slot, protein, fiber)
			return err
		},
	)
}

// UpdateProfile shows locally computed needs until the server answers.
func (sc *SyncCache) UpdateProfile(ctx context.Context, profile entity.Profile) error {
	needs, err := nutrition.CalculateNeeds(profile)
	if err != nil {
		return err
	}
	return sc.write(ctx,
		func(s *State) {
			s.Profile = &profile
			s.Needs = &needs
		},
		func() error {
			_, err := sc.api.UpsertProfile(ctx, sc.uid, profile)
			return err
		},
	)
}

func (sc *SyncCache) write(ctx context.Context, optimistic func(*State), send func() error) error {
	sc.mu.Lock()
	before := sc.state.clone()
	issued := sc.issued
	optimistic(&sc.state)
	sc.mu.Unlock()

	writeErr := send()
	if writeErr != nil {
		sc.mu.Lock()
		// a refresh started meanwhile owns the state now
		if sc.issued == issued {
			sc.state = before
		}
		sc.mu.Unlock()
	}
	if err := sc.Refresh(ctx); err != nil && writeErr == nil {
		return err
	}
	return writeErr
}

// Reset forgets everything, e.g. after logout.
func (sc *SyncCache) Reset() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.state = State{Meals: nutrition.SlotIntakes(entity.DailyRecord{})}
	sc.applied = sc.issued
}
