package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/pkg/dayclock"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/logging"
	"github.com/limbo/lumi/pkg/nutrition"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users   repository.UsersRepositoryI
	records repository.DailyRecordsRepositoryI
	streaks repository.StreaksRepositoryI
	days    dayResolver
}

func NewUserService(usersRepo repository.UsersRepositoryI, recordsRepo repository.DailyRecordsRepositoryI,
	streaksRepo repository.StreaksRepositoryI, clock dayclock.Clock, defaultTimezone string) *UserService {
	if usersRepo == nil || recordsRepo == nil || streaksRepo == nil {
		log.Fatal("on user service provided nil repos")
	}
	return &UserService{
		users:   usersRepo,
		records: recordsRepo,
		streaks: streaksRepo,
		days:    newDayResolver(clock, defaultTimezone),
	}
}

func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (us *UserService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, error) {
	if err := validateStruct(req, errorvalues.ErrValidation); err != nil {
		return nil, err
	}
	passwordHash, err := Hash(req.Password)
	if err != nil {
		return nil, errors.New("hashing password error: " + err.Error())
	}
	now := us.days.clock.Now().UTC()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		DayStartTime: req.DayStartTime,
		DayEndTime:   req.DayEndTime,
		Timezone:     req.Timezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.DayStartTime == "" {
		user.DayStartTime = dayclock.DefaultDayStart
	}
	if user.DayEndTime == "" {
		user.DayEndTime = dayclock.DefaultDayEnd
	}
	if err = us.users.Create(ctx, user); err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			return nil, err
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	if err = us.streaks.Save(ctx, user.ID, &entity.StreakState{}); err != nil {
		return nil, errors.New("repository error: " + err.Error())
	}
	logging.FromContext(ctx).Info("user registered", "uid", user.ID.String())
	return user, nil
}

func (us *UserService) Login(ctx context.Context, req *LoginRequest) (*entity.User, error) {
	if err := validateStruct(req, errorvalues.ErrValidation); err != nil {
		return nil, err
	}
	user, err := us.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, errorvalues.ErrWrongCredentials
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errorvalues.ErrWrongCredentials
	}
	return user, nil
}

func (us *UserService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := us.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	return user, nil
}

func (us *UserService) UpsertProfile(ctx context.Context, id uuid.UUID, profile entity.Profile) (*entity.NutritionalNeeds, error) {
	if err := validateStruct(profile, errorvalues.ErrInvalidProfile); err != nil {
		return nil, err
	}
	needs, err := nutrition.CalculateNeeds(profile)
	if err != nil {
		return nil, err
	}
	user, err := us.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Profile = &profile
	user.UpdatedAt = us.days.clock.Now().UTC()
	if err = us.users.Update(ctx, user); err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("repository error: " + err.Error())
	}
	today, err := us.days.today(user)
	if err != nil {
		return nil, errors.New("resolving today error: " + err.Error())
	}
	_, err = us.records.Get(ctx, id, today)
	switch {
	case errors.Is(err, errorvalues.ErrRecordNotFound):
		rec := entity.NewDailyRecord(today)
		if err = us.records.Save(ctx, id, &rec); err != nil {
			return nil, errors.New("repository error: " + err.Error())
		}
	case err != nil:
		return nil, errors.New("repository error: " + err.Error())
	}
	return &needs, nil
}
