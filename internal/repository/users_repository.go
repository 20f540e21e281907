package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

type emailIndex struct {
	UserID uuid.UUID `json:"userId"`
}

type UsersRepository struct {
	kv KVStore
}

func NewUsersRepo(kv KVStore) *UsersRepository {
	return &UsersRepository{
		kv: kv,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (ur *UsersRepository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	email := normalizeEmail(user.Email)
	if _, err := ur.kv.Get(ctx, emailKey(email)); err == nil {
		return errorvalues.ErrUserExists
	} else if !errors.Is(err, errorvalues.ErrKeyNotFound) {
		return errors.New("checking email error: " + err.Error())
	}
	if _, err := ur.kv.Get(ctx, userKey(user.ID)); err == nil {
		return errorvalues.ErrUserExists
	} else if !errors.Is(err, errorvalues.ErrKeyNotFound) {
		return errors.New("checking user error: " + err.Error())
	}
	if err := ur.put(ctx, user); err != nil {
		return errors.New("creating user error: " + err.Error())
	}
	idx, err := sonic.Marshal(emailIndex{UserID: user.ID})
	if err != nil {
		return errors.New("encoding email index error: " + err.Error())
	}
	if err = ur.kv.Set(ctx, emailKey(email), idx); err != nil {
		return errors.New("creating email index error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	raw, err := ur.kv.Get(ctx, userKey(uid))
	if err != nil {
		if errors.Is(err, errorvalues.ErrKeyNotFound) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by id error: " + err.Error())
	}
	var user entity.User
	if err = sonic.Unmarshal(raw, &user); err != nil {
		return nil, errors.New("decoding user error: " + err.Error())
	}
	return &user, nil
}

func (ur *UsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	raw, err := ur.kv.Get(ctx, emailKey(normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, errorvalues.ErrKeyNotFound) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by email error: " + err.Error())
	}
	var idx emailIndex
	if err = sonic.Unmarshal(raw, &idx); err != nil {
		return nil, errors.New("decoding email index error: " + err.Error())
	}
	return ur.FindByID(ctx, idx.UserID)
}

func (ur *UsersRepository) Update(ctx context.Context, user *entity.User) error {
	if _, err := ur.kv.Get(ctx, userKey(user.ID)); err != nil {
		if errors.Is(err, errorvalues.ErrKeyNotFound) {
			return errorvalues.ErrUserNotFound
		}
		return errors.New("checking user error: " + err.Error())
	}
	if err := ur.put(ctx, user); err != nil {
		return errors.New("updating user error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) put(ctx context.Context, user *entity.User) error {
	raw, err := sonic.Marshal(user)
	if err != nil {
		return err
	}
	return ur.kv.Set(ctx, userKey(user.ID), raw)
}
