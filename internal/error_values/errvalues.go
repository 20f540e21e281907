package errorvalues

import "errors"

var (
	ErrUserExists       = errors.New("such user already exists")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrInvalidToken     = errors.New("invalid token")
	ErrForbidden        = errors.New("access to another user's data")
	ErrValidation       = errors.New("validation error")
)

// Storage
var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrRecordNotFound = errors.New("daily record doesn't exist")
	ErrStreakNotFound = errors.New("streak doesn't exist")
)

// Validation
var (
	ErrInvalidProfile     = errors.New("invalid profile")
	ErrInvalidMeal        = errors.New("invalid meal")
	ErrInvalidWaterAmount = errors.New("invalid amount of glasses")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrOutOfOrderDate     = errors.New("date precedes last balanced date")
)
