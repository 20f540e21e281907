package entity

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityVery      ActivityLevel = "very"
)

type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
)

// MealSlots lists the slots in the order a day goes through them.
var MealSlots = []MealSlot{MealBreakfast, MealLunch, MealDinner}

type Profile struct {
	Name          string        `json:"name" validate:"required,max=100"`
	Age           int           `json:"age" validate:"required,gt=0,lt=150"`
	Gender        Gender        `json:"gender" validate:"required,oneof=male female other"`
	WeightKg      float64       `json:"weight" validate:"required,gt=0,lt=700"`
	HeightCm      float64       `json:"height" validate:"required,gt=0,lt=300"`
	ActivityLevel ActivityLevel `json:"activityLevel" validate:"required,oneof=sedentary light moderate very"`
}

// User is the per-user aggregate stored under user:{id}.
type User struct {
	ID           uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	DayStartTime string    `json:"dayStartTime"`
	DayEndTime   string    `json:"dayEndTime"`
	Timezone     string    `json:"timezone,omitempty"`
	Profile      *Profile  `json:"profile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public strips credentials before the user leaves the process.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

type NutritionalNeeds struct {
	DailyProteinG     int `json:"dailyProtein"`
	DailyFiberG       int `json:"dailyFiber"`
	DailyWaterGlasses int `json:"dailyWater"`
	ProteinPerMealG   int `json:"proteinPerMeal"`
	FiberPerMealG     int `json:"fiberPerMeal"`
}

type MealEntry struct {
	Type      MealSlot  `json:"type"`
	Protein   float64   `json:"protein"`
	Fiber     float64   `json:"fiber"`
	Timestamp time.Time `json:"timestamp"`
}

// MealIntake is the per-slot view of a day's meals.
type MealIntake struct {
	Protein float64 `json:"protein"`
	Fiber   float64 `json:"fiber"`
}

type DailyRecord struct {
	Date         string      `json:"date"`
	WaterGlasses int         `json:"waterGlasses"`
	Meals        []MealEntry `json:"meals"`
	TotalProtein float64     `json:"totalProtein"`
	TotalFiber   float64     `json:"totalFiber"`
	LastUpdated  *time.Time  `json:"lastUpdated,omitempty"`
}

// NewDailyRecord returns the zero-valued record for date.
func NewDailyRecord(date string) DailyRecord {
	return DailyRecord{
		Date:  date,
		Meals: []MealEntry{},
	}
}

type DailyProgress struct {
	DailyRecord
	IsBalanced bool `json:"isBalanced"`
}

type StreakState struct {
	CurrentStreak    int     `json:"currentStreak"`
	LongestStreak    int     `json:"longestStreak"`
	LastBalancedDate *string `json:"lastBalancedDate"`
}

func (s StreakState) Equal(o StreakState) bool {
	if s.CurrentStreak != o.CurrentStreak || s.LongestStreak != o.LongestStreak {
		return false
	}
	if s.LastBalancedDate == nil || o.LastBalancedDate == nil {
		return s.LastBalancedDate == nil && o.LastBalancedDate == nil
	}
	return *s.LastBalancedDate == *o.LastBalancedDate
}

type Summary struct {
	User       User              `json:"user"`
	Needs      *NutritionalNeeds `json:"needs,omitempty"`
	Daily      DailyRecord       `json:"daily"`
	IsBalanced bool              `json:"isBalanced"`
	Streak     StreakState       `json:"streak"`
}
