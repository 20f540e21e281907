// Package nutrition holds the target and balance rules shared by the server
// and the client mirror. Nothing here touches storage.
package nutrition

import (
	"fmt"
	"math"

	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
)

const (
	// WaterMlPerKg is the daily hydration requirement per kilogram of body weight.
	WaterMlPerKg = 33.0
	// GlassMl is the volume of one glass.
	GlassMl       = 250.0
	MealsPerDay   = 3
	fiberAgeLimit = 50
)

// proteinMultipliers maps activity level to grams of protein per kilogram.
var proteinMultipliers = map[entity.ActivityLevel]float64{
	entity.ActivitySedentary: 1.0,
	entity.ActivityLight:     1.2,
	entity.ActivityModerate:  1.4,
	entity.ActivityVery:      1.6,
}

// CalculateNeeds derives daily targets from a profile. All rounding goes
// through math.Round, i.e. halves round away from zero (half-up for the
// non-negative values handled here).
func CalculateNeeds(p entity.Profile) (entity.NutritionalNeeds, error) {
	if err := checkProfile(p); err != nil {
		return entity.NutritionalNeeds{}, err
	}
	multiplier, ok := proteinMultipliers[p.ActivityLevel]
	if !ok {
		return entity.NutritionalNeeds{}, fmt.Errorf("%w: unknown activity level %q", errorvalues.ErrInvalidProfile, p.ActivityLevel)
	}
	protein := int(math.Round(p.WeightKg * multiplier))
	fiber := dailyFiber(p.Gender, p.Age)
	return entity.NutritionalNeeds{
		DailyProteinG:     protein,
		DailyFiberG:       fiber,
		DailyWaterGlasses: int(math.Round(p.WeightKg * WaterMlPerKg / GlassMl)),
		ProteinPerMealG:   int(math.Round(float64(protein) / MealsPerDay)),
		FiberPerMealG:     int(math.Round(float64(fiber) / MealsPerDay)),
	}, nil
}

func dailyFiber(gender entity.Gender, age int) int {
	if gender == entity.GenderMale {
		if age < fiberAgeLimit {
			return 38
		}
		return 30
	}
	// female and other share the same bands
	if age < fiberAgeLimit {
		return 25
	}
	return 21
}

func checkProfile(p entity.Profile) error {
	switch {
	case p.Age <= 0:
		return fmt.Errorf("%w: age must be positive", errorvalues.ErrInvalidProfile)
	case p.WeightKg <= 0 || math.IsNaN(p.WeightKg) || math.IsInf(p.WeightKg, 0):
		return fmt.Errorf("%w: weight must be positive", errorvalues.ErrInvalidProfile)
	case p.HeightCm <= 0 || math.IsNaN(p.HeightCm) || math.IsInf(p.HeightCm, 0):
		return fmt.Errorf("%w: height must be positive", errorvalues.ErrInvalidProfile)
	}
	switch p.Gender {
	case entity.GenderMale, entity.GenderFemale, entity.GenderOther:
	default:
		return fmt.Errorf("%w: unknown gender %q", errorvalues.ErrInvalidProfile, p.Gender)
	}
	return nil
}
