package nutrition_test

import (
	"math"
	"testing"
	"time"

	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateNeeds(t *testing.T) {
	testCases := []struct {
		Desc    string
		Profile entity.Profile
		Needs   entity.NutritionalNeeds
	}{
		{
			Desc:    "female moderate under fifty",
			Profile: entity.Profile{Name: "Ana", Age: 30, Gender: entity.GenderFemale, WeightKg: 65, HeightCm: 165, ActivityLevel: entity.ActivityModerate},
			Needs:   entity.NutritionalNeeds{DailyProteinG: 91, DailyFiberG: 25, DailyWaterGlasses: 9, ProteinPerMealG: 30, FiberPerMealG: 8},
		},
		{
			Desc:    "male very active at fifty",
			Profile: entity.Profile{Name: "Leo", Age: 50, Gender: entity.GenderMale, WeightKg: 80, HeightCm: 180, ActivityLevel: entity.ActivityVery},
			Needs:   entity.NutritionalNeeds{DailyProteinG: 128, DailyFiberG: 30, DailyWaterGlasses: 11, ProteinPerMealG: 43, FiberPerMealG: 10},
		},
		{
			Desc:    "male light under fifty",
			Profile: entity.Profile{Name: "Tom", Age: 20, Gender: entity.GenderMale, WeightKg: 50, HeightCm: 170, ActivityLevel: entity.ActivityLight},
			Needs:   entity.NutritionalNeeds{DailyProteinG: 60, DailyFiberG: 38, DailyWaterGlasses: 7, ProteinPerMealG: 20, FiberPerMealG: 13},
		},
		{
			Desc:    "other sedentary",
			Profile: entity.Profile{Name: "Sam", Age: 45, Gender: entity.GenderOther, WeightKg: 70, HeightCm: 175, ActivityLevel: entity.ActivitySedentary},
			Needs:   entity.NutritionalNeeds{DailyProteinG: 70, DailyFiberG: 25, DailyWaterGlasses: 9, ProteinPerMealG: 23, FiberPerMealG: 8},
		},
		{
			Desc:    "female over fifty, half rounds up",
			Profile: entity.Profile{Name: "Eva", Age: 61, Gender: entity.GenderFemale, WeightKg: 62.5, HeightCm: 160, ActivityLevel: entity.ActivitySedentary},
			Needs:   entity.NutritionalNeeds{DailyProteinG: 63, DailyFiberG: 21, DailyWaterGlasses: 8, ProteinPerMealG: 21, FiberPerMealG: 7},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			needs, err := nutrition.CalculateNeeds(tc.Profile)
			require.NoError(t, err)
			assert.Equal(t, tc.Needs, needs)
		})
	}
}

func TestCalculateNeedsRejectsInvalidProfile(t *testing.T) {
	valid := entity.Profile{Name: "Ana", Age: 30, Gender: entity.GenderFemale, WeightKg: 65, HeightCm: 165, ActivityLevel: entity.ActivityModerate}
	testCases := []struct {
		Desc   string
		Mutate func(p *entity.Profile)
	}{
		{Desc: "zero age", Mutate: func(p *entity.Profile) { p.Age = 0 }},
		{Desc: "negative weight", Mutate: func(p *entity.Profile) { p.WeightKg = -1 }},
		{Desc: "zero height", Mutate: func(p *entity.Profile) { p.HeightCm = 0 }},
		{Desc: "unknown gender", Mutate: func(p *entity.Profile) { p.Gender = "x" }},
		{Desc: "unknown activity", Mutate: func(p *entity.Profile) { p.ActivityLevel = "extreme" }},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			p := valid
			tc.Mutate(&p)
			_, err := nutrition.CalculateNeeds(p)
			assert.ErrorIs(t, err, errorvalues.ErrInvalidProfile)
		})
	}
}

func TestCalculateNeedsPerMealWithinRounding(t *testing.T) {
	levels := []entity.ActivityLevel{entity.ActivitySedentary, entity.ActivityLight, entity.ActivityModerate, entity.ActivityVery}
	for weight := 30.0; weight <= 150; weight += 0.5 {
		for _, level := range levels {
			needs, err := nutrition.CalculateNeeds(entity.Profile{
				Age: 35, Gender: entity.GenderMale, WeightKg: weight, HeightCm: 170, ActivityLevel: level,
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, needs.DailyProteinG, 0)
			assert.GreaterOrEqual(t, needs.DailyWaterGlasses, 0)
			assert.LessOrEqual(t, math.Abs(float64(needs.ProteinPerMealG*3-needs.DailyProteinG)), 1.5)
			assert.LessOrEqual(t, math.Abs(float64(needs.FiberPerMealG*3-needs.DailyFiberG)), 1.5)
		}
	}
}

func TestIsBalanced(t *testing.T) {
	needs := entity.NutritionalNeeds{DailyProteinG: 91, DailyFiberG: 25}
	proteinAt := nutrition.ProteinThreshold(needs)
	fiberAt := nutrition.FiberThreshold(needs)
	testCases := []struct {
		Desc     string
		Protein  float64
		Fiber    float64
		Balanced bool
	}{
		{Desc: "exactly at both thresholds", Protein: proteinAt, Fiber: fiberAt, Balanced: true},
		{Desc: "above both", Protein: 100, Fiber: 30, Balanced: true},
		{Desc: "one unit below protein", Protein: proteinAt - 1, Fiber: fiberAt, Balanced: false},
		{Desc: "one unit below fiber", Protein: proteinAt, Fiber: fiberAt - 1, Balanced: false},
		{Desc: "protein rich, no fiber", Protein: 500, Fiber: 0, Balanced: false},
		{Desc: "empty day", Balanced: false},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			rec := entity.DailyRecord{TotalProtein: tc.Protein, TotalFiber: tc.Fiber}
			assert.Equal(t, tc.Balanced, nutrition.IsBalanced(rec, needs))
		})
	}
}

func TestIsBalancedWithSummedMeals(t *testing.T) {
	needs := entity.NutritionalNeeds{DailyProteinG: 50, DailyFiberG: 21}
	rec := entity.NewDailyRecord("2025-03-01")
	for _, slot := range []entity.MealSlot{entity.MealBreakfast, entity.MealLunch, entity.MealDinner} {
		nutrition.UpsertMeal(&rec, entity.MealEntry{Type: slot, Protein: 14, Fiber: 5.6})
	}
	// 5.6 * 3 sums to just under 16.8 in float64
	require.Less(t, rec.TotalFiber, nutrition.FiberThreshold(needs))
	assert.True(t, nutrition.IsBalanced(rec, needs))

	nutrition.UpsertMeal(&rec, entity.MealEntry{Type: entity.MealDinner, Protein: 14, Fiber: 5.5})
	assert.False(t, nutrition.IsBalanced(rec, needs))
}

func TestAnnotate(t *testing.T) {
	needs := entity.NutritionalNeeds{DailyProteinG: 50, DailyFiberG: 20}
	records := []entity.DailyRecord{
		{Date: "2025-03-02", TotalProtein: 40, TotalFiber: 16},
		{Date: "2025-03-01", TotalProtein: 10, TotalFiber: 16},
	}
	t.Run("with needs", func(t *testing.T) {
		out := nutrition.Annotate(records, &needs)
		require.Len(t, out, 2)
		assert.True(t, out[0].IsBalanced)
		assert.False(t, out[1].IsBalanced)
		assert.Equal(t, "2025-03-02", out[0].Date)
	})
	t.Run("without needs", func(t *testing.T) {
		out := nutrition.Annotate(records, nil)
		require.Len(t, out, 2)
		assert.False(t, out[0].IsBalanced)
	})
}

func TestUpsertMeal(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := entity.NewDailyRecord("2025-03-01")
	nutrition.UpsertMeal(&rec, entity.MealEntry{Type: entity.MealBreakfast, Protein: 20, Fiber: 5, Timestamp: ts})
	nutrition.UpsertMeal(&rec, entity.MealEntry{Type: entity.MealLunch, Protein: 30, Fiber: 8, Timestamp: ts})
	nutrition.UpsertMeal(&rec, entity.MealEntry{Type: entity.MealBreakfast, Protein: 25, Fiber: 6, Timestamp: ts.Add(time.Hour)})

	require.Len(t, rec.Meals, 2)
	assert.Equal(t, entity.MealBreakfast, rec.Meals[0].Type)
	assert.Equal(t, 25.0, rec.Meals[0].Protein)
	assert.Equal(t, 55.0, rec.TotalProtein)
	assert.Equal(t, 14.0, rec.TotalFiber)
}

func TestNormalizeCollapsesLegacyDuplicates(t *testing.T) {
	rec := entity.DailyRecord{
		Date: "2025-03-01",
		Meals: []entity.MealEntry{
			{Type: entity.MealBreakfast, Protein: 10, Fiber: 2},
			{Type: entity.MealLunch, Protein: 30, Fiber: 8},
			{Type: entity.MealBreakfast, Protein: 15, Fiber: 3},
		},
		TotalProtein: 55,
		TotalFiber:   13,
	}
	nutrition.Normalize(&rec)
	require.Len(t, rec.Meals, 2)
	assert.Equal(t, entity.MealLunch, rec.Meals[0].Type)
	assert.Equal(t, entity.MealBreakfast, rec.Meals[1].Type)
	assert.Equal(t, 45.0, rec.TotalProtein)
	assert.Equal(t, 11.0, rec.TotalFiber)
}

func TestSlotIntakes(t *testing.T) {
	rec := entity.DailyRecord{Meals: []entity.MealEntry{
		{Type: entity.MealDinner, Protein: 40, Fiber: 9},
		{Type: entity.MealDinner, Protein: 35, Fiber: 7},
	}}
	intakes := nutrition.SlotIntakes(rec)
	assert.Len(t, intakes, 3)
	assert.Equal(t, entity.MealIntake{}, intakes[entity.MealBreakfast])
	assert.Equal(t, entity.MealIntake{Protein: 35, Fiber: 7}, intakes[entity.MealDinner])
}

func TestCheckMeal(t *testing.T) {
	assert.NoError(t, nutrition.CheckMeal(entity.MealEntry{Type: entity.MealLunch}))
	assert.ErrorIs(t, nutrition.CheckMeal(entity.MealEntry{Type: "snack"}), errorvalues.ErrInvalidMeal)
	assert.ErrorIs(t, nutrition.CheckMeal(entity.MealEntry{Type: entity.MealLunch, Fiber: -1}), errorvalues.ErrInvalidMeal)
}
